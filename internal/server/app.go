// Package server initializes and runs the TaskFlow API server.
// It opens storage and applies migrations, wires mail and language model
// backends into the services, and serves HTTP until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/config"
	"github.com/dmitrijs2005/taskflow/internal/server/httpapi"
	"github.com/dmitrijs2005/taskflow/internal/server/llm"
	"github.com/dmitrijs2005/taskflow/internal/server/mailer"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskflow/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	handler     http.Handler
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	warnInsecureConfig(ctx, c, logger)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	m, err := newMailer(c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	model := llm.New(llm.Config{
		APIKey:  c.OpenAIAPIKey,
		BaseURL: c.OpenAIBaseURL,
		Model:   c.OpenAIModel,
		Timeout: c.AITimeout,
	}, nil, logger)

	us := services.NewUserService(db, rm, m, logger, c)
	ts := services.NewTaskService(db, rm, logger)
	as := services.NewAIService(model, logger)

	handler := httpapi.NewRouter(httpapi.Options{
		Users:        us,
		Tasks:        ts,
		AI:           as,
		Logger:       logger,
		CookieSecure: c.CookieSecure,
		RateRPS:      c.RateRPS,
		RateBurst:    c.RateBurst,
		TrustProxy:   c.TrustProxy,
		Health:       db.PingContext,
	})

	return &App{config: c, logger: logger, db: db, userService: us, handler: handler}, nil
}

func warnInsecureConfig(ctx context.Context, c *config.Config, logger logging.Logger) {
	if c.UsesDefaultSecret() {
		logger.Warn(ctx, "SESSION_SECRET is not set, session cookies are signed with the development secret")
	}
	if c.TrustProxy {
		logger.Info(ctx, "trusting X-Forwarded-For and X-Real-IP for client addresses")
	}
}

// newMailer picks SMTP delivery when a host is configured and falls back
// to logging the codes otherwise.
func newMailer(c *config.Config, logger logging.Logger) (services.Mailer, error) {
	if c.SMTPHost == "" {
		logger.Warn(context.Background(), "SMTP host not configured, OTP codes will only be logged")
		return mailer.NewLogMailer(logger), nil
	}
	m, err := mailer.NewSMTPMailer(mailer.Config{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.Sender(),
		Validity: c.OTPValidityDuration,
	}, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// serveHTTP serves on ln until ctx is cancelled, then drains in-flight
// requests for at most timeout.
func serveHTTP(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, logger logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	ln, err := net.Listen("tcp", app.config.EndpointAddrHTTP)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	srv := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := serveHTTP(ctx, srv, ln, app.config.ShutdownTimeout, app.logger); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if n, err := app.userService.PurgeExpiredSessions(ctx); err != nil {
		app.logger.Warn(ctx, "purging expired sessions failed", "error", err)
	} else if n > 0 {
		app.logger.Info(ctx, "purged expired sessions", "count", n)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
