// Package httpapi exposes the TaskFlow JSON API over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/dmitrijs2005/taskflow/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type UserService interface {
	SendOTP(ctx context.Context, email, password, name string) error
	VerifyOTP(ctx context.Context, email, otp, password, name string) (*models.User, *services.IssuedSession, error)
	Login(ctx context.Context, identifier, password string) (*models.User, *services.IssuedSession, error)
	Logout(ctx context.Context, cookie string) error
	ResolveSession(ctx context.Context, cookie string) (*models.User, error)
}

type TaskService interface {
	List(ctx context.Context, userID string) ([]*models.Task, error)
	Get(ctx context.Context, userID, id string) (*models.Task, error)
	Create(ctx context.Context, userID string, nt *models.NewTask) (*models.Task, error)
	Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

type AIService interface {
	Prioritize(ctx context.Context, title, description string) (*services.PrioritySuggestion, error)
	Summarize(ctx context.Context, description string) (string, error)
}

// Options wires the handler to its collaborators.
type Options struct {
	Users        UserService
	Tasks        TaskService
	AI           AIService
	Logger       logging.Logger
	CookieSecure bool
	RateRPS      float64
	RateBurst    int
	// TrustProxy lets X-Forwarded-For and X-Real-IP replace the peer
	// address. Leave off unless a proxy in front overwrites them.
	TrustProxy bool
	// Health reports storage reachability for /healthz. May be nil.
	Health func(context.Context) error
}

type Handler struct {
	users        UserService
	tasks        TaskService
	ai           AIService
	logger       logging.Logger
	cookieSecure bool
	limiter      *ipRateLimiter
	trustProxy   bool
	health       func(context.Context) error
}

// NewRouter builds the chi router serving the whole API.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	h := &Handler{
		users:        opts.Users,
		tasks:        opts.Tasks,
		ai:           opts.AI,
		logger:       opts.Logger.With("module", "http"),
		cookieSecure: opts.CookieSecure,
		limiter:      newIPRateLimiter(opts.RateRPS, opts.RateBurst),
		trustProxy:   opts.TrustProxy,
		health:       opts.Health,
	}
	return h.routes()
}

func (h *Handler) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if h.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(limitBody)

	r.Get("/healthz", h.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rateLimit)
			r.Post("/send-otp", h.sendOTP)
			r.Post("/verify-otp", h.verifyOTP)
			r.Post("/login", h.login)
		})

		r.Post("/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/user", h.currentUser)

			r.Get("/tasks", h.listTasks)
			r.Post("/tasks", h.createTask)
			r.Get("/tasks/{id}", h.getTask)
			r.Patch("/tasks/{id}", h.updateTask)
			r.Delete("/tasks/{id}", h.deleteTask)

			r.Post("/ai/prioritize", h.prioritize)
			r.Post("/ai/summarize", h.summarize)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
