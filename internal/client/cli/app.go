package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/taskflow/internal/client/api"
	"github.com/dmitrijs2005/taskflow/internal/client/config"
)

// apiClient is the part of *api.Client the commands use.
type apiClient interface {
	SendOTP(ctx context.Context, email, password, name string) error
	VerifyOTP(ctx context.Context, email, otp, password, name string) (*api.User, error)
	Login(ctx context.Context, identifier, password string) (*api.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*api.User, error)
	ListTasks(ctx context.Context) ([]api.Task, error)
	GetTask(ctx context.Context, id string) (*api.Task, error)
	CreateTask(ctx context.Context, nt api.NewTask) (*api.Task, error)
	UpdateTask(ctx context.Context, id string, upd api.TaskUpdate) (*api.Task, error)
	DeleteTask(ctx context.Context, id string) error
	Prioritize(ctx context.Context, title, description string) (*api.PrioritySuggestion, error)
	Summarize(ctx context.Context, description string) (string, error)
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	api    apiClient
	user   *api.User
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	client, err := api.New(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &App{config: c, api: client, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) getStatus() string {
	if a.user == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.user.UserName)
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to TaskFlow CLI (type 'help' for commands)")

	if err := a.api.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "Warning: %s is not reachable: %v\n", a.config.ServerURL, err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
