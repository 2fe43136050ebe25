package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/client/api"
)

type fakeAPI struct {
	users map[string]string // identifier -> password

	sendOTPArgs []string
	verifyArgs  []string
	loggedOut   bool
	loginErr    error

	tasks   map[string]*api.Task
	created []api.NewTask
	updates []api.TaskUpdate
	deleted []string

	suggestion *api.PrioritySuggestion
	summary    string
	aiErr      error
}

func newFakeAPI() *fakeAPI {
	desc := "Collect numbers and write the quarterly report"
	return &fakeAPI{
		users: map[string]string{"alice@example.com": "secret"},
		tasks: map[string]*api.Task{
			"t1": {ID: "t1", Title: "Write report", Description: &desc, Priority: "medium", Status: "todo", CreatedAt: time.Now()},
		},
	}
}

func (f *fakeAPI) SendOTP(ctx context.Context, email, password, name string) error {
	f.sendOTPArgs = []string{email, password, name}
	return nil
}

func (f *fakeAPI) VerifyOTP(ctx context.Context, email, otp, password, name string) (*api.User, error) {
	f.verifyArgs = []string{email, otp, password, name}
	if otp != "123456" {
		return nil, &api.Error{Status: 400, Message: "Invalid or expired OTP"}
	}
	return &api.User{ID: "u2", UserName: email, Name: name, Verified: true}, nil
}

func (f *fakeAPI) Login(ctx context.Context, identifier, password string) (*api.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.users[identifier] != password {
		return nil, &api.Error{Status: 401, Message: "Invalid credentials"}
	}
	return &api.User{ID: "u1", UserName: identifier, Name: "Alice"}, nil
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.loggedOut = true
	return nil
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*api.User, error) {
	if f.loggedOut {
		return nil, &api.Error{Status: 401, Message: "Unauthorized"}
	}
	return &api.User{ID: "u1", UserName: "alice@example.com", Name: "Alice"}, nil
}

func (f *fakeAPI) ListTasks(ctx context.Context) ([]api.Task, error) {
	out := []api.Task{}
	for _, t := range f.tasks {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeAPI) GetTask(ctx context.Context, id string) (*api.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, &api.Error{Status: 404, Message: "Task not found"}
	}
	cp := *t
	return &cp, nil
}

func (f *fakeAPI) CreateTask(ctx context.Context, nt api.NewTask) (*api.Task, error) {
	f.created = append(f.created, nt)
	t := &api.Task{ID: "t-new", Title: nt.Title, Priority: nt.Priority, Status: "todo", Tags: nt.Tags}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, id string, upd api.TaskUpdate) (*api.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, &api.Error{Status: 404, Message: "Task not found"}
	}
	f.updates = append(f.updates, upd)
	if v, ok := upd["title"].(string); ok {
		t.Title = v
	}
	if v, ok := upd["description"]; ok {
		if s, isStr := v.(string); isStr {
			t.Description = &s
		} else {
			t.Description = nil
		}
	}
	if v, ok := upd["tags"]; ok {
		tags, _ := v.([]string)
		t.Tags = tags
	}
	if v, ok := upd["status"].(string); ok {
		t.Status = v
	}
	if v, ok := upd["priority"].(string); ok {
		t.Priority = v
	}
	if v, ok := upd["aiSummary"].(string); ok {
		t.AISummary = &v
	}
	cp := *t
	return &cp, nil
}

func (f *fakeAPI) DeleteTask(ctx context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return &api.Error{Status: 404, Message: "Task not found"}
	}
	delete(f.tasks, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) Prioritize(ctx context.Context, title, description string) (*api.PrioritySuggestion, error) {
	return f.suggestion, f.aiErr
}

func (f *fakeAPI) Summarize(ctx context.Context, description string) (string, error) {
	return f.summary, f.aiErr
}

func (f *fakeAPI) Ping(ctx context.Context) error { return nil }

// newTestApp returns an App reading the given lines and a buffer with its output.
func newTestApp(t *testing.T, f *fakeAPI, lines ...string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	in := strings.Join(lines, "\n")
	if in != "" {
		in += "\n"
	}
	return &App{api: f, reader: bufio.NewReader(strings.NewReader(in)), out: &out}, &out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

// silence captures REPL output instead of printing it.
func silence(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		printed = append(printed, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &printed
}
