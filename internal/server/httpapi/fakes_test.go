package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/dmitrijs2005/taskflow/internal/server/services"
)

// --- users ---

type fakeUsers struct {
	mu       sync.Mutex
	sessions map[string]*models.User
	logins   map[string]string // identifier -> password
	verified map[string]bool

	sendErr    error
	verifyErr  error
	lastLogin  string
	loggedOut  []string
	sentOTPFor []string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		sessions: map[string]*models.User{},
		logins:   map[string]string{},
		verified: map[string]bool{},
	}
}

func (f *fakeUsers) addUser(id, email, password string, verified bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins[email] = password
	f.verified[email] = verified
	f.sessions["cookie-"+id] = &models.User{ID: id, UserName: email, Name: "User " + id, Verified: verified}
}

func (f *fakeUsers) SendOTP(ctx context.Context, email, password, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentOTPFor = append(f.sentOTPFor, email)
	return f.sendErr
}

func (f *fakeUsers) VerifyOTP(ctx context.Context, email, otp, password, name string) (*models.User, *services.IssuedSession, error) {
	if f.verifyErr != nil {
		return nil, nil, f.verifyErr
	}
	if otp != "123456" {
		return nil, nil, common.ErrorInvalidOTP
	}
	u := &models.User{ID: "new-user", UserName: email, Name: name, Verified: true}
	f.mu.Lock()
	f.sessions["cookie-new-user"] = u
	f.mu.Unlock()
	return u, &services.IssuedSession{Cookie: "cookie-new-user", TTL: time.Hour}, nil
}

func (f *fakeUsers) Login(ctx context.Context, identifier, password string) (*models.User, *services.IssuedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLogin = identifier
	pw, ok := f.logins[identifier]
	if !ok || pw != password || !f.verified[identifier] {
		return nil, nil, common.ErrorInvalidCreds
	}
	for cookie, u := range f.sessions {
		if u.UserName == identifier {
			return u, &services.IssuedSession{Cookie: cookie, TTL: time.Hour}, nil
		}
	}
	return nil, nil, common.ErrorInvalidCreds
}

func (f *fakeUsers) Logout(ctx context.Context, cookie string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, cookie)
	delete(f.sessions, cookie)
	return nil
}

func (f *fakeUsers) ResolveSession(ctx context.Context, cookie string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.sessions[cookie]
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}

// --- tasks ---

// fakeTasks keeps tasks in memory and enforces ownership like TaskService.
type fakeTasks struct {
	mu     sync.Mutex
	tasks  map[string]*models.Task
	seq    int
	genErr error
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: map[string]*models.Task{}}
}

func (f *fakeTasks) owned(userID, id string) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if t.UserID != userID {
		return nil, common.ErrorForbidden
	}
	return t, nil
}

func (f *fakeTasks) List(ctx context.Context, userID string) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.genErr != nil {
		return nil, f.genErr
	}
	out := []*models.Task{}
	for _, t := range f.tasks {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTasks) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.owned(userID, id)
	if err != nil {
		return nil, err
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) Create(ctx context.Context, userID string, nt *models.NewTask) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if nt.Priority == "" {
		nt.Priority = models.PriorityMedium
	}
	if nt.Status == "" {
		nt.Status = models.StatusTodo
	}
	f.seq++
	t := &models.Task{
		ID:          fmt.Sprintf("task-%d", f.seq),
		UserID:      userID,
		Title:       nt.Title,
		Description: nt.Description,
		Priority:    nt.Priority,
		Status:      nt.Status,
		DueDate:     nt.DueDate,
		Tags:        nt.Tags,
		CreatedAt:   time.Now(),
	}
	f.tasks[t.ID] = t
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.owned(userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(t)
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) Delete(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.owned(userID, id); err != nil {
		return err
	}
	delete(f.tasks, id)
	return nil
}

// --- ai ---

type fakeModel struct {
	reply string
	err   error
}

func (m *fakeModel) Complete(ctx context.Context, system, user string, jsonObject bool) (string, error) {
	return m.reply, m.err
}

// --- harness ---

type testServer struct {
	handler http.Handler
	users   *fakeUsers
	tasks   *fakeTasks
	model   *fakeModel
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		users: newFakeUsers(),
		tasks: newFakeTasks(),
		model: &fakeModel{},
	}
	ts.users.addUser("alice", "alice@example.com", "secret", true)
	ts.users.addUser("bob", "bob@example.com", "secret", true)

	ts.handler = NewRouter(Options{
		Users:     ts.users,
		Tasks:     ts.tasks,
		AI:        services.NewAIService(ts.model, logging.Nop{}),
		Logger:    logging.Nop{},
		RateRPS:   100,
		RateBurst: 100,
	})
	return ts
}

// do sends a request as the given user id; an empty id sends no cookie.
func (ts *testServer) do(method, path, body, as string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: "cookie-" + as})
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}
