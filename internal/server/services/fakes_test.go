package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/users"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/verifications"
	"github.com/google/uuid"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// --- users ---

type fakeUsersRepo struct {
	mu        sync.Mutex
	byName    map[string]*models.User
	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	f.byName[cp.UserName] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, name string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byName {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- verifications ---

type fakeVerificationsRepo struct {
	mu        sync.Mutex
	rows      map[string]models.EmailVerification
	upsertErr  error
	deleteErr  error
	failureErr error
}

func newFakeVerificationsRepo() *fakeVerificationsRepo {
	return &fakeVerificationsRepo{rows: map[string]models.EmailVerification{}}
}

func (f *fakeVerificationsRepo) Upsert(ctx context.Context, v *models.EmailVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[v.Email] = *v
	return nil
}

func (f *fakeVerificationsRepo) FindForUpdate(ctx context.Context, email string) (*models.EmailVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.rows[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &v, nil
}

func (f *fakeVerificationsRepo) RecordFailure(ctx context.Context, email string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failureErr != nil {
		return 0, f.failureErr
	}
	v, ok := f.rows[email]
	if !ok {
		return 0, common.ErrorNotFound
	}
	v.Attempts++
	f.rows[email] = v
	return v.Attempts, nil
}

func (f *fakeVerificationsRepo) Delete(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, email)
	return nil
}

// --- sessions ---

type fakeSessionsRepo struct {
	mu        sync.Mutex
	rows      map[string]models.Session
	createErr error
}

func newFakeSessionsRepo() *fakeSessionsRepo {
	return &fakeSessionsRepo{rows: map[string]models.Session{}}
}

func (f *fakeSessionsRepo) Create(ctx context.Context, userID, token string, validity time.Duration) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	s := models.Session{Token: token, UserID: userID, ExpiresAt: time.Now().Add(validity), CreatedAt: time.Now()}
	f.rows[token] = s
	return &s, nil
}

func (f *fakeSessionsRepo) Find(ctx context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, token)
	return nil
}

func (f *fakeSessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, s := range f.rows {
		if s.Expired(now) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionsRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// --- tasks ---

type fakeTasksRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.Task
	order     []string
	getErr    error
	updateErr error
	locked    []string
}

func newFakeTasksRepo() *fakeTasksRepo {
	return &fakeTasksRepo{rows: map[string]*models.Task{}}
}

func (f *fakeTasksRepo) Create(ctx context.Context, userID string, nt *models.NewTask) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &models.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       nt.Title,
		Description: nt.Description,
		Priority:    nt.Priority,
		Status:      nt.Status,
		DueDate:     nt.DueDate,
		Tags:        nt.Tags,
		CreatedAt:   time.Now(),
	}
	f.rows[t.ID] = t
	f.order = append(f.order, t.ID)
	cp := *t
	return &cp, nil
}

func (f *fakeTasksRepo) get(id string) (*models.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasksRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeTasksRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked = append(f.locked, id)
	return f.get(id)
}

func (f *fakeTasksRepo) ListByUser(ctx context.Context, userID string) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Task, 0)
	for i := len(f.order) - 1; i >= 0; i-- {
		t, ok := f.rows[f.order[i]]
		if ok && t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTasksRepo) Update(ctx context.Context, t *models.Task) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if _, ok := f.rows[t.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	f.rows[t.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeTasksRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	v *fakeVerificationsRepo
	s *fakeSessionsRepo
	t *fakeTasksRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(),
		v: newFakeVerificationsRepo(),
		s: newFakeSessionsRepo(),
		t: newFakeTasksRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) Verifications(db dbx.DBTX) verifications.Repository { return m.v }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessions.Repository           { return m.s }
func (m *fakeRepoManager) Tasks(db dbx.DBTX) tasks.Repository                 { return m.t }

// --- mailer / model ---

type fakeMailer struct {
	mu   sync.Mutex
	sent map[string]string
	err  error
}

func (f *fakeMailer) SendOTP(ctx context.Context, email, otp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[email] = otp
	return nil
}

func (f *fakeMailer) last(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[email]
}

type fakeModel struct {
	out       string
	err       error
	gotSystem string
	gotUser   string
	gotJSON   bool
}

func (f *fakeModel) Complete(ctx context.Context, system, user string, jsonObject bool) (string, error) {
	f.gotSystem, f.gotUser, f.gotJSON = system, user, jsonObject
	return f.out, f.err
}
