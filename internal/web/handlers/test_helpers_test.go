package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skytails/skytails/internal/auth"
	"github.com/skytails/skytails/internal/models"
	"github.com/skytails/skytails/internal/ratelimit"
	"github.com/skytails/skytails/internal/web"
	"github.com/skytails/skytails/internal/web/handlers"
)

// mockUserStore is an in-memory store.UserStore.
type mockUserStore struct {
	users  map[string]*models.User
	nextID int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*models.User), nextID: 1}
}

func (m *mockUserStore) CreateUser(_ context.Context, email, passwordHash string) (*models.User, error) {
	if _, ok := m.users[email]; ok {
		return nil, errors.New("email already exists")
	}
	u := &models.User{
		ID:           m.nextID,
		PublicID:     uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.nextID++
	m.users[email] = u
	return u, nil
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (m *mockUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

// mockSessionStore is an in-memory store.SessionStore.
type mockSessionStore struct {
	sessions map[string]*models.Session
	nextID   int64
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*models.Session), nextID: 1}
}

func (m *mockSessionStore) CreateSession(_ context.Context, token string, userID int64, expiresAt interface{}) (*models.Session, error) {
	exp, _ := expiresAt.(time.Time)
	s := &models.Session{
		ID:        m.nextID,
		Token:     token,
		UserID:    userID,
		ExpiresAt: exp,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.sessions[token] = s
	return s, nil
}

func (m *mockSessionStore) GetSessionByToken(_ context.Context, token string) (*models.Session, error) {
	s, ok := m.sessions[token]
	if !ok || s.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("session not found")
	}
	return s, nil
}

func (m *mockSessionStore) DeleteSession(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *mockSessionStore) DeleteExpiredSessions(_ context.Context) error { return nil }

// testEnv bundles a router with the stores behind it.
type testEnv struct {
	router      http.Handler
	users       *mockUserStore
	sessions    *mockSessionStore
	authService *auth.Service
}

// newTestEnv builds a router over in-memory stores with one operator
// account provisioned.
func newTestEnv(t *testing.T, deps web.RouterDeps) *testEnv {
	t.Helper()

	users := newMockUserStore()
	sessions := newMockSessionStore()
	authService := auth.NewService(users, sessions, 72)

	if _, err := authService.CreateOperator(context.Background(), "ops@skytails.test", "correct horse"); err != nil {
		t.Fatalf("CreateOperator: %v", err)
	}

	deps.AuthHandler = handlers.NewAuthHandler(authService, false)
	deps.AuthService = authService
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(100, 100)
	}

	return &testEnv{
		router:      web.NewRouter(deps),
		users:       users,
		sessions:    sessions,
		authService: authService,
	}
}

// login returns a valid session cookie for the provisioned operator.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	session, err := e.authService.Login(context.Background(), "ops@skytails.test", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return &http.Cookie{Name: "session_token", Value: session.Token}
}

func doRequest(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req.RemoteAddr = "192.0.2.1:1234"
	e.router.ServeHTTP(rec, req)
	return rec
}
