package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/usermgmt/user-management-api/internal/core/domain"
	"github.com/usermgmt/user-management-api/internal/core/service"
	"github.com/usermgmt/user-management-api/internal/infrastructure/security"
	"github.com/usermgmt/user-management-api/internal/infrastructure/token"
)

// memoryRepo is an in-memory store so the full request path (router,
// validation, service, hasher, token manager, error handler) runs without a
// database.
type memoryRepo struct {
	users []domain.User
}

func (r *memoryRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for i := range r.users {
		if strings.EqualFold(r.users[i].Email, email) {
			clone := r.users[i]
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memoryRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for i := range r.users {
		if strings.EqualFold(r.users[i].Email, user.Email) {
			return nil, domain.ErrUserExists
		}
	}
	r.users = append(r.users, *user)
	clone := *user
	return &clone, nil
}

func (r *memoryRepo) ListAll(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	tokens, err := token.NewJWTManager("router-test-secret", "iss", "aud", 30*time.Minute)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	users := service.NewUserService(&memoryRepo{}, security.NewBcryptHasher(bcrypt.MinCost), tokens)
	return NewRouter(RouterConfig{
		Users:    users,
		Tokens:   tokens,
		Log:      zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	})
}

func doJSON(h http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestRouter_FullFlow exercises the documented scenario: register, login,
// reject unauthenticated listing, accept the issued token.
func TestRouter_FullFlow(t *testing.T) {
	h := newTestRouter(t)

	// Register.
	rec := doJSON(h, http.MethodPost, "/api/users/register",
		`{"email":"a@x.com","username":"alice","password":"secret1"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/api/users/") {
		t.Fatalf("register: unexpected Location %q", loc)
	}
	var created map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("register: invalid json: %v", err)
	}
	if created["id"] == "" || created["id"] == nil {
		t.Fatalf("register: body missing id: %+v", created)
	}
	if _, ok := created["password_hash"]; ok {
		t.Fatalf("register: hash leaked")
	}

	// Login with the same credentials.
	rec = doJSON(h, http.MethodPost, "/api/users/login",
		`{"email":"a@x.com","password":"secret1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("login: invalid json: %v", err)
	}
	if loginResp.Token == "" || strings.Count(loginResp.Token, ".") != 2 {
		t.Fatalf("login: expected a jwt-like token, got %q", loginResp.Token)
	}

	// Listing without a token is rejected.
	rec = doJSON(h, http.MethodGet, "/api/users/all", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("list without token: expected 401, got %d", rec.Code)
	}

	// Listing with the issued token succeeds, hash stripped.
	rec = doJSON(h, http.MethodGet, "/api/users/all", "", loginResp.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list with token: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "alice") {
		t.Fatalf("list: expected alice in body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "$2") {
		t.Fatalf("list: hash leaked: %s", rec.Body.String())
	}

	// Protected endpoint honours the same token.
	rec = doJSON(h, http.MethodGet, "/api/users/protected", "", loginResp.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("protected: expected 200, got %d", rec.Code)
	}
}

func TestRouter_Register_ValidationResponse(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(h, http.MethodPost, "/api/users/register",
		`{"email":"bad-email","username":"alice","password":"secret1"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := resp.Fields["email"]; !ok {
		t.Fatalf("expected email field message, got %+v", resp.Fields)
	}

	// Nothing was created.
	rec = doJSON(h, http.MethodPost, "/api/users/login",
		`{"email":"bad-email@x.com","password":"secret1"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unregistered email, got %d", rec.Code)
	}
}

func TestRouter_Register_Conflict(t *testing.T) {
	h := newTestRouter(t)

	body := `{"email":"dup@x.com","username":"dupuser","password":"secret1"}`
	if rec := doJSON(h, http.MethodPost, "/api/users/register", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}
	rec := doJSON(h, http.MethodPost, "/api/users/register", body, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d", rec.Code)
	}
}

// TestRouter_Login_UniformUnauthorized verifies an unknown email and a wrong
// password produce byte-identical failure responses.
func TestRouter_Login_UniformUnauthorized(t *testing.T) {
	h := newTestRouter(t)

	if rec := doJSON(h, http.MethodPost, "/api/users/register",
		`{"email":"iris@x.com","username":"iris","password":"goodpass"}`, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	unknown := doJSON(h, http.MethodPost, "/api/users/login",
		`{"email":"ghost@x.com","password":"goodpass"}`, "")
	wrong := doJSON(h, http.MethodPost, "/api/users/login",
		`{"email":"iris@x.com","password":"badpass1"}`, "")

	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", unknown.Code, wrong.Code)
	}
	if unknown.Body.String() != wrong.Body.String() {
		t.Fatalf("failure responses must be identical: %q vs %q",
			unknown.Body.String(), wrong.Body.String())
	}
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(h, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
