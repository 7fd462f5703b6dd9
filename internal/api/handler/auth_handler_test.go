package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/homehaven/marketplace-api/internal/api/middleware"
	"github.com/homehaven/marketplace-api/internal/core/domain"
	"github.com/homehaven/marketplace-api/internal/core/ports"
)

type stubSessionService struct {
	registerFn  func(ctx context.Context, email, password, fullName string, role domain.Role) (*domain.User, error)
	loginFn     func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	refreshFn   func(ctx context.Context, rawRefreshToken string) (*ports.LoginResult, error)
	logoutFn    func(ctx context.Context, rawRefreshToken string)
	logoutAllFn func(ctx context.Context, userID string) error
}

func (s *stubSessionService) Register(ctx context.Context, email, password, fullName string, role domain.Role) (*domain.User, error) {
	return s.registerFn(ctx, email, password, fullName, role)
}

func (s *stubSessionService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubSessionService) Refresh(ctx context.Context, rawRefreshToken string) (*ports.LoginResult, error) {
	return s.refreshFn(ctx, rawRefreshToken)
}

func (s *stubSessionService) Logout(ctx context.Context, rawRefreshToken string) {
	if s.logoutFn != nil {
		s.logoutFn(ctx, rawRefreshToken)
	}
}

func (s *stubSessionService) LogoutAll(ctx context.Context, userID string) error {
	if s.logoutAllFn != nil {
		return s.logoutAllFn(ctx, userID)
	}
	return nil
}

func testCookies() CookieSettings {
	return CookieSettings{Domain: "example.com", Secure: false, MaxAge: 7 * 24 * time.Hour}
}

func postJSON(t *testing.T, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := rec.Result()
	for _, ck := range res.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubSessionService{
		registerFn: func(_ context.Context, email, password, fullName string, role domain.Role) (*domain.User, error) {
			if email != "a@x.com" || password != "Password123" || fullName != "Alice Adams" || role != domain.RoleTenant {
				t.Fatalf("unexpected args: %s %s %s %s", email, password, fullName, role)
			}
			return &domain.User{ID: "user-1", Email: email, FullName: fullName, Role: role, PasswordHash: "$2a$10$secret"}, nil
		},
	}
	h := NewAuthHandler(stub, testCookies())

	c, rec := postJSON(t, "/auth/register",
		`{"email":"a@x.com","password":"Password123","full_name":"Alice Adams","role":"tenant"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["email"] != "a@x.com" || user["role"] != "tenant" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("password hash leaked in response: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	stub := &stubSessionService{
		registerFn: func(context.Context, string, string, string, domain.Role) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewAuthHandler(stub, testCookies())

	c, _ := postJSON(t, "/auth/register",
		`{"email":"a@x.com","password":"Password123","full_name":"Alice","role":"tenant"}`)

	if err := h.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_ValidationFailures(t *testing.T) {
	stub := &stubSessionService{
		registerFn: func(context.Context, string, string, string, domain.Role) (*domain.User, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, testCookies())

	cases := []struct {
		name string
		body string
	}{
		{"not json", `not-json`},
		{"bad email", `{"email":"nope","password":"Password123","full_name":"A","role":"tenant"}`},
		{"short password", `{"email":"a@x.com","password":"short","full_name":"A","role":"tenant"}`},
		{"unknown role", `{"email":"a@x.com","password":"Password123","full_name":"A","role":"landlord"}`},
	}
	for _, tc := range cases {
		c, _ := postJSON(t, "/auth/register", tc.body)
		err := h.Register(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 HTTPError, got %v", tc.name, err)
		}
	}
}

func TestAuthHandler_Login_SetsRefreshCookie(t *testing.T) {
	stub := &stubSessionService{
		loginFn: func(_ context.Context, email, password string) (*ports.LoginResult, error) {
			return &ports.LoginResult{
				AccessToken:     "access-token",
				AccessExpiresAt: time.Now().Add(15 * time.Minute),
				RefreshToken:    "raw-refresh-token",
				User:            &domain.User{ID: "user-1", Email: email, Role: domain.RoleTenant},
			}, nil
		},
	}
	h := NewAuthHandler(stub, testCookies())

	c, rec := postJSON(t, "/auth/login", `{"email":"a@x.com","password":"Password123"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "access-token" {
		t.Fatalf("missing access token in body: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "raw-refresh-token") {
		t.Fatalf("refresh token leaked into response body")
	}

	ck := findCookie(t, rec, "refresh_token")
	if ck == nil {
		t.Fatalf("refresh_token cookie not set")
	}
	if ck.Value != "raw-refresh-token" {
		t.Fatalf("unexpected cookie value %q", ck.Value)
	}
	if !ck.HttpOnly {
		t.Fatalf("refresh cookie must be HttpOnly")
	}
	if ck.Path != "/auth" {
		t.Fatalf("refresh cookie path = %q, want /auth", ck.Path)
	}
	if ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("refresh cookie SameSite = %v, want Lax", ck.SameSite)
	}
	if ck.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("refresh cookie MaxAge = %d", ck.MaxAge)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubSessionService{
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, testCookies())

	c, rec := postJSON(t, "/auth/login", `{"email":"a@x.com","password":"WrongPass1"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if ck := findCookie(t, rec, "refresh_token"); ck != nil {
		t.Fatalf("no cookie must be set on failed login")
	}
}

func TestAuthHandler_Refresh_RotatesCookie(t *testing.T) {
	stub := &stubSessionService{
		refreshFn: func(_ context.Context, raw string) (*ports.LoginResult, error) {
			if raw != "old-refresh-token" {
				t.Fatalf("expected cookie value to reach the service, got %q", raw)
			}
			return &ports.LoginResult{
				AccessToken:     "new-access-token",
				AccessExpiresAt: time.Now().Add(15 * time.Minute),
				RefreshToken:    "new-refresh-token",
				User:            &domain.User{ID: "user-1", Role: domain.RoleTenant},
			}, nil
		},
	}
	h := NewAuthHandler(stub, testCookies())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "old-refresh-token"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ck := findCookie(t, rec, "refresh_token")
	if ck == nil || ck.Value != "new-refresh-token" {
		t.Fatalf("rotated cookie not set: %+v", ck)
	}
}

func TestAuthHandler_Refresh_MissingCookie(t *testing.T) {
	stub := &stubSessionService{
		refreshFn: func(_ context.Context, raw string) (*ports.LoginResult, error) {
			if raw != "" {
				t.Fatalf("expected empty token, got %q", raw)
			}
			return nil, domain.ErrRefreshTokenMissing
		},
	}
	h := NewAuthHandler(stub, testCookies())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Refresh(c); !errors.Is(err, domain.ErrRefreshTokenMissing) {
		t.Fatalf("expected ErrRefreshTokenMissing, got %v", err)
	}
}

func TestAuthHandler_Logout_ClearsCookieAndNeverFails(t *testing.T) {
	var revoked []string
	stub := &stubSessionService{
		logoutFn: func(_ context.Context, raw string) {
			revoked = append(revoked, raw)
		},
	}
	h := NewAuthHandler(stub, testCookies())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "live-token"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(revoked) != 1 || revoked[0] != "live-token" {
		t.Fatalf("unexpected revocations: %v", revoked)
	}

	ck := findCookie(t, rec, "refresh_token")
	if ck == nil {
		t.Fatalf("clearing cookie not set")
	}
	if ck.Value != "" || ck.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: value=%q maxage=%d", ck.Value, ck.MaxAge)
	}

	// Logging out without any cookie is still a 204.
	req2 := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req2, rec2)
	if err := h.Logout(c2); err != nil {
		t.Fatalf("second logout errored: %v", err)
	}
	if rec2.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec2.Code)
	}
}

func TestAuthHandler_LogoutAll(t *testing.T) {
	var got string
	stub := &stubSessionService{
		logoutAllFn: func(_ context.Context, userID string) error {
			got = userID
			return nil
		},
	}
	h := NewAuthHandler(stub, testCookies())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout-all", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, "user-7")
	c.Set(middleware.ContextRole, domain.RoleOwner)

	if err := h.LogoutAll(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got != "user-7" {
		t.Fatalf("expected LogoutAll for user-7, got %q", got)
	}
}

func TestAuthHandler_LogoutAll_UnauthenticatedContext(t *testing.T) {
	stub := &stubSessionService{
		logoutAllFn: func(context.Context, string) error {
			t.Fatalf("service should not be called")
			return nil
		},
	}
	h := NewAuthHandler(stub, testCookies())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout-all", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.LogoutAll(c); !errors.Is(err, domain.ErrInvalidAccessToken) {
		t.Fatalf("expected ErrInvalidAccessToken, got %v", err)
	}
}

func TestAuthHandler_ForceLogout(t *testing.T) {
	var got string
	stub := &stubSessionService{
		logoutAllFn: func(_ context.Context, userID string) error {
			got = userID
			return nil
		},
	}
	h := NewAuthHandler(stub, testCookies())

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/admin/users/user-9/sessions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("user-9")

	if err := h.ForceLogout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got != "user-9" {
		t.Fatalf("expected revocation for user-9, got %q", got)
	}
}
