package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/homehaven/marketplace-api/internal/api/metrics"
	"github.com/homehaven/marketplace-api/internal/core/domain"
	"github.com/homehaven/marketplace-api/internal/core/ports"
)

const (
	refreshCookieName = "refresh_token"
	// Scoped so the browser only attaches the refresh token to the auth
	// endpoints, never to the rest of the API.
	refreshCookiePath = "/auth"
)

// CookieSettings controls the refresh-token cookie attributes.
type CookieSettings struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	sessions ports.SessionService
	cookies  CookieSettings
}

func NewAuthHandler(sessions ports.SessionService, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.sessions.Register(c.Request().Context(), req.Email, req.Password, req.FullName, domain.Role(req.Role))
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(user.Role)).Inc()
	return c.JSON(http.StatusCreated, registerResponse{User: user})
}

// Login authenticates a user, returning an access token in the body and a
// refresh token as an HttpOnly cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	h.setRefreshCookie(c, res.RefreshToken)
	return c.JSON(http.StatusOK, sessionResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.AccessExpiresAt.Unix(),
		User:        res.User,
	})
}

// Refresh rotates the refresh token from the cookie and issues a new access
// token. The previous refresh token is invalid from this point on.
//
// @Summary      Refresh the session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	res, err := h.sessions.Refresh(c.Request().Context(), readRefreshCookie(c))
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues(refreshResult(err)).Inc()
		return err
	}
	metrics.RefreshRotationsTotal.WithLabelValues("success").Inc()

	h.setRefreshCookie(c, res.RefreshToken)
	return c.JSON(http.StatusOK, sessionResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.AccessExpiresAt.Unix(),
		User:        res.User,
	})
}

// Logout revokes the session behind the refresh cookie and clears it.
// Always succeeds from the client's perspective.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.sessions.Logout(c.Request().Context(), readRefreshCookie(c))
	metrics.SessionsRevokedTotal.WithLabelValues("single").Inc()

	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every session of the authenticated user.
//
// @Summary      Logout everywhere
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.sessions.LogoutAll(c.Request().Context(), userID); err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("all").Inc()

	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// ForceLogout lets an admin revoke every session a user holds, e.g. after a
// compromised account report.
//
// @Summary      Revoke all sessions of a user (admin)
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "User id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /admin/users/{id}/sessions [delete]
func (h *AuthHandler) ForceLogout(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing user id")
	}
	if err := h.sessions.LogoutAll(c.Request().Context(), userID); err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("all").Inc()
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Domain:   h.cookies.Domain,
		MaxAge:   int(h.cookies.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		Domain:   h.cookies.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func readRefreshCookie(c echo.Context) string {
	ck, err := c.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrTooManyLoginAttempts):
		return "throttled"
	default:
		return "error"
	}
}

func refreshResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRefreshToken), errors.Is(err, domain.ErrRefreshTokenMissing):
		return "invalid"
	default:
		return "error"
	}
}
