package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homehaven/marketplace-api/internal/core/ports"
)

// UserHandler serves identity-backed user reads. The wider marketplace owns
// the rest of the user surface; this service only exposes what a verified
// access token entitles the caller to.
type UserHandler struct {
	users ports.UserRepository
}

func NewUserHandler(users ports.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the authenticated user's own profile.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.users.FindByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
