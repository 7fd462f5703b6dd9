package handler

import "github.com/homehaven/marketplace-api/internal/core/domain"

// Request bodies are explicit, validated structs; nothing loosely typed
// crosses into the core.

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin owner tenant"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerResponse struct {
	User *domain.User `json:"user"`
}

// sessionResponse carries the access token in the body; the refresh token
// travels only in the HttpOnly cookie set alongside it.
type sessionResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   int64        `json:"expires_at"`
	User        *domain.User `json:"user,omitempty"`
}
