package handlers

import (
	"context"
	"errors"
	"net/http"

	"chargebook/backend/services/auth-service/internal/models"
	"chargebook/backend/services/auth-service/internal/service"
)

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// NewLoginHandler handles POST /auth/login.
func NewLoginHandler(auth Authenticator) http.HandlerFunc {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
		UserID    int64  `json:"user_id"`
		Role      string `json:"role"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeAndValidate(w, r, &req) {
			return
		}

		token, user, err := auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to login")
			return
		}

		writeJSON(w, http.StatusOK, response{
			Token:     token,
			TokenType: "Bearer",
			UserID:    user.ID,
			Role:      user.Role,
		})
	}
}
