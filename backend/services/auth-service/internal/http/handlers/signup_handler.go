package handlers

import (
	"context"
	"errors"
	"net/http"

	"chargebook/backend/services/auth-service/internal/models"
	"chargebook/backend/services/auth-service/internal/service"
)

// Signupper registers accounts.
type Signupper interface {
	Signup(ctx context.Context, email, username, password string) (*models.User, error)
}

// NewSignupHandler returns HTTP handler for registration endpoint.
func NewSignupHandler(auth Signupper) http.HandlerFunc {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Username string `json:"username" validate:"required,min=3,max=64"`
		Password string `json:"password" validate:"required,min=6"`
	}
	type response struct {
		ID       int64  `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeAndValidate(w, r, &req) {
			return
		}

		user, err := auth.Signup(r.Context(), req.Email, req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUserExists):
				writeError(w, http.StatusConflict, "email or username already registered")
			case errors.Is(err, service.ErrMissingFields):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "failed to create user")
			}
			return
		}

		writeJSON(w, http.StatusCreated, response{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			Role:     user.Role,
		})
	}
}
