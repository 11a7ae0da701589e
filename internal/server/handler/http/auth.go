// Package http provides the REST handlers, routing and middleware
// configuration for the GophNotes service.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/GophNotes/internal/metrics"
	"github.com/atinyakov/GophNotes/internal/middleware"
	"github.com/atinyakov/GophNotes/internal/models"
	"go.uber.org/zap"
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	// Register creates an account and returns it with a session token.
	Register(ctx context.Context, email, password, fullName string) (*models.User, string, error)
	// Login checks credentials and returns the user with a session token.
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	// ResolveIdentity maps a session token to its user.
	ResolveIdentity(ctx context.Context, token string) (*models.User, error)
}

// AuthHandler handles HTTP requests for registration, login and the current identity.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// Log receives internal failures. Nil disables logging.
	Log *zap.Logger
	// Metrics counts rejected logins. Nil disables counting.
	Metrics *metrics.Metrics
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser is the user summary embedded in an AuthResponse.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// AuthResponse is returned by a successful registration or login.
type AuthResponse struct {
	User        AuthUser `json:"user"`
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
}

func newAuthResponse(u *models.User, token string) AuthResponse {
	return AuthResponse{
		User: AuthUser{
			ID:    u.ID,
			Email: u.Email,
			Name:  u.FullName,
			Token: token,
		},
		AccessToken: token,
		TokenType:   "bearer",
	}
}

// Register handles POST /api/auth/register.
// It validates the payload, creates the account and answers 201 with a
// session token. A taken email is answered with 400.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := firstError(
		validateEmail(req.Email),
		validatePassword(req.Password),
		validateFullName(req.FullName),
	); err != nil {
		writeError(w, h.Log, err)
		return
	}

	user, token, err := h.AuthService.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAuthResponse(user, token))
}

// Login handles POST /api/auth/login.
// Unknown emails and wrong passwords get the same 401 answer.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validateEmail(req.Email); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if req.Password == "" {
		writeError(w, h.Log, models.NewValidationError("password", "must not be empty"))
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, models.ErrUnauthorized) {
		h.Metrics.RecordAuthFailure(metrics.ReasonLogin)
		writeUnauthorized(w, detailBadCredentials)
		return
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuthResponse(user, token))
}

// Me handles GET /api/auth/me and returns the resolved user record.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w, detailBadToken)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
