// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/GophNotes/internal/metrics"
	"github.com/atinyakov/GophNotes/internal/models"
	"go.uber.org/zap"
)

type ctxKey string

const userKey ctxKey = "user"

// IdentityResolver maps a bearer token to the user it was issued to.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*models.User, error)
}

// FailureRecorder counts rejected tokens.
type FailureRecorder interface {
	RecordAuthFailure(reason string)
}

// BearerAuth returns a middleware that requires an
// "Authorization: Bearer <token>" header.
//
// The token is resolved to the current user record, which is stored in
// the request context for downstream handlers. A missing, unusable or
// orphaned token is answered with 401 and a WWW-Authenticate challenge.
func BearerAuth(resolver IdentityResolver, log *zap.Logger, failures FailureRecorder) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				reject(w, failures)
				return
			}

			user, err := resolver.ResolveIdentity(r.Context(), token)
			if err != nil {
				if errors.Is(err, models.ErrUnauthorized) {
					reject(w, failures)
					return
				}
				log.Error("failed to resolve identity", zap.Error(err))
				writeDetail(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user stored by BearerAuth, or nil.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(w http.ResponseWriter, failures FailureRecorder) {
	if failures != nil {
		failures.RecordAuthFailure(metrics.ReasonToken)
	}
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
