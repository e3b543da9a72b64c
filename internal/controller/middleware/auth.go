// Package middleware contains HTTP middleware for the controller.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"veoprompt/internal/auth"
	"veoprompt/internal/store"
	"veoprompt/pkg/api"

	"github.com/google/uuid"
)

// userKey is the context key for the authenticated user.
type userKey struct{}

// UserLookup finds the owner of an API key.
type UserLookup interface {
	GetUserByAPIKeyHash(ctx context.Context, hash string) (*store.User, error)
}

// AuthMiddleware resolves the bearer API key to a user and stores it in the
// request context. Every user-facing operation is scoped by that user.
func AuthMiddleware(s UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, present, ok := bearerToken(r)
			if !present {
				writeError(w, "Missing authorization header", http.StatusUnauthorized)
				return
			}
			if !ok {
				writeError(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			user, err := s.GetUserByAPIKeyHash(r.Context(), auth.HashKey(key))
			if errors.Is(err, store.ErrNotFound) || (err == nil && user == nil) {
				writeError(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			if err != nil {
				writeError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithUser(r.Context(), user)))
		})
	}
}

// NewContextWithUser returns a copy of ctx carrying user.
func NewContextWithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (*store.User, bool) {
	user, ok := ctx.Value(userKey{}).(*store.User)
	return user, ok && user != nil
}

// UserIDFromContext extracts the authenticated user's ID from the context.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return user.ID, true
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
