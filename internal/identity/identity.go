// Package identity carries the caller identity the fronting gateway supplies.
// Authentication happens upstream; this service trusts the headers as given.
package identity

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// Identity is who is making the call, as asserted by the gateway.
type Identity struct {
	UserID  string
	IsAdmin bool
}

// Contact is the owner-facing side of a user, used to address notifications.
type Contact struct {
	UserID string
	Name   string
	Email  string
}

// Directory resolves a user id to their contact identity.
type Directory interface {
	Contact(ctx context.Context, userID string) (Contact, error)
}

func With(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func From(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Middleware reads X-User-ID and X-Admin into the request context and
// rejects anonymous calls.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			http.Error(w, "missing identity", http.StatusUnauthorized)
			return
		}
		id := Identity{
			UserID:  userID,
			IsAdmin: r.Header.Get("X-Admin") == "true",
		}
		next.ServeHTTP(w, r.WithContext(With(r.Context(), id)))
	})
}

// RequireAdmin guards admin-only routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := From(r.Context())
		if !ok || !id.IsAdmin {
			http.Error(w, "admin only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
