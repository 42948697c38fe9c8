package api

import (
	"context"
	"net/http"
	"strings"

	"press-subscription/internal/domain"
	"press-subscription/internal/domain/model"
	"press-subscription/internal/infra/logging"
)

type ctxKey int

const userKey ctxKey = iota

func withUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// currentUser returns the authenticated caller, or nil for anonymous requests.
func currentUser(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// requireAuth rejects requests without a valid bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearerToken(r)
		if !ok {
			writeError(w, r, s.log, domain.ErrUnauthorized)
			return
		}
		user, err := s.users.Authenticate(r.Context(), tok)
		if err != nil {
			writeError(w, r, s.log, err)
			return
		}
		ctx := logging.WithUserID(withUser(r.Context(), user), user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth attaches the caller when a valid token is present and
// otherwise serves the request anonymously.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.users.Authenticate(r.Context(), tok)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := logging.WithUserID(withUser(r.Context(), user), user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
