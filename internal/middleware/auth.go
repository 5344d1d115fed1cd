package middleware

import (
	"net/http"
	"strconv"

	"github.com/yanizio/ecomm/internal/auth"
	"github.com/yanizio/ecomm/internal/session"
)

// Auth attaches the session's user, if any, to the request context.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		if s == nil {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := s.Get(session.KeyUserID)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// A signed but unparsable id is treated as anonymous.
			next.ServeHTTP(w, r)
			return
		}
		verified, _ := s.Get(session.KeyVerified)
		u := auth.User{ID: id, EmailVerified: verified == "true"}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
	})
}
