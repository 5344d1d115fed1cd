package middleware

import (
	"net/http"

	"github.com/yanizio/ecomm/internal/message"
	"github.com/yanizio/ecomm/internal/session"
)

// Messages attaches a flash-message store bound to the request's session.
func Messages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := session.FromContext(r.Context()); s != nil {
			r = r.WithContext(message.WithStore(r.Context(), message.NewStore(s)))
		}
		next.ServeHTTP(w, r)
	})
}
