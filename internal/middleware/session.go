package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/session"
)

// SessionCookie describes the cookie the session stage reads and writes.
type SessionCookie struct {
	Name string
	Age  time.Duration
}

// Session decodes the signed cookie into a *session.Session on the way in
// and rewrites the cookie before headers are sent when the session changed.
// A bad or expired cookie yields an empty session.
func Session(codec *session.Codec, cookie SessionCookie, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var values map[string]string
			if c, err := r.Cookie(cookie.Name); err == nil && c.Value != "" {
				v, err := codec.Decode(c.Value)
				if err != nil {
					log.Debugw("session cookie rejected", "err", err)
				} else {
					values = v
				}
			}
			s := session.New(values)

			hw := newHookWriter(w, func(h http.Header) {
				if !s.Modified() {
					return
				}
				if s.Len() == 0 {
					http.SetCookie(w, &http.Cookie{
						Name: cookie.Name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true,
					})
					return
				}
				val, err := codec.Encode(s.Values())
				if err != nil {
					log.Errorw("session encode failed", "err", err)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cookie.Name,
					Value:    val,
					Path:     "/",
					HttpOnly: true,
					Secure:   isSecure(r),
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(cookie.Age / time.Second),
				})
			})

			next.ServeHTTP(hw, r.WithContext(session.WithSession(r.Context(), s)))
			hw.fire()
		})
	}
}
