// internal/middleware/security.go
//
// Security-header stage.
//
// Injects standard headers on every response:
//
//   • Strict-Transport-Security  –  forces HTTPS (2 years + preload), off in debug
//   • Content-Security-Policy   –  self-only default plus the Bootstrap CDN
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  drops path/query from Referer
//   • Permissions-Policy        –  disables powerful features by default
//
// Notes
// -----
// • Headers are added just before the status line is written, so handlers
//   may set their own values first.  The stage never overwrites an existing
//   value.
// • A panic further down is recovered here and answered with a 500 that
//   still carries the headers.  http.ErrAbortHandler is re-raised.
// • X-Frame-Options belongs to the clickjacking stage.
// • Oxford commas, two spaces after periods.

package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

const (
	hsts = "max-age=63072000; includeSubDomains; preload"
	csp  = "default-src 'self'; img-src 'self' data:; object-src 'none'; " +
		"style-src 'self' https://cdn.jsdelivr.net; script-src 'self' https://cdn.jsdelivr.net; " +
		"base-uri 'self'; frame-ancestors 'none'"
	nosn  = "nosniff"
	refer = "strict-origin-when-cross-origin"
	perm  = "geolocation=(), microphone=(), camera=()"
)

// Security sets security headers for every response.
func Security(debug bool, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hw := newHookWriter(w, func(h http.Header) {
				setDefault(h, "Content-Security-Policy", csp)
				setDefault(h, "X-Content-Type-Options", nosn)
				setDefault(h, "Referrer-Policy", refer)
				setDefault(h, "Permissions-Policy", perm)
				if !debug {
					setDefault(h, "Strict-Transport-Security", hsts)
				}
			})

			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Errorw("handler panic", "path", r.URL.Path, "panic", rec)
					if hw.Status() == 0 {
						http.Error(hw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
					return
				}
				hw.fire()
			}()

			next.ServeHTTP(hw, r)
		})
	}
}

// setDefault sets key only when the handler left it empty.
func setDefault(h http.Header, key, val string) {
	if h.Get(key) == "" {
		h.Set(key, val)
	}
}
