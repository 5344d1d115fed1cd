package middleware

import "net/http"

// Clickjacking sets X-Frame-Options: DENY unless the handler chose a value.
func Clickjacking(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hw := newHookWriter(w, func(h http.Header) {
			setDefault(h, "X-Frame-Options", "DENY")
		})
		next.ServeHTTP(hw, r)
		hw.fire()
	})
}
