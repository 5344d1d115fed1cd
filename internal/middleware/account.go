package middleware

import (
	"net/http"
	"strings"

	"github.com/yanizio/ecomm/internal/auth"
	"github.com/yanizio/ecomm/internal/config"
)

// Account enforces mandatory e-mail verification.  A signed-in user whose
// address is unverified is redirected to the confirmation page from every
// URL outside the account prefix and the asset prefixes.
func Account(a config.Auth, exempt ...string) func(http.Handler) http.Handler {
	exempt = append([]string{a.AccountURLPrefix}, exempt...)
	return func(next http.Handler) http.Handler {
		if a.EmailVerification != "mandatory" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.FromContext(r.Context())
			if ok && !u.EmailVerified && !hasAnyPrefix(r.URL.Path, exempt) {
				http.Redirect(w, r, a.EmailConfirmationURL, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasAnyPrefix(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		if pre != "" && strings.HasPrefix(p, pre) {
			return true
		}
	}
	return false
}
