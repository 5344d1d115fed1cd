package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/config"
)

// Common rejects requests whose Host header is not in the allow-list.
func Common(hosts config.Hosts, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hosts.Allows(r.Host) {
				log.Warnw("disallowed host", "host", r.Host, "path", r.URL.Path)
				http.Error(w, "Bad Request (400)", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
