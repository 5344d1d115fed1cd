// modules/debug/debug.go
//
// Debug-only endpoint that echoes parsed request metadata and the non-secret
// settings that shape request handling.
package debug

import (
	"encoding/json"
	"net/http"

	"github.com/yanizio/ecomm/internal/auth"
	"github.com/yanizio/ecomm/internal/config"
	"github.com/yanizio/ecomm/internal/requestinfo"
)

// Handler writes a JSON blob.  The secret key and database password are
// never included.
func Handler(res *requestinfo.Resolver, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, signedIn := auth.UserID(r.Context())
		out := map[string]any{
			"request":    res.Resolve(r),
			"signed_in":  signedIn,
			"user_id":    uid,
			"hosts":      cfg.Hosts.List(),
			"middleware": cfg.Middleware.List(),
			"apps":       cfg.Apps.List(),
			"database":   describe(cfg.Database),
		}

		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	}
}

func describe(db config.Database) string {
	switch d := db.(type) {
	case config.RemoteStore:
		return d.String()
	case config.LocalStore:
		return "sqlite:" + d.Path
	}
	return ""
}
