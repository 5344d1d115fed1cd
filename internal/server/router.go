// internal/server/router.go
//
// Router assembly.
//
/*
Context
--------
NewRouter returns the process's root handler:

  • Outer layer on every route: request id, Prometheus instrumentation, and
    the access log.
  • `/healthz` and, when no separate metrics listener is configured,
    `/metrics` sit outside the settings-driven pipeline, so load balancers
    can poll them without a session, a CSRF token, or an allowed Host.
  • Everything else, 404s included, runs through the middleware chain built
    from settings exactly once, then reaches the installed apps mounted in
    INSTALLED_APPS order.
  • In debug, `/__debug__/request` echoes parsed request metadata.

Notes
-----
  • A chain that fails validation aborts startup.
  • Oxford commas, two spaces after periods.  No em dash.
*/
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/app"
	"github.com/yanizio/ecomm/internal/config"
	"github.com/yanizio/ecomm/internal/database"
	"github.com/yanizio/ecomm/internal/metrics"
	"github.com/yanizio/ecomm/internal/middleware"
	"github.com/yanizio/ecomm/internal/passwords"
	"github.com/yanizio/ecomm/internal/requestinfo"
	"github.com/yanizio/ecomm/internal/templates"
	"github.com/yanizio/ecomm/modules/debug"
)

// Deps are the long-lived collaborators the router wires together.
type Deps struct {
	Config    *config.Config
	DB        *sqlx.DB
	Templates *templates.Engine
	Requests  *requestinfo.Resolver
	Passwords []passwords.Validator
	Log       *zap.SugaredLogger
}

/*──────────────────────────── router ───────────────────────────────────────*/

// NewRouter builds the root handler.
func NewRouter(d Deps) (http.Handler, error) {
	log := d.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	chain, err := middleware.Build(middleware.NewDeps(d.Config, log))
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(RequestID, metrics.Instrument, AccessLog(log))

	r.Get("/healthz", healthz(d.DB, log))
	if d.Config.HTTP.MetricsAddr == "" {
		r.Handle("/metrics", promhttp.Handler())
	}

	site := chi.NewRouter()
	if d.Config.Security.Debug {
		site.Get("/__debug__/request", debug.Handler(d.Requests, d.Config))
	}
	if _, err := app.Mount(site, d.Config.Apps, app.Env{
		Config:    d.Config,
		DB:        d.DB,
		Templates: d.Templates,
		Passwords: d.Passwords,
		Log:       log,
	}); err != nil {
		return nil, err
	}
	r.Mount("/", chain(site))
	return r, nil
}

// MetricsHandler serves /metrics on a dedicated listener.
func MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

/*──────────────────────────── health ───────────────────────────────────────*/

func healthz(db *sqlx.DB, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if db == nil {
			_, _ = w.Write([]byte("ok\n"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.Healthcheck(ctx, db); err != nil {
			metrics.DBUp.Set(0)
			log.Warnw("health check failed", "err", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		metrics.DBUp.Set(1)
		_, _ = w.Write([]byte("ok\n"))
	}
}
