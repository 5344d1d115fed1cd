// components/home/home.go
//
// Home app – the storefront landing page at "/".
package home

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/ecomm/internal/app"
)

// compile-time assertions
var (
	_ app.App         = (*App)(nil)
	_ app.Initializer = (*App)(nil)
)

const page = "home.html"

// App renders the landing page through the template engine.
type App struct{ env app.Env }

func (a *App) Name() string   { return "home" }
func (a *App) Prefix() string { return "/" }

func (a *App) Init(env app.Env) error {
	a.env = env
	return nil
}

func (a *App) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", a.index)
	return r
}

func init() { app.Register(&App{}) }

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	if a.env.Templates == nil {
		http.Error(w, "templates not configured", http.StatusInternalServerError)
		return
	}
	if _, ok := a.env.Templates.Lookup(page); !ok {
		// Fresh checkouts have no templates yet.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ecomm is running.\n"))
		return
	}
	a.env.Templates.Render(w, r, http.StatusOK, page, nil)
}
