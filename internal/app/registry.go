// internal/app/registry.go
//
// Installed-app registry (cycle-free).
//
// Each concrete app lives under components/<name> and calls app.Register()
// in an init() function.  The server walks INSTALLED_APPS in order and
// mounts the Routes() of every app that registered under that name.  Apps
// that implement Initializer get Init(env) first.
//
// Installed names with no Go implementation (admin, contenttypes, and the
// like) are legal.  They are reported once at debug level and skipped.

package app

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/config"
	"github.com/yanizio/ecomm/internal/passwords"
	"github.com/yanizio/ecomm/internal/templates"
)

// Env exposes process-wide resources to apps during Init.
type Env struct {
	Config    *config.Config
	DB        *sqlx.DB
	Templates *templates.Engine
	Passwords []passwords.Validator
	Log       *zap.SugaredLogger
}

// App contract.
//
// Prefix is where Routes are mounted ("/accounts").  Only one installed app
// may claim "/".
type App interface {
	Name() string
	Prefix() string
	Routes() chi.Router
}

// Initializer is optional.
type Initializer interface {
	Init(Env) error
}

// ErrPrefixConflict is returned when two installed apps share a prefix.
var ErrPrefixConflict = errors.New("app prefix already mounted")

var (
	mu       sync.RWMutex
	registry = map[string]App{}
)

// Register is invoked from app init() functions.  A later registration
// under the same name replaces the earlier one.
func Register(a App) {
	mu.Lock()
	registry[a.Name()] = a
	mu.Unlock()
}

// Lookup returns the app registered as name.
func Lookup(name string) (App, bool) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := registry[name]
	return a, ok
}

// Registered lists registered names, sorted.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Mount initialises and mounts every installed, registered app on r in
// installed order.  It returns the names it mounted.
func Mount(r chi.Router, installed config.Apps, env Env) ([]string, error) {
	log := env.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var mounted []string
	prefixes := map[string]string{}
	for _, name := range installed.List() {
		a, ok := Lookup(name)
		if !ok {
			log.Debugw("installed app has no routes", "app", name)
			continue
		}

		// Init first: a prefix may come from settings.
		if in, ok := a.(Initializer); ok {
			if err := in.Init(env); err != nil {
				return mounted, fmt.Errorf("init app %s: %w", name, err)
			}
		}

		prefix := a.Prefix()
		if prefix == "" {
			prefix = "/"
		}
		if owner, taken := prefixes[prefix]; taken {
			return mounted, fmt.Errorf("%w: %s by %s and %s", ErrPrefixConflict, prefix, owner, name)
		}

		r.Mount(prefix, a.Routes())
		prefixes[prefix] = name
		mounted = append(mounted, name)
		log.Infow("app mounted", "app", name, "prefix", prefix)
	}
	return mounted, nil
}
