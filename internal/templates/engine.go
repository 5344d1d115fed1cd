// internal/templates/engine.go
//
// Template engine: root discovery, first-match lookup, shared layouts, and
// an LRU of parsed page sets.
//
// Lookup precedence (first hit wins):
//  1. Each TEMPLATES DIRS entry, in order (<base>/templates).
//  2. When APP_DIRS is on, <base>/<app>/templates for every installed app,
//     in installed order.
//
// Files under layouts/ or partials/ are shared.  Every page is parsed into a
// clone of the shared set, so each page may {{ define "content" }} without
// colliding with its siblings.  Templates are named by their path relative
// to the root they came from ("products/detail.html").
//
// In debug the engine re-reads templates on every render.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package templates

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/cache"
	"github.com/yanizio/ecomm/internal/config"
	"github.com/yanizio/ecomm/internal/form"
	"github.com/yanizio/ecomm/internal/requestinfo"
)

// ErrNotFound is returned when no root holds the requested template.
var ErrNotFound = errors.New("template not found")

// Engine renders named templates with context-processor data.
type Engine struct {
	roots  []string
	debug  bool
	procs  []namedProcessor
	funcs  template.FuncMap
	log    *zap.SugaredLogger
	sets   *cache.LRU[string, *template.Template]
	mu     sync.Mutex
	shared *template.Template
	index  map[string]string // name → absolute path
}

// Options carries collaborators the context processors need.
type Options struct {
	Requests *requestinfo.Resolver
	Forms    *form.Renderer
	Log      *zap.SugaredLogger
}

// Roots lists template directories in lookup order.
func Roots(cfg *config.Config) []string {
	roots := append([]string(nil), cfg.Templates.Dirs...)
	if cfg.Templates.AppDirs {
		for _, app := range cfg.Apps.List() {
			roots = append(roots, filepath.Join(cfg.Paths.Base, app, "templates"))
		}
	}
	return roots
}

// New builds an engine from cfg and parses every root once.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	procs, err := processors(cfg.Templates.ContextProcessors, cfg.Security.Debug, opts.Requests)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		roots: Roots(cfg),
		debug: cfg.Security.Debug,
		procs: procs,
		funcs: funcMap(cfg, opts.Forms),
		log:   log,
		sets:  cache.New[string, *template.Template](512),
	}
	if err := e.reload(); err != nil {
		return nil, err
	}
	log.Infow("templates loaded", "roots", len(e.roots), "templates", len(e.index))
	return e, nil
}

// reload rebuilds the index and shared set and drops cached pages.
func (e *Engine) reload() error {
	index := map[string]string{}
	// Walk lowest precedence first so earlier roots overwrite later ones.
	for i := len(e.roots) - 1; i >= 0; i-- {
		files, err := collectHTML(e.roots[i])
		if err != nil {
			return fmt.Errorf("walk %s: %w", e.roots[i], err)
		}
		for name, path := range files {
			index[name] = path
		}
	}

	shared := template.New("").Funcs(e.funcs)
	for _, name := range sortedKeys(index) {
		if !isShared(name) {
			continue
		}
		if err := parseInto(shared, name, index[name]); err != nil {
			return err
		}
	}

	e.mu.Lock()
	e.index = index
	e.shared = shared
	e.mu.Unlock()
	e.sets.Purge()
	return nil
}

func parseInto(t *template.Template, name, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template %s: %w", name, err)
	}
	if _, err := t.New(name).Parse(string(b)); err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	return nil
}

// Lookup returns the file a name resolves to.
func (e *Engine) Lookup(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.index[name]
	return p, ok
}

// page returns the parsed set that can execute name.
func (e *Engine) page(name string) (*template.Template, error) {
	if !e.debug {
		if t, ok := e.sets.Get(name); ok {
			return t, nil
		}
	} else if err := e.reload(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	path, ok := e.index[name]
	shared := e.shared
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	t, err := shared.Clone()
	if err != nil {
		return nil, err
	}
	if !isShared(name) {
		if err := parseInto(t, name, path); err != nil {
			return nil, err
		}
	}
	if !e.debug {
		e.sets.Add(name, t)
	}
	return t, nil
}

// Context runs every context processor for r and overlays data.
func (e *Engine) Context(r *http.Request, data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+8)
	for _, p := range e.procs {
		p.fn(r, out)
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

// RenderToString executes name with processor data for r.
func (e *Engine) RenderToString(r *http.Request, name string, data map[string]any) (template.HTML, error) {
	t, err := e.page(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, e.Context(r, data)); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Render writes name to w.  The page is rendered to a buffer first so a
// template error still produces a clean 500.
func (e *Engine) Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	html, err := e.RenderToString(r, name, data)
	if err != nil {
		e.log.Errorw("template render failed", "template", name, "err", err)
		code := http.StatusInternalServerError
		if errors.Is(err, ErrNotFound) && e.debug {
			http.Error(w, err.Error(), code)
			return
		}
		http.Error(w, http.StatusText(code), code)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}
