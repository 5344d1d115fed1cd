// internal/middleware/static.go
//
// Static and media file stage.
//
// Context
// -------
// Requests under STATIC_URL are answered from the collection root.  In debug
// the source dirs are searched first, so edits show up without a collect
// step.  Media under MEDIA_URL is served only in debug; production puts a
// CDN or object store in front of uploads.
//
// Misses fall through to the next stage.  Collected files may ship with a
// pre-compressed `.gz` sibling, which is preferred when the client accepts
// gzip.  Names carrying a content hash (`app.3f2a9c1b7d4e.css`) are cached
// for a year and marked immutable.
//
// Notes
// -----
//   • http.Dir confines lookups to each root.
//   • Oxford commas, two spaces after periods.

package middleware

import (
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/yanizio/ecomm/internal/config"
)

var hashedName = regexp.MustCompile(`\.[0-9a-f]{8,32}\.[A-Za-z0-9]+$`)

const (
	cacheImmutable = "public, max-age=31536000, immutable"
	cacheShort     = "public, max-age=60"
)

// Static serves collected assets and, in debug, media uploads.
func Static(st config.Static, media config.Media, debug bool) func(http.Handler) http.Handler {
	staticRoots := []string{st.Root}
	if debug {
		staticRoots = append(append([]string(nil), st.Dirs...), st.Root)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			if rel, ok := strings.CutPrefix(r.URL.Path, st.URL); ok {
				if serveFrom(w, r, staticRoots, rel, !debug) {
					return
				}
			} else if debug {
				if rel, ok := strings.CutPrefix(r.URL.Path, media.URL); ok {
					if serveFrom(w, r, []string{media.Root}, rel, false) {
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// serveFrom tries each root in order and reports whether it answered.
func serveFrom(w http.ResponseWriter, r *http.Request, roots []string, rel string, cache bool) bool {
	rel = path.Clean("/" + rel)
	if rel == "/" {
		return false
	}

	gzipOK := strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")

	for _, root := range roots {
		dir := http.Dir(root)

		if gzipOK {
			if f, err := dir.Open(rel + ".gz"); err == nil {
				fi, err := f.Stat()
				if err == nil && !fi.IsDir() {
					h := w.Header()
					h.Set("Content-Encoding", "gzip")
					h.Add("Vary", "Accept-Encoding")
					setContentType(h, rel)
					setCache(h, rel, cache)
					http.ServeContent(w, r, rel, fi.ModTime(), f)
					f.Close()
					return true
				}
				f.Close()
			}
		}

		f, err := dir.Open(rel)
		if err != nil {
			continue
		}
		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			f.Close()
			continue
		}
		setCache(w.Header(), rel, cache)
		http.ServeContent(w, r, rel, fi.ModTime(), f)
		f.Close()
		return true
	}
	return false
}

func setCache(h http.Header, name string, cache bool) {
	switch {
	case !cache:
		h.Set("Cache-Control", "no-cache")
	case hashedName.MatchString(name):
		h.Set("Cache-Control", cacheImmutable)
	default:
		h.Set("Cache-Control", cacheShort)
	}
}

// setContentType keeps the original type when the body is a .gz sibling.
func setContentType(h http.Header, name string) {
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
}
