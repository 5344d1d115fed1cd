package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/form"
	"github.com/yanizio/ecomm/internal/session"
)

type csrfKey struct{}

// CSRF rejects unsafe requests whose token, from the form field or the
// X-CSRFToken header, was not minted for the caller's session.  Secure
// requests must also come from the same origin.  Safe methods pass and get
// the minter in their context for templates.
func CSRF(c *form.CSRF, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(context.WithValue(r.Context(), csrfKey{}, c))

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				next.ServeHTTP(w, r)
				return
			}

			if isSecure(r) && !sameOrigin(r) {
				log.Warnw("csrf origin check failed", "path", r.URL.Path,
					"origin", r.Header.Get("Origin"), "referer", r.Referer())
				http.Error(w, "Forbidden (CSRF origin check failed.)", http.StatusForbidden)
				return
			}

			var secret string
			if s := session.FromContext(r.Context()); s != nil {
				secret, _ = s.Get(session.KeyCSRFSecret)
			}
			tok := r.Header.Get(form.HeaderName)
			if tok == "" {
				tok = r.PostFormValue(form.FieldName)
			}
			if !c.Verify(tok, secret) {
				log.Warnw("csrf verification failed", "path", r.URL.Path, "method", r.Method)
				http.Error(w, "Forbidden (CSRF token missing or incorrect.)", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFToken mints a token bound to r's session, creating the session secret
// on first use.  Empty when the csrf or session stage did not run.
func CSRFToken(r *http.Request) string {
	c, ok := r.Context().Value(csrfKey{}).(*form.CSRF)
	if !ok {
		return ""
	}
	s := session.FromContext(r.Context())
	if s == nil {
		return ""
	}
	secret, ok := s.Get(session.KeyCSRFSecret)
	if !ok {
		var err error
		if secret, err = c.NewSecret(); err != nil {
			return ""
		}
		s.Set(session.KeyCSRFSecret, secret)
	}
	tok, err := c.Generate(secret)
	if err != nil {
		return ""
	}
	return tok
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// sameOrigin requires Origin, or failing that Referer, to name r's host over
// https.
func sameOrigin(r *http.Request) bool {
	src := r.Header.Get("Origin")
	if src == "" || src == "null" {
		src = r.Referer()
	}
	if src == "" {
		return false
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return u.Scheme == "https" && strings.EqualFold(u.Host, r.Host)
}
