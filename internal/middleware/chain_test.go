// internal/middleware/chain_test.go
//
// End-to-end tests for the composed pipeline.  Each test loads settings from
// an empty temp base dir, builds the chain, and drives it with httptest.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/auth"
	"github.com/yanizio/ecomm/internal/config"
	"github.com/yanizio/ecomm/internal/form"
	"github.com/yanizio/ecomm/internal/message"
	"github.com/yanizio/ecomm/internal/session"
)

func testConfig(t *testing.T, debug bool) *config.Config {
	t.Helper()
	for _, k := range []string{"SECRET_KEY", "DEBUG", "DATABASE_URL", "ECOMM_BASE_DIR", "ECOMM_HOSTS__EXTRA"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("SECRET_KEY", "test-secret")
	if debug {
		t.Setenv("DEBUG", "true")
	}
	cfg, err := config.Load(config.Options{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return cfg
}

func buildChain(t *testing.T, cfg *config.Config, h http.Handler) (http.Handler, Deps) {
	t.Helper()
	d := NewDeps(cfg, zap.NewNop().Sugar())
	wrap, err := Build(d)
	require.NoError(t, err)
	return wrap(h), d
}

func get(h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = "localhost:8000"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "sessionid" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestChain_SecurityHeaders(t *testing.T) {
	cfg := testConfig(t, false)
	h, _ := buildChain(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	rr := get(h, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}

func TestChain_SecurityHeadersOnPanic(t *testing.T) {
	cfg := testConfig(t, true)
	h, _ := buildChain(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := get(h, "/")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"), "no HSTS in debug")
}

func TestChain_DisallowedHost(t *testing.T) {
	cfg := testConfig(t, false)
	h, _ := buildChain(t, cfg, http.NotFoundHandler())

	for host, want := range map[string]int{
		"evil.example":        http.StatusBadRequest,
		"ecomm.onrender.com":  http.StatusNotFound,
		"127.0.0.1:8000":      http.StatusNotFound,
		"render.com.evil.net": http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Code, host)
		assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"), host)
	}
}

func TestChain_CSRF(t *testing.T) {
	cfg := testConfig(t, false)
	var minted string
	h, d := buildChain(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		minted = CSRFToken(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := get(h, "/cart/")
	require.Equal(t, http.StatusNoContent, rr.Code)
	mine, myTok := sessionCookie(t, rr), minted
	require.NotEmpty(t, myTok)

	values, err := d.Sessions.Decode(mine.Value)
	require.NoError(t, err)
	assert.True(t, d.CSRF.Verify(myTok, values[session.KeyCSRFSecret]))

	rr = get(h, "/cart/")
	theirs, theirTok := sessionCookie(t, rr), minted

	post := func(body url.Values, header string, c *http.Cookie, extra http.Header) int {
		req := httptest.NewRequest(http.MethodPost, "/cart/add/", strings.NewReader(body.Encode()))
		req.Host = "localhost"
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			req.Header.Set(form.HeaderName, header)
		}
		for k, v := range extra {
			req.Header[k] = v
		}
		if c != nil {
			req.AddCookie(c)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusForbidden, post(url.Values{"qty": {"1"}}, "", mine, nil))
	assert.Equal(t, http.StatusForbidden, post(url.Values{form.FieldName: {"forged"}}, "", mine, nil))
	assert.Equal(t, http.StatusNoContent, post(url.Values{form.FieldName: {myTok}}, "", mine, nil))
	assert.Equal(t, http.StatusNoContent, post(nil, myTok, mine, nil))
	assert.Equal(t, http.StatusNoContent, post(nil, theirTok, theirs, nil))

	// A token lifted from another visitor's page is useless.
	assert.Equal(t, http.StatusForbidden, post(url.Values{form.FieldName: {theirTok}}, "", mine, nil))
	assert.Equal(t, http.StatusForbidden, post(nil, myTok, nil, nil))

	https := http.Header{"X-Forwarded-Proto": {"https"}}
	assert.Equal(t, http.StatusForbidden, post(nil, myTok, mine, https))

	sameSite := http.Header{"X-Forwarded-Proto": {"https"}, "Origin": {"https://localhost"}}
	assert.Equal(t, http.StatusNoContent, post(nil, myTok, mine, sameSite))

	viaReferer := http.Header{"X-Forwarded-Proto": {"https"}, "Referer": {"https://localhost/cart/"}}
	assert.Equal(t, http.StatusNoContent, post(nil, myTok, mine, viaReferer))

	crossSite := http.Header{"X-Forwarded-Proto": {"https"}, "Origin": {"https://evil.example"}}
	assert.Equal(t, http.StatusForbidden, post(nil, myTok, mine, crossSite))
}

func TestLoginRotatesCSRFSecret(t *testing.T) {
	s := session.New(map[string]string{session.KeyCSRFSecret: "before"})
	session.LoginUser(s, 1, true)
	_, ok := s.Get(session.KeyCSRFSecret)
	assert.False(t, ok)
}

func TestChain_SessionAuthAccount(t *testing.T) {
	cfg := testConfig(t, false)

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		session.LoginUser(session.FromContext(r.Context()), 42, false)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/accounts/confirm", func(w http.ResponseWriter, r *http.Request) {
		session.FromContext(r.Context()).Set(session.KeyVerified, "true")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("X-User", strconv.FormatInt(u.ID, 10))
		w.WriteHeader(http.StatusOK)
	})
	h, _ := buildChain(t, cfg, mux)

	assert.Equal(t, http.StatusUnauthorized, get(h, "/cart/").Code)

	login := get(h, "/login")
	require.Equal(t, http.StatusOK, login.Code)
	c := sessionCookie(t, login)
	assert.True(t, c.HttpOnly)

	rr := get(h, "/cart/", c)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/accounts/confirm-email/", rr.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, get(h, "/static/missing.css", c).Code)

	confirmed := get(h, "/accounts/confirm", c)
	require.Equal(t, http.StatusOK, confirmed.Code)
	c = sessionCookie(t, confirmed)

	rr = get(h, "/cart/", c)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42", rr.Header().Get("X-User"))

	tampered := *c
	tampered.Value = "x" + c.Value
	assert.Equal(t, http.StatusUnauthorized, get(h, "/cart/", &tampered).Code)
}

func TestChain_Messages(t *testing.T) {
	cfg := testConfig(t, false)

	var got []message.Message
	mux := http.NewServeMux()
	mux.HandleFunc("/add", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, message.FromContext(r.Context()).Add(message.Success, "Added."))
		http.Redirect(w, r, "/show", http.StatusFound)
	})
	mux.HandleFunc("/show", func(w http.ResponseWriter, r *http.Request) {
		got = message.FromContext(r.Context()).Consume()
		w.WriteHeader(http.StatusOK)
	})
	h, _ := buildChain(t, cfg, mux)

	add := get(h, "/add")
	require.Equal(t, http.StatusFound, add.Code)

	get(h, "/show", sessionCookie(t, add))
	assert.Equal(t, []message.Message{{Level: message.Success, Text: "Added."}}, got)
}

func TestBuild_RejectsBadOrder(t *testing.T) {
	cfg := testConfig(t, false)
	bad := *cfg
	bad.Middleware = config.NewPipeline("auth", "session")

	_, err := Build(NewDeps(&bad, zap.NewNop().Sugar()))
	assert.ErrorIs(t, err, ErrOrder)

	bad.Middleware = config.NewPipeline("security", "gzip")
	_, err = Build(NewDeps(&bad, zap.NewNop().Sugar()))
	assert.ErrorIs(t, err, ErrUnknownStage)
}
