// internal/session/session.go
//
// ecomm – signed-cookie sessions.
//
// Context
//   The session stage stores a small string map in one cookie.  The cookie
//   value is
//
//      base64url(json(values)) "." base64url(unixSeconds) "." base64url(HMAC)
//
//   where the HMAC-SHA256 key is derived from SECRET_KEY.  Values are signed,
//   not encrypted, so nothing secret belongs in a session.  Expiry is checked
//   against the embedded timestamp.
//
//   Handlers reach the per-request *Session through FromContext.  The session
//   middleware (internal/middleware) decodes the cookie on the way in and
//   writes it back before the response headers go out when Modified() is
//   true.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Reserved keys used by the auth, account, and csrf stages.
const (
	KeyUserID     = "_auth_user_id"
	KeyVerified   = "_auth_user_verified"
	KeyCSRFSecret = "_csrf_secret"
)

var (
	ErrMalformed = errors.New("session: malformed cookie")
	ErrSignature = errors.New("session: bad signature")
	ErrExpired   = errors.New("session: expired")
)

//
// Session
//

// Session is one request's view of the cookie payload.  Safe for concurrent
// use by handlers that fan out.
type Session struct {
	mu       sync.RWMutex
	values   map[string]string
	modified bool
}

// New wraps values, which may be nil.
func New(values map[string]string) *Session {
	if values == nil {
		values = make(map[string]string)
	}
	return &Session{values: values}
}

func (s *Session) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Session) Set(key, val string) {
	s.mu.Lock()
	s.values[key] = val
	s.modified = true
	s.mu.Unlock()
}

func (s *Session) Delete(key string) {
	s.mu.Lock()
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.modified = true
	}
	s.mu.Unlock()
}

// Clear drops every value, e.g. on logout.
func (s *Session) Clear() {
	s.mu.Lock()
	if len(s.values) > 0 {
		s.values = make(map[string]string)
		s.modified = true
	}
	s.mu.Unlock()
}

// Modified reports whether the cookie must be rewritten.
func (s *Session) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// Len reports the number of stored values.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Values returns a copy of the payload.
func (s *Session) Values() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

//
// Login helpers
//

// LoginUser records an authenticated user.  Callers invoke this after
// credential verification succeeds.  The CSRF secret is rotated so tokens
// issued before login stop working.
func LoginUser(s *Session, userID int64, emailVerified bool) {
	s.Delete(KeyCSRFSecret)
	s.Set(KeyUserID, strconv.FormatInt(userID, 10))
	s.Set(KeyVerified, strconv.FormatBool(emailVerified))
}

// LogoutUser clears the whole session.
func LogoutUser(s *Session) { s.Clear() }

//
// Codec
//

// Codec signs and verifies cookie values.
type Codec struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCodec derives the signing key from secret.  The derivation salt keeps
// session signatures distinct from CSRF tokens made from the same secret.
func NewCodec(secret string, maxAge time.Duration) *Codec {
	sum := sha256.Sum256([]byte("ecomm.session:" + secret))
	return &Codec{key: sum[:], maxAge: maxAge, now: time.Now}
}

// MaxAge is the cookie lifetime.
func (c *Codec) MaxAge() time.Duration { return c.maxAge }

var b64 = base64.RawURLEncoding

// Encode returns the signed cookie value for values.
func (c *Codec) Encode(values map[string]string) (string, error) {
	payload, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	p := b64.EncodeToString(payload)
	ts := b64.EncodeToString([]byte(strconv.FormatInt(c.now().Unix(), 10)))
	return p + "." + ts + "." + b64.EncodeToString(c.sign(p, ts)), nil
}

// Decode verifies raw and returns its values.
func (c *Codec) Decode(raw string) (map[string]string, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}
	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, ErrMalformed
	}
	if !hmac.Equal(sig, c.sign(parts[0], parts[1])) {
		return nil, ErrSignature
	}

	tsRaw, err := b64.DecodeString(parts[1])
	if err != nil {
		return nil, ErrMalformed
	}
	ts, err := strconv.ParseInt(string(tsRaw), 10, 64)
	if err != nil {
		return nil, ErrMalformed
	}
	if c.now().Sub(time.Unix(ts, 0)) > c.maxAge {
		return nil, ErrExpired
	}

	payload, err := b64.DecodeString(parts[0])
	if err != nil {
		return nil, ErrMalformed
	}
	var values map[string]string
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, ErrMalformed
	}
	return values, nil
}

func (c *Codec) sign(payload, ts string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(payload))
	mac.Write([]byte{'.'})
	mac.Write([]byte(ts))
	return mac.Sum(nil)
}

//
// Context plumbing
//

type ctxKey struct{}

// WithSession returns ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by the session stage, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
