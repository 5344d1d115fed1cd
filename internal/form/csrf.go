// internal/form/csrf.go
//
// ecomm – Forms subsystem: session-bound CSRF token utilities.
//
// Context
//   Rendered forms embed a hidden `csrfmiddlewaretoken` input generated at
//   render time.  The csrf stage verifies it on every unsafe method.  Each
//   session carries a random secret (see NewSecret) and every token is
//   bound to it:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, secret+nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – keyed by a value derived from SECRET_KEY.
//
//   A token minted for one session never verifies against another
//   session's secret, so a token scraped by a third party is useless in a
//   victim's browser.  Verification also checks the age against MaxAge.
//
// Workflow
//   •  c.NewSecret()            → per-session secret, stored in the session.
//   •  c.Generate(secret)       → token string for the renderer.
//   •  c.Verify(tok, secret)    → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"
)

const (
	tokenBytes  = 16 + 8 + sha256.Size // nonce + ts + sig
	secretBytes = 32

	// FieldName is the hidden input name forms post back.
	FieldName = "csrfmiddlewaretoken"
	// HeaderName carries the token for XHR requests.
	HeaderName = "X-CSRFToken"
)

// ErrNoSecret is returned when a token is requested without a session secret.
var ErrNoSecret = errors.New("form: csrf secret missing")

// CSRF mints and verifies tokens.  Safe for concurrent use.
type CSRF struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCSRF derives the HMAC key from secret.
func NewCSRF(secret string, maxAge time.Duration) *CSRF {
	sum := sha256.Sum256([]byte("ecomm.csrf:" + secret))
	return &CSRF{key: sum[:], maxAge: maxAge, now: time.Now}
}

// NewSecret returns a fresh random per-session secret.
func (c *CSRF) NewSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Generate creates a new token bound to secret.  Call once per form render.
func (c *CSRF) Generate(secret string) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(c.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, c.mac(secret, nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok was minted for secret and is not too old.
func (c *CSRF) Verify(tok, secret string) bool {
	if secret == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	// Timestamp window check.
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := c.now()
	if now.Sub(issued) > c.maxAge || issued.Sub(now) > time.Minute {
		// Future timestamp (clock skew) or older than maxAge.
		return false
	}

	return hmac.Equal(sig, c.mac(secret, nonce, tsBytes))
}

func (c *CSRF) mac(secret string, nonce, ts []byte) []byte {
	m := hmac.New(sha256.New, c.key)
	m.Write([]byte(secret))
	m.Write([]byte{0})
	m.Write(nonce)
	m.Write(ts)
	return m.Sum(nil)
}
