package form

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFVerify(t *testing.T) {
	c := NewCSRF("secret", time.Hour)
	sess, err := c.NewSecret()
	require.NoError(t, err)

	tok, err := c.Generate(sess)
	require.NoError(t, err)
	assert.True(t, c.Verify(tok, sess))

	assert.False(t, NewCSRF("other", time.Hour).Verify(tok, sess))
	assert.False(t, c.Verify("", sess))
	assert.False(t, c.Verify("not-base64!", sess))
	assert.False(t, c.Verify(tamper(tok, len(tok)-10), sess))
	assert.False(t, c.Verify(tok, ""))
}

func TestCSRFBoundToSessionSecret(t *testing.T) {
	c := NewCSRF("secret", time.Hour)
	mine, err := c.NewSecret()
	require.NoError(t, err)
	theirs, err := c.NewSecret()
	require.NoError(t, err)
	assert.NotEqual(t, mine, theirs)

	tok, err := c.Generate(theirs)
	require.NoError(t, err)
	assert.False(t, c.Verify(tok, mine))

	_, err = c.Generate("")
	assert.ErrorIs(t, err, ErrNoSecret)
}

// tamper flips one character inside the signature.
func tamper(tok string, i int) string {
	b := []byte(tok)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestCSRFExpiry(t *testing.T) {
	c := NewCSRF("secret", time.Minute)
	start := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return start }

	tok, err := c.Generate("s")
	require.NoError(t, err)
	assert.True(t, c.Verify(tok, "s"))

	c.now = func() time.Time { return start.Add(2 * time.Minute) }
	assert.False(t, c.Verify(tok, "s"))

	c.now = func() time.Time { return start.Add(-2 * time.Minute) }
	assert.False(t, c.Verify(tok, "s"), "future-dated tokens are rejected")
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer("bootstrap4", []string{"bootstrap4"})
	require.NoError(t, err)
	assert.Equal(t, PackBootstrap4, r.Pack())

	_, err = NewRenderer("bootstrap4", []string{"tailwind"})
	assert.ErrorIs(t, err, ErrPackNotAllowed)

	_, err = NewRenderer("tailwind", []string{"tailwind"})
	assert.ErrorIs(t, err, ErrPackUnknown)
}

func TestRender(t *testing.T) {
	r, err := NewRenderer("bootstrap4", []string{"bootstrap4"})
	require.NoError(t, err)

	out := string(r.Render([]Field{
		{Name: "email", Label: "Email", Type: "email", Value: "a@b.c", Required: true},
		{Name: "password", Label: "Password", Type: "password", Value: "hunter2",
			Errors: []string{"This password is too short."}},
		{Name: "country", Label: "Country", Type: "select", Value: "NZ", Options: []string{"AU", "NZ"}},
		{Name: "remember", Label: "Remember me", Type: "checkbox", Value: "on"},
		{Name: "next", Type: "hidden", Value: "/cart/"},
	}, "tok<en>"))

	assert.Contains(t, out, `<div id="div_id_email" class="form-group">`)
	assert.Contains(t, out, `type="email" class="form-control" name="email" id="id_email" value="a@b.c" required>`)
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, `class="form-control is-invalid" name="password"`)
	assert.Contains(t, out, `<div class="invalid-feedback"><strong>This password is too short.</strong></div>`)
	assert.Contains(t, out, `<option value="NZ" selected>NZ</option>`)
	assert.Contains(t, out, `class="form-check-input" name="remember" id="id_remember" checked>`)
	assert.Contains(t, out, `<input type="hidden" name="next" id="id_next" value="/cart/">`)
	assert.True(t, strings.HasSuffix(out, `<input type="hidden" name="csrfmiddlewaretoken" value="tok&lt;en&gt;">`+"\n"))
}
