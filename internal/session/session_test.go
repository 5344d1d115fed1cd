package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	c := NewCodec("secret", time.Hour)

	raw, err := c.Encode(map[string]string{KeyUserID: "42", "cart": "3"})
	require.NoError(t, err)

	got, err := c.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", got[KeyUserID])
	assert.Equal(t, "3", got["cart"])
}

func TestCodecRejectsTampering(t *testing.T) {
	c := NewCodec("secret", time.Hour)
	raw, err := c.Encode(map[string]string{KeyUserID: "1"})
	require.NoError(t, err)

	forged, err := NewCodec("other", time.Hour).Encode(map[string]string{KeyUserID: "1"})
	require.NoError(t, err)
	_, err = c.Decode(forged)
	assert.ErrorIs(t, err, ErrSignature)

	parts := strings.Split(raw, ".")
	parts[0] = b64.EncodeToString([]byte(`{"_auth_user_id":"2"}`))
	_, err = c.Decode(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrSignature)

	_, err = c.Decode("garbage")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCodecExpiry(t *testing.T) {
	c := NewCodec("secret", time.Minute)
	start := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return start }

	raw, err := c.Encode(map[string]string{"a": "b"})
	require.NoError(t, err)

	c.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = c.Decode(raw)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestSessionModified(t *testing.T) {
	s := New(map[string]string{"a": "1"})
	assert.False(t, s.Modified())

	s.Delete("missing")
	assert.False(t, s.Modified())

	LoginUser(s, 7, false)
	assert.True(t, s.Modified())
	v, ok := s.Get(KeyUserID)
	assert.True(t, ok)
	assert.Equal(t, "7", v)

	LogoutUser(s)
	assert.Equal(t, 0, s.Len())
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	s := New(nil)
	assert.Same(t, s, FromContext(WithSession(context.Background(), s)))
}
