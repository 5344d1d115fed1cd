package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostsAllows(t *testing.T) {
	h := NewHosts(".render.com", "shop.example.com", "SHOP.example.com", "")

	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"localhost:8000", true},
		{"127.0.0.1:8000", true},
		{"render.com", true},
		{"ecomm.render.com", true},
		{"a.b.render.com", true},
		{"evilrender.com", false},
		{"shop.example.com", true},
		{"Shop.Example.Com.", true},
		{"example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.Allows(tt.host), "host %q", tt.host)
	}

	assert.Equal(t, []string{"127.0.0.1", "localhost", ".render.com", "shop.example.com"}, h.List())
}

func TestHostsWildcard(t *testing.T) {
	assert.True(t, NewHosts("*").Allows("anything.test"))
}

func TestHostsListIsCopy(t *testing.T) {
	h := NewHosts()
	l := h.List()
	l[0] = "mutated"
	assert.Equal(t, "127.0.0.1", h.List()[0])
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "yes", "Y", "TRUE", " on "} {
		got, err := ParseBool(s)
		assert.NoError(t, err, s)
		assert.True(t, got, s)
	}
	for _, s := range []string{"0", "no", "n", "False", "OFF", ""} {
		got, err := ParseBool(s)
		assert.NoError(t, err, s)
		assert.False(t, got, s)
	}
	for _, s := range []string{"banana", "2", "enabled", "t"} {
		_, err := ParseBool(s)
		assert.ErrorIs(t, err, ErrInvalidBool, s)
	}
}

func TestOverlaps(t *testing.T) {
	assert.True(t, overlaps("/a/static", "/a/static/"))
	assert.True(t, overlaps("/a/static", "/a/static/collected"))
	assert.True(t, overlaps("/a/static/collected", "/a/static"))
	assert.False(t, overlaps("/a/static", "/a/staticfiles"))
	assert.False(t, overlaps("/a/media", "/a/staticfiles"))
}

func TestValidateConfig_Collision(t *testing.T) {
	cfg, err := build(raw{Debug: "false", SecretKey: "k"}, false, "/srv/app")
	if !assert.NoError(t, err) {
		return
	}
	cfg.HTTP.ListenAddr = ":8000"
	cfg.Log.Level = "info"
	assert.NoError(t, validateConfig(cfg))

	cfg.Static.Root = cfg.Static.Dirs[0] + "/out"
	assert.ErrorIs(t, validateConfig(cfg), ErrPathCollision)
}
