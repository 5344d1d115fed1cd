// internal/config/validator.go
//
// Thin wrapper around go-playground/validator plus the cross-field checks
// that tags cannot express.
//
// Context
// -------
// `Load` calls validateConfig after building the typed model.  Any failure
// aborts startup, so the binary never runs with partial or colliding
// settings.
//
// Cross-field rules:
//   • Static source dirs and the static collection root must not be equal
//     or nested inside each other.
//   • The media root must not collide with the static collection root or
//     any static source dir.
//   • The middleware pipeline must not be empty.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

// ErrPathCollision is returned when two asset roots overlap.
var ErrPathCollision = errors.New("asset path collision")

//
// public API
//

func validateConfig(c *Config) error {
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if c.Middleware.Len() == 0 {
		return errors.New("config validation: middleware pipeline is empty")
	}
	for _, d := range c.Static.Dirs {
		if overlaps(d, c.Static.Root) {
			return fmt.Errorf("%w: static dir %s and static root %s", ErrPathCollision, d, c.Static.Root)
		}
		if overlaps(d, c.Media.Root) {
			return fmt.Errorf("%w: static dir %s and media root %s", ErrPathCollision, d, c.Media.Root)
		}
	}
	if overlaps(c.Static.Root, c.Media.Root) {
		return fmt.Errorf("%w: static root and media root %s", ErrPathCollision, c.Media.Root)
	}
	return nil
}

// overlaps reports whether a equals b or one contains the other.
func overlaps(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if a == b {
		return true
	}
	return within(a, b) || within(b, a)
}

func within(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
