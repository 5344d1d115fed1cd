package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBool is returned when a flag value is not one of the accepted
// textual forms.  Loading fails closed instead of guessing.
var ErrInvalidBool = errors.New("invalid boolean")

var boolForms = map[string]bool{
	"1": true, "yes": true, "y": true, "true": true, "on": true,
	"0": false, "no": false, "n": false, "false": false, "off": false, "": false,
}

// ParseBool maps the accepted textual forms, case-insensitively and ignoring
// surrounding space, to a bool.
func ParseBool(s string) (bool, error) {
	v, ok := boolForms[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrInvalidBool, s)
	}
	return v, nil
}
