// Package passwords implements the password validators a new account must
// pass: similarity to the user's own attributes, a minimum length, a
// common-password blocklist, and a numeric-only check.
//
// Validate runs every configured validator and reports every failure, so a
// signup form can show them all at once.
package passwords

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/yanizio/ecomm/internal/config"
)

//go:embed common-passwords.txt
var commonList []byte

// Error is one validation failure.  Code is stable for callers; Message is
// shown to the user.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Attributes are the user's profile values, keyed by field name
// ("username", "first_name", "last_name", "email").
type Attributes map[string]string

// Validator checks one password rule.
type Validator interface {
	Validate(password string, user Attributes) error
	HelpText() string
}

// ErrUnknownValidator is returned for a configured name with no implementation.
var ErrUnknownValidator = errors.New("unknown password validator")

// FromConfig builds the validators p names, in order.  The common-password
// list comes from p.CommonListPath when set.
func FromConfig(p config.Passwords) ([]Validator, error) {
	out := make([]Validator, 0, len(p.Validators))
	for _, name := range p.Validators {
		switch name {
		case "user_attribute_similarity":
			out = append(out, Similarity{Fields: p.UserAttributeFields, MaxSimilarity: p.MaxSimilarity})
		case "minimum_length":
			out = append(out, MinimumLength{Min: p.MinLength})
		case "common_password":
			if p.CommonListPath == "" {
				out = append(out, DefaultCommon())
				continue
			}
			c, err := LoadCommon(p.CommonListPath)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		case "numeric_password":
			out = append(out, Numeric{})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownValidator, name)
		}
	}
	return out, nil
}

// Validate runs every validator and joins the failures.  nil means the
// password is acceptable.
func Validate(password string, user Attributes, vs []Validator) error {
	var errs []error
	for _, v := range vs {
		if err := v.Validate(password, user); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Messages flattens a Validate error into user-facing strings.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var out []string
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

// HelpTexts lists each validator's hint, for rendering under the field.
func HelpTexts(vs []Validator) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.HelpText())
	}
	return out
}

//
// Similarity
//

var verboseNames = map[string]string{
	"username":   "username",
	"first_name": "first name",
	"last_name":  "last name",
	"email":      "email address",
}

var nonWord = regexp.MustCompile(`\W+`)

// Similarity rejects passwords too close to a user attribute or to any word
// inside it.
type Similarity struct {
	Fields        []string
	MaxSimilarity float64
}

func (s Similarity) Validate(password string, user Attributes) error {
	if len(user) == 0 {
		return nil
	}
	pw := strings.ToLower(password)
	for _, field := range s.Fields {
		value := user[field]
		if value == "" {
			continue
		}
		lower := strings.ToLower(value)
		parts := append(nonWord.Split(lower, -1), lower)
		for _, part := range parts {
			if part == "" || exceedsLengthRatio(pw, s.MaxSimilarity, part) {
				continue
			}
			if quickRatio(pw, part) >= s.MaxSimilarity {
				name := verboseNames[field]
				if name == "" {
					name = strings.ReplaceAll(field, "_", " ")
				}
				return &Error{Code: "password_too_similar", Message: "The password is too similar to the " + name + "."}
			}
		}
	}
	return nil
}

func (Similarity) HelpText() string {
	return "Your password can't be too similar to your other personal information."
}

// exceedsLengthRatio skips values so much shorter than the password that
// they cannot reach the threshold.
func exceedsLengthRatio(password string, maxSimilarity float64, value string) bool {
	pwLen := len([]rune(password))
	valLen := len([]rune(value))
	bound := maxSimilarity / 2 * float64(pwLen)
	return pwLen >= 10*valLen && float64(valLen) < bound
}

// quickRatio is an upper bound on sequence similarity: twice the size of
// the character multiset intersection over the combined length.
func quickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}
	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}

//
// Minimum length
//

// MinimumLength rejects passwords shorter than Min characters.
type MinimumLength struct{ Min int }

func (m MinimumLength) Validate(password string, _ Attributes) error {
	if len([]rune(password)) < m.Min {
		return &Error{
			Code:    "password_too_short",
			Message: fmt.Sprintf("This password is too short. It must contain at least %d %s.", m.Min, plural(m.Min)),
		}
	}
	return nil
}

func (m MinimumLength) HelpText() string {
	return fmt.Sprintf("Your password must contain at least %d %s.", m.Min, plural(m.Min))
}

func plural(n int) string {
	if n == 1 {
		return "character"
	}
	return "characters"
}

//
// Common passwords
//

// Common rejects passwords on a blocklist, compared case-insensitively.
type Common struct{ list map[string]struct{} }

// DefaultCommon uses the built-in list.
func DefaultCommon() Common { return newCommon(commonList) }

// LoadCommon reads a newline-separated list from path.
func LoadCommon(path string) (Common, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Common{}, fmt.Errorf("read password list: %w", err)
	}
	return newCommon(b), nil
}

func newCommon(b []byte) Common {
	list := map[string]struct{}{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if w := strings.ToLower(strings.TrimSpace(sc.Text())); w != "" {
			list[w] = struct{}{}
		}
	}
	return Common{list: list}
}

// Len reports the list size.
func (c Common) Len() int { return len(c.list) }

func (c Common) Validate(password string, _ Attributes) error {
	if _, ok := c.list[strings.ToLower(strings.TrimSpace(password))]; ok {
		return &Error{Code: "password_too_common", Message: "This password is too common."}
	}
	return nil
}

func (Common) HelpText() string { return "Your password can't be a commonly used password." }

//
// Numeric
//

// Numeric rejects passwords made only of digits.
type Numeric struct{}

func (Numeric) Validate(password string, _ Attributes) error {
	if password == "" {
		return nil
	}
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return nil
		}
	}
	return &Error{Code: "password_entirely_numeric", Message: "This password is entirely numeric."}
}

func (Numeric) HelpText() string { return "Your password can't be entirely numeric." }
