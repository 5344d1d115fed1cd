package passwords

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/ecomm/internal/config"
)

func defaults() config.Passwords {
	return config.Passwords{
		Validators:          []string{"user_attribute_similarity", "minimum_length", "common_password", "numeric_password"},
		MinLength:           8,
		MaxSimilarity:       0.7,
		UserAttributeFields: []string{"username", "first_name", "last_name", "email"},
	}
}

func codes(err error) []string {
	var out []string
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			var pe *Error
			if errors.As(e, &pe) {
				out = append(out, pe.Code)
			}
		}
	}
	return out
}

func TestValidate(t *testing.T) {
	vs, err := FromConfig(defaults())
	require.NoError(t, err)
	require.Len(t, vs, 4)

	user := Attributes{"username": "sneakerhead", "first_name": "Ada", "email": "ada.lovelace@example.com"}

	tests := []struct {
		password string
		want     []string
	}{
		{"correct horse battery", nil},
		{"1234", []string{"password_too_short", "password_too_common", "password_entirely_numeric"}},
		{"58204719", []string{"password_entirely_numeric"}},
		{"Password1", []string{"password_too_common"}},
		{"SneakerHead", []string{"password_too_similar"}},
		{"lovelace1", []string{"password_too_similar"}},
		{"short", []string{"password_too_short"}},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := Validate(tt.password, user, vs)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, codes(err))
		})
	}
}

func TestMessages(t *testing.T) {
	vs, err := FromConfig(defaults())
	require.NoError(t, err)

	msgs := Messages(Validate("1234", nil, vs))
	assert.Equal(t, []string{
		"This password is too short. It must contain at least 8 characters.",
		"This password is too common.",
		"This password is entirely numeric.",
	}, msgs)
	assert.Nil(t, Messages(nil))
	assert.Len(t, HelpTexts(vs), 4)
}

func TestSimilarityMessageUsesVerboseName(t *testing.T) {
	s := Similarity{Fields: []string{"email"}, MaxSimilarity: 0.7}
	err := s.Validate("ada@example.com", Attributes{"email": "ada@example.com"})
	require.Error(t, err)
	assert.Equal(t, "The password is too similar to the email address.", err.Error())
}

func TestSimilaritySkipsShortAttributes(t *testing.T) {
	// "al" is far shorter than the password and cannot reach the threshold.
	s := Similarity{Fields: []string{"first_name"}, MaxSimilarity: 0.7}
	assert.NoError(t, s.Validate("a long and winding passphrase", Attributes{"first_name": "Al"}))
}

func TestQuickRatio(t *testing.T) {
	assert.InDelta(t, 1.0, quickRatio("abc", "cba"), 1e-9)
	assert.InDelta(t, 0.0, quickRatio("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.5, quickRatio("ab", "ax"), 1e-9)
}

func TestFromConfigUnknown(t *testing.T) {
	p := defaults()
	p.Validators = append(p.Validators, "entropy")
	_, err := FromConfig(p)
	assert.ErrorIs(t, err, ErrUnknownValidator)
}

func TestLoadCommon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hunter2\n\n  sneakers \n"), 0o644))

	c, err := LoadCommon(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Error(t, c.Validate("HUNTER2", nil))
	assert.NoError(t, c.Validate("hunter3", nil))

	_, err = LoadCommon(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	assert.Greater(t, DefaultCommon().Len(), 200)
}

func TestMinimumLengthSingular(t *testing.T) {
	assert.Equal(t, "Your password must contain at least 1 character.", MinimumLength{Min: 1}.HelpText())
}

func TestFromConfigCommonListOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "common.txt")
	require.NoError(t, os.WriteFile(path, []byte("zebra-staple-42\n"), 0o644))

	p := defaults()
	p.Validators = []string{"common_password"}
	p.CommonListPath = path
	vs, err := FromConfig(p)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Error(t, Validate("zebra-staple-42", nil, vs))
	assert.NoError(t, Validate("password", nil, vs), "the override replaces the built-in list")

	p.CommonListPath = filepath.Join(t.TempDir(), "missing.txt")
	_, err = FromConfig(p)
	assert.Error(t, err)
}
