// internal/config/defaults.go
//
// Compiled-in fallbacks.
//
// Context
// -------
// Two kinds of defaults live here:
//
//   • Overridable ones feed the lowest koanf layer (see defaultLayer), so a
//     YAML file, .env, or the environment can replace them.
//   • Fixed ones (installed apps, middleware order, template backend,
//     password validators, static and media layout) are plain Go values.
//     Changing them is a code change, reviewed like one.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import "time"

// defaultLayer returns a fresh map on every call so loads never share state.
func defaultLayer() map[string]any {
	return map[string]any{
		"secret_key":        PlaceholderSecretKey,
		"debug":             "false",
		"http.listen_addr":  ":8000",
		"http.metrics_addr": "",
		"hosts.extra":       []string{".render.com", ".onrender.com"},
		"geoip.path":        "",
		"vault.cache_ttl":   "5m",
		"log.level":         "info",

		"passwords.common_list": "",
	}
}

// installedApps is the activation order.  Framework modules first, then
// site apps, then sites and the account stack, then form helpers.
var installedApps = []string{
	"admin",
	"auth",
	"contenttypes",
	"sessions",
	"messages",
	"staticfiles",

	"products",
	"accounts",
	"home",

	"sites",
	"account",
	"socialaccount",

	"crispy_forms",
	"crispy_bootstrap4",
	"countries",
}

// middlewareStages is the request pipeline, outermost first.
var middlewareStages = []string{
	"security",
	"static",
	"session",
	"common",
	"csrf",
	"auth",
	"messages",
	"clickjacking",
	"account",
}

var contextProcessors = []string{"debug", "request", "auth", "messages"}

var passwordValidators = []string{
	"user_attribute_similarity",
	"minimum_length",
	"common_password",
	"numeric_password",
}

const (
	appName          = "ecomm"
	siteID           = 1
	defaultAutoField = "bigint"

	staticURL     = "/static/"
	mediaURL      = "/media/"
	staticStorage = "compressed_manifest"

	sessionCookieAge = 14 * 24 * time.Hour
	csrfTokenMaxAge  = 2 * time.Hour
)
