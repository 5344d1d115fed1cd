// internal/config/model.go
//
// Typed settings model for ecomm.
//
// Context
// -------
// These structs are the single immutable settings object that
// `internal/config/loader.go` builds at process start.  Callers receive a
// *Config and must treat it as read-only.  Collections that the request path
// consults (hosts, apps, middleware) are wrapped in small types that hand out
// copies, so a handler cannot mutate process-wide state by accident.
//
// Notes
// -----
//   • The `raw` struct in loader.go carries koanf tags.  The types here do not,
//     because nothing unmarshals into them directly.
//   • `Paths` is derived from one base directory plus fixed suffixes.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// Security section
//

// PlaceholderSecretKey is the compiled-in fallback.  It lets the process
// start offline, and Warnings() flags it outside debug mode.
const PlaceholderSecretKey = "your-secret-key"

// Security holds the signing key and debug flag.
type Security struct {
	SecretKey string `validate:"required"`
	Debug     bool
}

// Warnings returns deploy-time concerns.  They are logged, never fatal.
func (s Security) Warnings() []string {
	var out []string
	if s.Debug {
		out = append(out, "DEBUG is on; verbose error pages must not be publicly reachable")
	}
	if s.SecretKey == PlaceholderSecretKey && !s.Debug {
		out = append(out, "SECRET_KEY is the placeholder default; set a real key for production")
	}
	return out
}

//
// Installed apps
//

// Apps is the ordered installed-application list.  Order decides template
// discovery precedence.
type Apps struct{ names []string }

// List returns a copy of the app names in configured order.
func (a Apps) List() []string { return append([]string(nil), a.names...) }

// Has reports whether name is installed.
func (a Apps) Has(name string) bool {
	for _, n := range a.names {
		if n == name {
			return true
		}
	}
	return false
}

//
// Middleware
//

// Pipeline is the ordered middleware stage list.  Ordering rules live in
// internal/middleware, which validates a Pipeline before building handlers.
type Pipeline struct{ stages []string }

// NewPipeline copies stages into a Pipeline.
func NewPipeline(stages ...string) Pipeline {
	return Pipeline{stages: append([]string(nil), stages...)}
}

// List returns a copy of the stage names in configured order.
func (p Pipeline) List() []string { return append([]string(nil), p.stages...) }

// Len reports the number of stages.
func (p Pipeline) Len() int { return len(p.stages) }

//
// Templates
//

// Templates mirrors the single template backend the site uses.
type Templates struct {
	Dirs              []string
	AppDirs           bool
	ContextProcessors []string
}

//
// Password validation
//

// Passwords parameterises the AUTH_PASSWORD_VALIDATORS set.
type Passwords struct {
	Validators          []string
	MinLength           int     `validate:"gte=1"`
	MaxSimilarity       float64 `validate:"gt=0,lte=1"`
	UserAttributeFields []string
	// CommonListPath replaces the built-in common-password list when set.
	CommonListPath      string
}

//
// Internationalization
//

// I18N holds locale settings.
type I18N struct {
	LanguageCode string `validate:"required"`
	TimeZone     string `validate:"required,timezone"`
	UseI18N      bool
	UseTZ        bool
}

//
// Static and media
//

// Static describes where asset sources live and where they are collected.
type Static struct {
	URL     string   `validate:"required,startswith=/,endswith=/"`
	Dirs    []string `validate:"dive,required"`
	Root    string   `validate:"required"`
	Storage string
}

// Media describes user-uploaded files.
type Media struct {
	URL  string `validate:"required,startswith=/,endswith=/"`
	Root string `validate:"required"`
}

//
// Authentication and accounts
//

// Auth holds backend names and the account policy.
type Auth struct {
	Backends             []string      `validate:"min=1"`
	LoginRedirectURL     string        `validate:"required"`
	LoginURL             string        `validate:"required"`
	EmailVerification    string        `validate:"oneof=mandatory optional none"`
	EmailRequired        bool
	SessionCookieName    string        `validate:"required"`
	SessionCookieAge     time.Duration `validate:"gt=0"`
	EmailConfirmationURL string        `validate:"required"`
	AccountURLPrefix     string        `validate:"required,startswith=/"`
	CSRFTokenMaxAge      time.Duration `validate:"gt=0"`
}

//
// Form styling
//

// Forms holds crispy-forms settings.
type Forms struct {
	AllowedTemplatePacks []string `validate:"min=1"`
	TemplatePack         string   `validate:"required"`
}

//
// HTTP listener
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr  string `validate:"required,hostname_port"`
	MetricsAddr string `validate:"omitempty,hostname_port"`
}

//
// GeoIP
//

// GeoIP points at an optional MaxMind City database.  Empty disables lookups.
type GeoIP struct {
	Path string
}

//
// Vault
//

// Vault configures resolution of `vault:` secret references after load.
type Vault struct {
	CacheTTL time.Duration
}

//
// Logging
//

// Log selects the minimum level for the process logger.
type Log struct {
	Level string `validate:"oneof=debug info warn error"`
}

//
// Paths section (derived)
//

// Paths is derived from Base plus fixed relative suffixes.
type Paths struct {
	Base      string `validate:"required"`
	Templates string
	Static    string
	Collected string
	Media     string
	Logs      string
	SQLite    string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the process lifetime.
type Config struct {
	Security         Security
	Hosts            Hosts
	Apps             Apps
	Middleware       Pipeline
	RootURLConf      string
	WSGIApplication  string
	SiteID           int `validate:"gte=1"`
	Templates        Templates
	Database         Database `validate:"required"`
	Passwords        Passwords
	I18N             I18N
	Static           Static
	Media            Media
	DefaultAutoField string
	Auth             Auth
	Forms            Forms
	HTTP             HTTP
	GeoIP            GeoIP
	Vault            Vault
	Log              Log
	Paths            Paths
}

// WithSecretKey returns a copy of c carrying key.  Used after resolving a
// vault reference so the loaded object itself is never mutated.
func (c *Config) WithSecretKey(key string) *Config {
	cp := *c
	cp.Security.SecretKey = key
	return &cp
}
