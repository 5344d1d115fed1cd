// internal/config/loader.go
//
// Settings loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` from four koanf layers (highest
precedence last):

  1. Compiled defaults (defaults.go).
  2. Optional `<base>/conf/settings.yaml`.
  3. Optional `<base>/.env`, read with godotenv.Read so the process
     environment is never mutated.
  4. Process environment.  `SECRET_KEY`, `DEBUG`, and `DATABASE_URL` are
     read by name.  Anything prefixed `ECOMM_` maps `__` to "." (e.g.,
     `ECOMM_HTTP__LISTEN_ADDR → http.listen_addr`).

The merged tree is unmarshalled into `raw`, then turned into the typed
model: DEBUG is parsed strictly, the database variant is selected, paths
are derived from the base directory, and the result is validated.  Any
failure aborts the whole load.  The finished value is cached in an
`atomic.Pointer` for lock-free reads.

Load performs no database or network I/O.

Instrumentation
---------------
  • DEBUG spans – base discovery, optional layers found.
  • ERROR spans – layer, parse, and validation failures.
  • INFO  span  – final "config loaded" with key highlights.
  • Logs use `zap.S()` so early boot issues surface before the file logger
    is installed.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix   = "ECOMM_"
	envBaseDir  = "ECOMM_BASE_DIR"
	settingsRel = "conf/settings.yaml"
	dotenvName  = ".env"
)

// directEnv are read without the ECOMM_ prefix.
var directEnv = map[string]string{
	"SECRET_KEY":   "secret_key",
	"DEBUG":        "debug",
	"DATABASE_URL": "database_url",
}

var current atomic.Pointer[Config]

// Options tunes a load.  The zero value discovers everything.
type Options struct {
	// BaseDir overrides discovery of the application base directory.
	BaseDir string
}

// raw is the koanf view of the overridable settings.
type raw struct {
	SecretKey   string `koanf:"secret_key"`
	Debug       string `koanf:"debug"`
	DatabaseURL string `koanf:"database_url"`
	HTTP        struct {
		ListenAddr  string `koanf:"listen_addr"`
		MetricsAddr string `koanf:"metrics_addr"`
	} `koanf:"http"`
	Hosts struct {
		Extra []string `koanf:"extra"`
	} `koanf:"hosts"`
	GeoIP struct {
		Path string `koanf:"path"`
	} `koanf:"geoip"`
	Vault struct {
		CacheTTL time.Duration `koanf:"cache_ttl"`
	} `koanf:"vault"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
	Passwords struct {
		CommonList string `koanf:"common_list"`
	} `koanf:"passwords"`
}

/*──────────────────────────── base discovery ───────────────────────────────*/

// baseDir resolves ECOMM_BASE_DIR or climbs from the cwd until
// conf/settings.yaml is found.  Falls back to the bin/.. layout, then cwd.
func baseDir() string {
	if r := os.Getenv(envBaseDir); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, settingsRel)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load merges all layers, validates, and caches the Config.
func Load(opts Options) (*Config, error) {
	base := opts.BaseDir
	if base == "" {
		base = baseDir()
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	zap.S().Debugw("config base resolved", "base", base)

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultLayer(), "."), nil); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	yamlPath := filepath.Join(base, settingsRel)
	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, fmt.Errorf("config yaml %s: %w", yamlPath, err)
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	dotenvPath := filepath.Join(base, dotenvName)
	if vals, err := godotenv.Read(dotenvPath); err == nil {
		layer := make(map[string]any, len(vals))
		for key, val := range vals {
			if mapped := envKey(key); mapped != "" {
				layer[mapped] = val
			}
		}
		if err := k.Load(confmap.Provider(layer, "."), nil); err != nil {
			return nil, fmt.Errorf("config dotenv: %w", err)
		}
		zap.S().Debugw("config dotenv loaded", "file", dotenvPath, "keys", len(layer))
	} else if !errors.Is(err, os.ErrNotExist) {
		zap.S().Errorw("config dotenv read failed", "file", dotenvPath, "err", err)
		return nil, fmt.Errorf("config dotenv %s: %w", dotenvPath, err)
	}

	if err := k.Load(env.ProviderWithValue("", ".", func(key, val string) (string, any) {
		return envKey(key), val
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("config env: %w", err)
	}

	var r raw
	if err := k.Unmarshal("", &r); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	cfg, err := build(r, k.Exists("database_url"), base)
	if err != nil {
		zap.S().Errorw("config build failed", "err", err)
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(cfg)
	zap.S().Infow("config loaded",
		"base", cfg.Paths.Base,
		"debug", cfg.Security.Debug,
		"database", cfg.Database.Engine(),
		"listen_addr", cfg.HTTP.ListenAddr,
	)
	return cfg, nil
}

// envKey maps an environment variable name to a koanf path, or "" to skip.
func envKey(name string) string {
	if k, ok := directEnv[name]; ok {
		return k
	}
	if strings.HasPrefix(name, envPrefix) && name != envBaseDir {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, envPrefix), "__", "."))
	}
	return ""
}

// build turns the merged tree into the typed model.
func build(r raw, hasDatabaseURL bool, base string) (*Config, error) {
	debug, err := ParseBool(r.Debug)
	if err != nil {
		return nil, fmt.Errorf("DEBUG: %w", err)
	}

	db, err := selectDatabase(r.DatabaseURL, hasDatabaseURL, base)
	if err != nil {
		return nil, fmt.Errorf("DATABASE_URL: %w", err)
	}

	apps, err := NewApps(installedApps...)
	if err != nil {
		return nil, err
	}

	paths := derivePaths(base)

	cfg := &Config{
		Security: Security{
			SecretKey: r.SecretKey,
			Debug:     debug,
		},
		Hosts:           NewHosts(splitList(r.Hosts.Extra)...),
		Apps:            apps,
		Middleware:      Pipeline{stages: append([]string(nil), middlewareStages...)},
		RootURLConf:     appName + ".urls",
		WSGIApplication: appName + ".wsgi.application",
		SiteID:          siteID,
		Templates: Templates{
			Dirs:              []string{paths.Templates},
			AppDirs:           true,
			ContextProcessors: append([]string(nil), contextProcessors...),
		},
		Database: db,
		Passwords: Passwords{
			Validators:          append([]string(nil), passwordValidators...),
			MinLength:           8,
			MaxSimilarity:       0.7,
			UserAttributeFields: []string{"username", "first_name", "last_name", "email"},
			CommonListPath:      resolvePath(base, r.Passwords.CommonList),
		},
		I18N: I18N{
			LanguageCode: "en-us",
			TimeZone:     "UTC",
			UseI18N:      true,
			UseTZ:        true,
		},
		Static: Static{
			URL:     staticURL,
			Dirs:    []string{paths.Static},
			Root:    paths.Collected,
			Storage: staticStorage,
		},
		Media: Media{
			URL:  mediaURL,
			Root: paths.Media,
		},
		DefaultAutoField: defaultAutoField,
		Auth: Auth{
			Backends:             []string{"model", "account"},
			LoginRedirectURL:     "/",
			LoginURL:             "/accounts/login/",
			EmailVerification:    "mandatory",
			EmailRequired:        true,
			SessionCookieName:    "sessionid",
			SessionCookieAge:     sessionCookieAge,
			EmailConfirmationURL: "/accounts/confirm-email/",
			AccountURLPrefix:     "/accounts/",
			CSRFTokenMaxAge:      csrfTokenMaxAge,
		},
		Forms: Forms{
			AllowedTemplatePacks: []string{"bootstrap4"},
			TemplatePack:         "bootstrap4",
		},
		HTTP: HTTP{
			ListenAddr:  r.HTTP.ListenAddr,
			MetricsAddr: r.HTTP.MetricsAddr,
		},
		GeoIP: GeoIP{Path: r.GeoIP.Path},
		Vault: Vault{CacheTTL: r.Vault.CacheTTL},
		Log:   Log{Level: strings.ToLower(r.Log.Level)},
		Paths: paths,
	}
	return cfg, nil
}

// resolvePath anchors a relative settings path at base.  Empty stays empty.
func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// splitList flattens comma-joined entries, the form env and .env values
// arrive in.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		out = append(out, strings.Split(s, ",")...)
	}
	return out
}

func derivePaths(base string) Paths {
	return Paths{
		Base:      base,
		Templates: filepath.Join(base, "templates"),
		Static:    filepath.Join(base, "static"),
		Collected: filepath.Join(base, "staticfiles"),
		Media:     filepath.Join(base, "media"),
		Logs:      filepath.Join(base, "logs"),
		SQLite:    filepath.Join(base, LocalStoreName),
	}
}

// ErrDuplicateApp is returned when an app name is installed twice.
var ErrDuplicateApp = errors.New("duplicate installed app")

// NewApps copies names into an Apps, rejecting duplicates.
func NewApps(names ...string) (Apps, error) {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return Apps{}, fmt.Errorf("%w: %q", ErrDuplicateApp, n)
		}
		seen[n] = true
	}
	return Apps{names: append([]string(nil), names...)}, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the most recently loaded Config, or nil before the first Load.
func Get() *Config { return current.Load() }

// Store replaces the cached Config, e.g. with a copy whose secrets were
// resolved after load.
func Store(c *Config) { current.Store(c) }

// Reload runs Load again with opts and swaps the cached pointer on success.
func Reload(opts Options) error { _, err := Load(opts); return err }
