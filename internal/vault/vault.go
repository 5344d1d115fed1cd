// internal/vault/vault.go
//
// Vault client wrapper for ecomm.
//
// Context
// -------
//   - Resolves `vault:<mount>/<path>#<key>` references, today used for
//     SECRET_KEY so the signing key never sits in the environment or .env.
//   - Wraps the HashiCorp Vault Go SDK with KV-v2 reads and per-key
//     caching.  Resolution is one-shot at boot, so the token is used as
//     issued and never renewed.
//   - Header block, section underlines, Oxford commas, two spaces after
//     periods, no m-dash.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(log)                          // during boot.
//  2. cfg, err  = vault.ResolveSecretKey(ctx, cfg, cli)  // after config.Load.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/yanizio/ecomm/internal/config"
)

//
// SECTION 1.  References
//

// RefPrefix marks a settings value that lives in Vault.
const RefPrefix = "vault:"

// ErrBadRef is returned for a reference without mount, path, or key.
var ErrBadRef = errors.New("malformed vault reference")

// Ref points at one key inside a KV-v2 secret.
type Ref struct {
	Mount string
	Path  string
	Key   string
}

func (r Ref) String() string { return RefPrefix + r.Mount + "/" + r.Path + "#" + r.Key }

// IsRef reports whether s uses the vault: scheme.
func IsRef(s string) bool { return strings.HasPrefix(s, RefPrefix) }

// ParseRef splits "vault:secret/ecomm/web#secret_key".
func ParseRef(s string) (Ref, error) {
	body, ok := strings.CutPrefix(s, RefPrefix)
	if !ok {
		return Ref{}, fmt.Errorf("%w: missing %q prefix", ErrBadRef, RefPrefix)
	}
	loc, key, ok := strings.Cut(body, "#")
	if !ok || key == "" {
		return Ref{}, fmt.Errorf("%w: missing #key", ErrBadRef)
	}
	mount, path, ok := strings.Cut(loc, "/")
	if !ok || mount == "" || path == "" {
		return Ref{}, fmt.Errorf("%w: want <mount>/<path>", ErrBadRef)
	}
	return Ref{Mount: mount, Path: path, Key: key}, nil
}

//
// SECTION 2.  Client
//

// kvGetter reads one KV-v2 secret.
type kvGetter interface {
	Get(ctx context.Context, mount, path string) (map[string]any, error)
}

type apiKV struct{ api *vault.Client }

func (a apiKV) Get(ctx context.Context, mount, path string) (map[string]any, error) {
	sec, err := a.api.KVv2(mount).Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return sec.Data, nil
}

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	kv  kvGetter
	log *zap.SugaredLogger
	now func() time.Time

	cacheMu sync.RWMutex
	cache   map[Ref]cached
}

type cached struct {
	val string
	exp time.Time
}

// New builds a client from VAULT_ADDR and VAULT_TOKEN.
func New(log *zap.SugaredLogger) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	return newClient(apiKV{api}, log), nil
}

func newClient(kv kvGetter, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{kv: kv, log: log, now: time.Now, cache: make(map[Ref]cached)}
}

// Get returns the string at ref.  With ttl > 0 the value is cached.
func (c *Client) Get(ctx context.Context, ref Ref, ttl time.Duration) (string, error) {
	if ttl > 0 {
		c.cacheMu.RLock()
		cv, ok := c.cache[ref]
		c.cacheMu.RUnlock()
		if ok && c.now().Before(cv.exp) {
			return cv.val, nil
		}
	}

	data, err := c.kv.Get(ctx, ref.Mount, ref.Path)
	if err != nil {
		return "", fmt.Errorf("vault get %s/%s: %w", ref.Mount, ref.Path, err)
	}
	raw, ok := data[ref.Key]
	if !ok {
		return "", fmt.Errorf("key %q not found in %s/%s", ref.Key, ref.Mount, ref.Path)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s is not a string", ref)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[ref] = cached{val: val, exp: c.now().Add(ttl)}
		c.cacheMu.Unlock()
	}
	return val, nil
}

//
// SECTION 3.  Settings resolution
//

// ResolveSecretKey swaps a vault: SECRET_KEY for the stored value.  Plain
// keys are returned untouched.  The input Config is never mutated; the
// resolved copy replaces it as the one config.Get returns.
func ResolveSecretKey(ctx context.Context, cfg *config.Config, c *Client) (*config.Config, error) {
	raw := cfg.Security.SecretKey
	if !IsRef(raw) {
		return cfg, nil
	}
	if c == nil {
		return nil, errors.New("SECRET_KEY is a vault reference but no vault client is configured")
	}
	ref, err := ParseRef(raw)
	if err != nil {
		return nil, fmt.Errorf("SECRET_KEY: %w", err)
	}
	key, err := c.Get(ctx, ref, cfg.Vault.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("SECRET_KEY: %w", err)
	}
	if key == "" {
		return nil, fmt.Errorf("SECRET_KEY: %s is empty", ref)
	}
	c.log.Infow("secret key resolved from vault", "mount", ref.Mount, "path", ref.Path)
	resolved := cfg.WithSecretKey(key)
	config.Store(resolved)
	return resolved, nil
}
