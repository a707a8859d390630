// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/routing.yaml`.
  3. Environment variables prefixed `ROUTER_`, where `__` maps to “.”
     (e.g., `ROUTER_HTTP__LISTEN_ADDR → http.listen_addr`).

String values of the form `vault:<mount>/<path>#<key>` are then replaced
by the secret the SecretFunc returns.  After merging, the tree is
unmarshalled into strongly-typed structs, defaults are applied, the result
is validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` calls `Load()` again with
the same SecretFunc and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay, secret lookups.
  • ERROR spans: YAML parse, env overlay, secrets, unmarshal, validation.
  • INFO span: final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/routing.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix   = "ROUTER_"
	fileName    = "routing.yaml"
	vaultPrefix = "vault:"
)

// ErrNoSecrets is returned when the configuration references Vault but no
// SecretFunc was given.
var ErrNoSecrets = errors.New("config: vault reference without secret source")

// SecretFunc returns the value stored under key in the secret at path.
// *vault.Client satisfies it through a small closure in cmd/web.
type SecretFunc func(ctx context.Context, path, key string) (string, error)

var (
	current atomic.Pointer[Config]
	secrets atomic.Pointer[SecretFunc]
)

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves ROUTER_ROOT or climbs directories until
// conf/routing.yaml is found.  Falls back to executable heuristic for
// production layout.
func rootDir() string {
	if r := os.Getenv(envPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", fileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
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

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.  sf may be nil when no value references Vault.
func Load(ctx context.Context, sf SecretFunc) (*Config, error) {
	if sf != nil {
		secrets.Store(&sf)
	}
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", fileName)
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: ROUTER_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, sf); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	applyDefaults(&cfg)
	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"default_culture", cfg.Routing.DefaultCulture,
		"url_provider_mode", cfg.Routing.URLProviderMode,
		"sites", len(cfg.Sites),
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// envKey maps ROUTER_HTTP__LISTEN_ADDR to http.listen_addr.  ROUTER_ROOT
// only steers root discovery and is skipped.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	if s == "ROOT" {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// resolveSecrets replaces every "vault:<path>#<key>" string in k.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, sf SecretFunc) error {
	for _, key := range k.Keys() {
		raw, ok := k.Get(key).(string)
		if !ok || !strings.HasPrefix(raw, vaultPrefix) {
			continue
		}
		if sf == nil {
			return fmt.Errorf("%w: %s", ErrNoSecrets, key)
		}
		path, field, ok := strings.Cut(strings.TrimPrefix(raw, vaultPrefix), "#")
		if !ok || path == "" || field == "" {
			return fmt.Errorf("config: %s: malformed vault reference %q", key, raw)
		}
		val, err := sf(ctx, path, field)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return err
		}
		zap.S().Debugw("config secret resolved", "key", key, "path", path)
	}
	return nil
}

// applyDefaults fills zero values the YAML may omit.
func applyDefaults(c *Config) {
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.Database.MaxOpen == 0 {
		c.Database.MaxOpen = 15
	}
	if c.Database.MaxIdle == 0 {
		c.Database.MaxIdle = 5
	}
	if c.Cache.DomainTTL == 0 {
		c.Cache.DomainTTL = 5 * time.Minute
	}
	if c.Cache.TemplateLRUSize == 0 {
		c.Cache.TemplateLRUSize = 256
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// DSN renders the database DSN template with the resolved password.
func (c *Config) DSN() string {
	return fmt.Sprintf(c.Database.DSN, c.Database.Password)
}

func Get() *Config { return current.Load() }

func Reload(ctx context.Context) error {
	var sf SecretFunc
	if p := secrets.Load(); p != nil {
		sf = *p
	}
	_, err := Load(ctx, sf)
	return err
}
