// internal/vault/vault.go
//
// Vault client wrapper for the content router.
//
// Context
// -------
//   - Provides a concurrency-safe client around the HashiCorp Vault Go SDK.
//   - Adds background token renewal, simple KV-v2 helpers, and per-key caching.
//   - The configuration loader reaches it through Secret, which matches
//     config.SecretFunc, to resolve `vault:<path>#<key>` values such as the
//     database password.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx)                          // during boot.
//  2. cfg, err := config.Load(ctx, cli.Secret)            // resolve secrets.
//  3. pw,  err := cli.GetKV(ctx, path, key, ttl)          // anywhere else.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// SecretTTL is how long Secret caches a value.
const SecretTTL = 10 * time.Minute

// ErrNotConfigured is returned by New when VAULT_ADDR is unset.
var ErrNotConfigured = errors.New("vault: VAULT_ADDR not set")

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Create once at startup.  Zero value
// is invalid.
type Client struct {
	kv func(ctx context.Context, mount, rel string) (map[string]any, error)

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
	now     func() time.Time
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and starts a background token-renewal loop
// bound to ctx.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault-token).
func New(ctx context.Context) (*Client, error) {
	if os.Getenv("VAULT_ADDR") == "" {
		return nil, ErrNotConfigured
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}

	c := newClient(func(ctx context.Context, mount, rel string) (map[string]any, error) {
		sec, err := api.KVv2(mount).Get(ctx, rel)
		if err != nil {
			return nil, err
		}
		return sec.Data, nil
	})

	go renewLoop(ctx, api)
	return c, nil
}

func newClient(kv func(ctx context.Context, mount, rel string) (map[string]any, error)) *Client {
	return &Client{kv: kv, cache: make(map[string]cached), now: time.Now}
}

// Secret fetches key from the KV-v2 secret at path, cached for SecretTTL.
func (c *Client) Secret(ctx context.Context, path, key string) (string, error) {
	return c.GetKV(ctx, path, key, SecretTTL)
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key
	if ttl > 0 {
		c.cacheMu.RLock()
		cv, ok := c.cache[canonical]
		c.cacheMu.RUnlock()
		if ok && c.now().Before(cv.exp) {
			return cv.val, nil
		}
	}

	mount, rel := splitMount(secretPath)
	data, err := c.kv(ctx, mount, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: c.now().Add(ttl)}
		c.cacheMu.Unlock()
	}
	return sval, nil
}

//
// SECTION 2.  Background token renewal
//

func renewLoop(ctx context.Context, api *vault.Client) {
	for ctx.Err() == nil {
		wait := renewOnce(ctx, api)
		backoff(ctx, wait)
	}
}

// renewOnce watches the current token until renewal stops and returns how
// long to wait before probing again.
func renewOnce(ctx context.Context, api *vault.Client) time.Duration {
	sec, err := api.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		zap.S().Warnw("vault token renew failed", "err", err)
		return 30 * time.Second
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		zap.S().Infow("vault token is not renewable")
		return time.Hour
	}

	watcher, err := api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: sec,
		Grace:  15 * time.Second,
	})
	if err != nil {
		zap.S().Warnw("vault watcher init failed", "err", err)
		return 30 * time.Second
	}
	go watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-watcher.DoneCh():
			if err != nil {
				zap.S().Warnw("vault token renewal stopped", "err", err)
			}
			return 15 * time.Second
		case ev := <-watcher.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				zap.S().Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(strings.Trim(p, "/"), "/")
	return mount, rel
}

func backoff(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
