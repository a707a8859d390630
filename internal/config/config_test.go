package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
http:
  listen_addr: ":8080"
database:
  dsn: "router:%s@tcp(db:3306)/cms"
  password: "vault:secret/router/db#password"
routing:
  default_culture: en-us
  url_provider_mode: absolute
error404:
  - culture: default
    content_id: 1011
sites:
  - key: shop
    domains: ["shop.example.com"]
  - key: blog
    domains: ["blog.example.com"]
site_bindings:
  - ["shop", "blog"]
custom_routes:
  - path: /promo
    content_id: 1004
cache:
  domain_ttl: 90s
`

// writeRoot lays out <tmp>/conf/routing.yaml and points ROUTER_ROOT at it.
func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", fileName), []byte(yaml), 0o644))
	t.Setenv("ROUTER_ROOT", root)
	return root
}

func fakeSecrets(vals map[string]string) SecretFunc {
	return func(_ context.Context, path, key string) (string, error) {
		v, ok := vals[path+"#"+key]
		if !ok {
			return "", errors.New("not found")
		}
		return v, nil
	}
}

func TestLoad(t *testing.T) {
	root := writeRoot(t, baseYAML)
	cfg, err := Load(context.Background(), fakeSecrets(map[string]string{
		"secret/router/db#password": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Paths.Root)
	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "router:s3cret@tcp(db:3306)/cms", cfg.DSN())
	assert.Equal(t, "absolute", cfg.Routing.URLProviderMode)
	assert.Equal(t, 90*time.Second, cfg.Cache.DomainTTL)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout, "default applied")
	assert.Equal(t, 256, cfg.Cache.TemplateLRUSize, "default applied")
	require.Len(t, cfg.Error404, 1)
	assert.Equal(t, 1011, cfg.Error404[0].ContentID)
	require.Len(t, cfg.Sites, 2)
	assert.Equal(t, []string{"shop.example.com"}, cfg.Sites[0].Domains)
	assert.Equal(t, [][]string{{"shop", "blog"}}, cfg.SiteBindings)
	assert.Equal(t, []CustomRoute{{Path: "/promo", ContentID: 1004}}, cfg.CustomRoutes)
	assert.Same(t, cfg, Get())
}

func TestLoadEnvOverride(t *testing.T) {
	writeRoot(t, baseYAML)
	t.Setenv("ROUTER_HTTP__LISTEN_ADDR", "127.0.0.1:9090")
	t.Setenv("ROUTER_ROUTING__HIDE_TOP_LEVEL_NODE_FROM_PATH", "true")
	t.Setenv("ROUTER_DATABASE__PASSWORD", "plain")

	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.ListenAddr)
	assert.True(t, cfg.Routing.HideTopLevelNodeFromPath)
	assert.Equal(t, "plain", cfg.Database.Password)
}

func TestLoadVaultWithoutSecrets(t *testing.T) {
	writeRoot(t, baseYAML)
	_, err := Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSecrets)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad mode":     "ROUTER_ROUTING__URL_PROVIDER_MODE",
		"bad culture":  "ROUTER_ROUTING__DEFAULT_CULTURE",
		"bad template": "ROUTER_DATABASE__DSN",
	}
	for name, key := range cases {
		t.Run(name, func(t *testing.T) {
			writeRoot(t, baseYAML)
			t.Setenv("ROUTER_DATABASE__PASSWORD", "plain")
			t.Setenv(key, "not valid !")
			_, err := Load(context.Background(), nil)
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "http.listen_addr", envKey("ROUTER_HTTP__LISTEN_ADDR"))
	assert.Equal(t, "", envKey("ROUTER_ROOT"))
}
