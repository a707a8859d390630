// internal/config/model.go
//
// Typed configuration model for the content router.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/routing.yaml`                      – primary static file,
//   • `ROUTER_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • Durations are written as Go duration strings ("90s", "5m").
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  It carries one `%s` verb where the
// password goes.  The *secret* portion (`Password`) is normally a
// `vault:<path>#<key>` reference resolved at load time.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required,dsn_template"`
	Password string `koanf:"password" validate:"required"`
	MaxOpen  int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle  int    `koanf:"max_idle" validate:"gte=0"`
}

//
// Routing section
//

// Routing mirrors engine.Config plus the finder and URL provider switches.
type Routing struct {
	DisableAlternativeTemplates       bool   `koanf:"disable_alternative_templates"`
	ValidateAlternativeTemplates      bool   `koanf:"validate_alternative_templates"`
	InternalRedirectPreservesTemplate bool   `koanf:"internal_redirect_preserves_template"`
	DisableFindContentByIDPath        bool   `koanf:"disable_find_content_by_id_path"`
	DisableRedirectURLTracking        bool   `koanf:"disable_redirect_url_tracking"`
	HideTopLevelNodeFromPath          bool   `koanf:"hide_top_level_node_from_path"`
	AddTrailingSlash                  bool   `koanf:"add_trailing_slash"`
	UseDomainPrefixes                 bool   `koanf:"use_domain_prefixes"`
	URLProviderMode                   string `koanf:"url_provider_mode" validate:"omitempty,url_mode"`
	DefaultCulture                    string `koanf:"default_culture"   validate:"required,culture"`
}

// Error404 names the 404 page of one culture ("default" for the fallback)
// by content id or content key.
type Error404 struct {
	Culture    string `koanf:"culture"     validate:"required"`
	ContentID  int    `koanf:"content_id"  validate:"required_without=ContentKey,gte=0"`
	ContentKey string `koanf:"content_key" validate:"omitempty,uuid"`
}

// Site declares the authorities of one site.
type Site struct {
	Key     string   `koanf:"key"     validate:"required"`
	Domains []string `koanf:"domains" validate:"required,min=1"`
}

// CustomRoute binds a path to a node.
type CustomRoute struct {
	Path      string `koanf:"path"       validate:"required"`
	ContentID int    `koanf:"content_id" validate:"gt=0"`
}

//
// Cache section
//

// Cache holds reload intervals and memo sizes.
type Cache struct {
	DomainTTL       time.Duration `koanf:"domain_ttl"        validate:"gte=0"`
	CustomRoutesTTL time.Duration `koanf:"custom_routes_ttl" validate:"gte=0"`
	ContentRefresh  time.Duration `koanf:"content_refresh"   validate:"gte=0"`
	TemplateLRUSize int           `koanf:"template_lru_size" validate:"gte=0"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or ROUTER_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // ROUTER_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP         HTTP          `koanf:"http"`
	Database     Database      `koanf:"database"`
	Routing      Routing       `koanf:"routing"`
	Error404     []Error404    `koanf:"error404"      validate:"dive"`
	Sites        []Site        `koanf:"sites"         validate:"dive"`
	SiteBindings [][]string    `koanf:"site_bindings" validate:"dive,min=2"`
	CustomRoutes []CustomRoute `koanf:"custom_routes" validate:"dive"`
	Cache        Cache         `koanf:"cache"`
	Paths        Paths         `koanf:"-"` // not loaded from config files
}
