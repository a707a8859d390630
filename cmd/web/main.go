// cmd/web/main.go
//
// Content router – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Bootstrap console logger, then Vault (when VAULT_ADDR is set).
//
//  2. Load configuration (conf/routing.yaml + ROUTER_ env), resolving
//     `vault:` references through Vault.
//
//  3. Start the daily rotating logger (tees to console when running in a TTY).
//
//  4. Open the site database and load the published content snapshot,
//     domains, public-access rules, and custom routes.
//
//  5. Build the URL providers, the finder chain, and the engine.
//
//  6. Serve:
//
//     • /metrics                 – Prometheus
//     • /_router/urls/{id}       – editor URL list
//     • everything else          – routed, answered with a JSON description
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/acl"
	"github.com/yanizio/contentrouter/internal/auth"
	"github.com/yanizio/contentrouter/internal/config"
	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/culture"
	"github.com/yanizio/contentrouter/internal/database"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/engine"
	"github.com/yanizio/contentrouter/internal/finder"
	"github.com/yanizio/contentrouter/internal/logger"
	"github.com/yanizio/contentrouter/internal/middleware"
	"github.com/yanizio/contentrouter/internal/notfound"
	"github.com/yanizio/contentrouter/internal/redirects"
	"github.com/yanizio/contentrouter/internal/routes"
	"github.com/yanizio/contentrouter/internal/routing"
	"github.com/yanizio/contentrouter/internal/server"
	"github.com/yanizio/contentrouter/internal/sitedomain"
	"github.com/yanizio/contentrouter/internal/templates"
	"github.com/yanizio/contentrouter/internal/urls"
	"github.com/yanizio/contentrouter/internal/vault"
)

const shutdownGrace = 15 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Console logger until the file logger is up.
	boot, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(boot)

	if err := run(ctx); err != nil {
		zap.S().Errorw("router stopped", "err", err)
		_ = zap.L().Sync()
		log.Fatalf("router: %v", err)
	}
	_ = zap.L().Sync()
}

func run(ctx context.Context) error {
	//
	// ── 1.  Secrets and configuration ───────────────────────────────────
	//
	var secrets config.SecretFunc
	switch cli, err := vault.New(ctx); {
	case err == nil:
		secrets = cli.Secret
	case errors.Is(err, vault.ErrNotConfigured):
		zap.S().Infow("vault disabled", "reason", err)
	default:
		return err
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return err
	}
	if _, err := logger.New(cfg.Paths.Root, runningInTTY(), os.Getenv("ROUTER_LOG_LEVEL")); err != nil {
		return err
	}

	//
	// ── 2.  Site database ───────────────────────────────────────────────
	//
	db, err := database.OpenWithOptions(ctx, cfg.DSN(), cfg.Database.MaxOpen, cfg.Database.MaxIdle)
	if err != nil {
		return err
	}
	defer db.Close()
	zap.S().Infow("site database online")

	//
	// ── 3.  Published state ─────────────────────────────────────────────
	//
	defaultCulture := culture.Canonical(cfg.Routing.DefaultCulture)
	treeOpts := content.TreeOptions{HideTopLevelNodeFromPath: cfg.Routing.HideTopLevelNodeFromPath}

	domains := domain.NewCache(db, cfg.Cache.DomainTTL, defaultCulture)
	if err := domains.Load(ctx); err != nil {
		return err
	}

	snapshot := content.NewSnapshot(content.SQLLoader(db), treeOpts)
	cache := routes.NewCache()
	tpls := templates.NewSQLStore(db, cfg.Cache.TemplateLRUSize)
	snapshot.OnRefresh(cache.Clear)
	snapshot.OnRefresh(tpls.Purge)

	history := redirects.NewSQLStore(db, !cfg.Routing.DisableRedirectURLTracking)
	if !cfg.Routing.DisableRedirectURLTracking {
		redirects.NewTracker(history, domains).Subscribe(snapshot)
	}
	if err := snapshot.Refresh(ctx); err != nil {
		return err
	}

	rules := acl.NewRules()
	if err := rules.Reload(ctx, db); err != nil {
		return err
	}

	mapper := sitedomain.New()
	if err := mapper.Configure(sitesOf(cfg), cfg.SiteBindings); err != nil {
		return err
	}

	//
	// ── 4.  URL providers, finders, and engine ──────────────────────────
	//
	mode, err := urls.ParseMode(cfg.Routing.URLProviderMode)
	if err != nil {
		return err
	}
	urlOpts := urls.Options{
		Mode:              mode,
		UseDomainPrefixes: cfg.Routing.UseDomainPrefixes,
		AddTrailingSlash:  cfg.Routing.AddTrailingSlash,
	}
	customURLs := urls.NewCustomRouteProvider(nil, urlOpts)
	resolver := urls.NewResolver(snapshot, urlOpts.Mode,
		customURLs,
		urls.NewDefaultProvider(snapshot, domains, mapper, cache, urlOpts),
		urls.NewAliasProvider(domains, mapper, urlOpts),
	)

	custom := routing.NewCustomRoutes(db.DB, cfg.Cache.CustomRoutesTTL, customRoutesOf(cfg), customURLs)
	if err := custom.Load(ctx); err != nil {
		return err
	}

	nice := finder.NewByNiceURL(snapshot, domains, cache)
	eng, err := engine.New(engine.Options{
		Config: engine.Config{
			DisableAlternativeTemplates:       cfg.Routing.DisableAlternativeTemplates,
			ValidateAlternativeTemplates:      cfg.Routing.ValidateAlternativeTemplates,
			InternalRedirectPreservesTemplate: cfg.Routing.InternalRedirectPreservesTemplate,
		},
		Content: snapshot,
		Domains: domains,
		Finders: finder.Chain{
			finder.NewByIDPath(snapshot, cfg.Routing.DisableFindContentByIDPath),
			nice,
			finder.NewByNiceURLAndTemplate(nice, tpls,
				cfg.Routing.DisableAlternativeTemplates, cfg.Routing.ValidateAlternativeTemplates),
			finder.NewByURLAlias(snapshot),
			finder.NewByRedirectURL(snapshot, history, resolver),
		},
		LastChance: finder.NewConfigured404(snapshot, domains, notfound.New(error404Of(cfg)...)),
		Templates:  tpls,
		URLs:       resolver,
		Access:     rules,
	})
	if err != nil {
		return err
	}

	go refreshLoop(ctx, cfg.Cache.ContentRefresh, snapshot, rules, db)

	//
	// ── 5.  HTTP ────────────────────────────────────────────────────────
	//
	roles := func(ctx context.Context, id int64) ([]string, error) {
		return acl.MemberRoles(ctx, db.DB, id)
	}
	router := routing.Router(routing.NewHandler(eng, snapshot, domains), custom, auth.FromHeader(roles))

	var site http.Handler = router
	if cfg.HTTP.ForceHTTPS {
		site = middleware.ForceHTTPS(domains, router)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", site)

	return server.Run(ctx, server.New(cfg.HTTP, mux), shutdownGrace)
}

// refreshLoop reloads the content snapshot and the public-access rules
// every interval.  A zero interval disables it.
func refreshLoop(ctx context.Context, every time.Duration, s *content.Snapshot, rules *acl.Rules, db *sqlx.DB) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		// Refresh logs its own failures; the previous tree keeps serving.
		_ = s.Refresh(ctx)
		if err := rules.Reload(ctx, db); err != nil {
			zap.L().Warn("public access reload failed", zap.Error(err))
		}
	}
}

func sitesOf(cfg *config.Config) []sitedomain.Site {
	out := make([]sitedomain.Site, 0, len(cfg.Sites))
	for _, s := range cfg.Sites {
		out = append(out, sitedomain.Site{Key: s.Key, Domains: s.Domains})
	}
	return out
}

func customRoutesOf(cfg *config.Config) []urls.CustomRoute {
	out := make([]urls.CustomRoute, 0, len(cfg.CustomRoutes))
	for _, r := range cfg.CustomRoutes {
		out = append(out, urls.CustomRoute{Path: r.Path, ContentID: r.ContentID})
	}
	return out
}

func error404Of(cfg *config.Config) []notfound.Entry {
	out := make([]notfound.Entry, 0, len(cfg.Error404))
	for _, e := range cfg.Error404 {
		entry := notfound.Entry{Culture: e.Culture, ContentID: e.ContentID}
		if e.ContentKey != "" {
			// Validated as a uuid by the config loader.
			entry.ContentKey = uuid.MustParse(e.ContentKey)
		}
		out = append(out, entry)
	}
	return out
}
