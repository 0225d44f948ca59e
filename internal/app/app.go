// Package app wires configuration into the pool, repositories and services
// shared by the API server and deskctl.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/osama1998H/frappe/internal/assets"
	"github.com/osama1998H/frappe/internal/config"
	"github.com/osama1998H/frappe/internal/database"
	"github.com/osama1998H/frappe/internal/locale"
	"github.com/osama1998H/frappe/internal/modules"
	"github.com/osama1998H/frappe/internal/naming"
	"github.com/osama1998H/frappe/internal/repo"
	"github.com/osama1998H/frappe/internal/service"
)

// redisKeyPrefix namespaces asset bundles in a shared Redis.
const redisKeyPrefix = "desk:assets:"

// App holds the long-lived dependencies of a process.
type App struct {
	Pool      *pgxpool.Pool
	Repos     repo.Repos
	Tree      *modules.Tree
	Languages *locale.Matcher
	Pages     *service.PageService
	Perms     *service.PermissionService
	Meta      *service.MetaService

	redis *redis.Client
}

// New connects to the database (and Redis, when configured) and builds the
// services. Call Close when done.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	pool, err := database.Connect(ctx, cfg.DatabaseURL, database.DefaultConnectOptions(), log)
	if err != nil {
		return nil, err
	}
	a := &App{
		Pool:      pool,
		Repos:     repo.New(pool),
		Tree:      modules.NewTree(cfg.AppsPath),
		Languages: locale.NewMatcher(cfg.Languages),
	}

	cache, err := a.newCache(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	tx := repo.NewTxRunner(pool)
	loader := assets.NewLoader(a.Tree,
		assets.WithTranslator(a.Repos.Translations),
		assets.WithPageJSHooks(cfg.PageJSHooks),
	)
	retry := naming.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.NamingMaxAttempts

	a.Pages = service.NewPageService(service.PageDeps{
		Pages:         a.Repos.Pages,
		CustomRoles:   a.Repos.CustomRoles,
		Tx:            tx,
		Exporter:      a.Tree,
		Loader:        loader,
		Cache:         cache,
		Logger:        log,
		DeveloperMode: cfg.DeveloperMode,
		Retry:         retry,
	})
	a.Perms = service.NewPermissionService(a.Repos, tx, a.Tree)
	a.Meta = service.NewMetaService(a.Repos.DocTypes)
	return a, nil
}

func (a *App) newCache(ctx context.Context, cfg config.Config) (assets.Cache, error) {
	if cfg.CacheBackend != config.CacheRedis {
		return assets.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("app.New: parse REDIS_URL: %w", err)
	}
	a.redis = redis.NewClient(opts)
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("app.New: ping redis: %w", err)
	}
	return assets.NewRedisCache(a.redis, redisKeyPrefix, cfg.CacheTTL), nil
}

// Close releases the pool and the Redis client.
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.Pool.Close()
}
