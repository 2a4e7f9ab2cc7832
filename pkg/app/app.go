// Package app wires configuration, storage and services into an http.Handler.
// It is shared by the standalone server, the serverless entrypoint and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wadjakorntonsri/shortlink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/postgres"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/redis"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/web"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type App struct {
	Repo    ports.Repository
	Links   *services.LinkService
	Auth    *services.AuthService
	Handler http.Handler

	redis *goredis.Client
}

// OpenRepository picks Postgres for postgres:// URLs and SQLite (local or
// libsql) for everything else. The schema is created on open.
func OpenRepository(ctx context.Context, dbURL string) (ports.Repository, error) {
	if strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://") {
		repo, err := postgres.Open(ctx, dbURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return repo, nil
	}

	repo, err := sqlite.NewSQLiteRepository(dbURL)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return repo, nil
}

// NewLinkService builds the link service with the real HTTP prober and scraper.
func NewLinkService(repo ports.LinkRepository, cfg config.LinkConfig) *services.LinkService {
	return services.NewLinkService(repo,
		web.NewHTTPProber(cfg.ProbeTimeout),
		web.NewPreviewScraper(cfg.PreviewTimeout),
		cfg)
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	repo, err := OpenRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &App{Repo: repo}
	checks := map[string]handler.Pinger{"database": repo}

	var denylist ports.TokenDenylist
	if cfg.RedisURL != "" {
		a.redis, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			repo.Close()
			return nil, err
		}
		tokens := redis.NewTokenDenylist(a.redis)
		denylist = tokens
		checks["redis"] = tokens
	}

	a.Links = NewLinkService(repo, cfg.Links)
	a.Auth = services.NewAuthService(repo, denylist, cfg.JWTSecret, cfg.TokenExpiry)
	a.Handler = handler.NewRouter(cfg, a.Links, a.Auth, handler.NewHealthHandler(checks))

	return a, nil
}

func (a *App) Close() error {
	if a.redis != nil {
		a.redis.Close()
	}
	return a.Repo.Close()
}
