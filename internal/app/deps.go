package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vidfriends/ratingclient/internal/auth"
	"github.com/vidfriends/ratingclient/internal/config"
	"github.com/vidfriends/ratingclient/internal/content"
	"github.com/vidfriends/ratingclient/internal/db"
	"github.com/vidfriends/ratingclient/internal/gateway"
	"github.com/vidfriends/ratingclient/internal/repositories"
	"github.com/vidfriends/ratingclient/internal/storage"
	"github.com/vidfriends/ratingclient/internal/videos"
)

// dependencies holds the collaborators shared by the client commands.
type dependencies struct {
	cfg      config.Config
	logger   *slog.Logger
	store    auth.Store
	gateway  *gateway.Client
	sessions *auth.Manager
	metadata videos.Provider
	closers  []func() error
}

// buildDependencies wires together the concrete implementations selected by cfg.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{cfg: cfg, logger: logger}

	client, err := gateway.New(cfg.Gateway.BaseURL,
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithRateLimit(cfg.Gateway.RequestsPerSecond, cfg.Gateway.Burst),
	)
	if err != nil {
		return nil, err
	}
	deps.gateway = client

	store, err := deps.openStore(ctx, cfg.Session)
	if err != nil {
		deps.close()
		return nil, err
	}
	deps.store = store

	deps.sessions = auth.NewManager(client, store, logger)

	ytDlp := videos.NewYTDLPProvider(cfg.Metadata.YTDLPPath, cfg.Metadata.Timeout)
	deps.metadata = videos.NewCachingProvider(ytDlp, cfg.Metadata.CacheTTL)

	return deps, nil
}

// openStore returns the session store for the configured driver, sealed when
// an encryption key is set.
func (d *dependencies) openStore(ctx context.Context, cfg config.SessionConfig) (auth.Store, error) {
	var store auth.Store

	switch cfg.Driver {
	case config.DriverMemory:
		store = auth.NewMemoryStore()
	case config.DriverSQLite:
		handle, err := db.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		sqlite, err := repositories.NewSQLiteSessionStore(handle)
		if err != nil {
			_ = handle.Close()
			return nil, err
		}
		d.closers = append(d.closers, sqlite.Close)
		store = sqlite
	case config.DriverRedis:
		client, err := repositories.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, client.Close)
		store = repositories.NewRedisSessionStore(client, cfg.Profile, cfg.RedisTTL)
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() error { pool.Close(); return nil })
		pg := repositories.NewPostgresSessionStore(pool, cfg.Profile)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		store = pg
	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Driver)
	}

	if cfg.EncryptionKey == "" {
		return store, nil
	}
	sealed, err := auth.NewSealedStore(store, cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("seal session store: %w", err)
	}
	return sealed, nil
}

func (d *dependencies) item(id string) *content.Item {
	return content.NewItem(d.gateway, d.store, id, d.logger)
}

func (d *dependencies) collection() *content.Collection {
	return content.NewCollection(d.gateway, d.store, d.logger)
}

// exportSink picks the S3 bucket when one is configured, else a local directory.
func (d *dependencies) exportSink(ctx context.Context, dir string) (storage.Sink, error) {
	if d.cfg.ObjectStore.Bucket != "" {
		return storage.NewS3Storage(ctx, d.cfg.ObjectStore)
	}
	if dir == "" {
		dir = d.cfg.Export.Dir
	}
	return storage.NewLocalStorage(dir)
}

func (d *dependencies) close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
