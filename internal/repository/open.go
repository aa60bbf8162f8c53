package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/config"
	"github.com/kailas-cloud/vecgate/internal/db"
	dbRedis "github.com/kailas-cloud/vecgate/internal/db/redis"
	"github.com/kailas-cloud/vecgate/internal/repository/redisearch"
	"github.com/kailas-cloud/vecgate/internal/repository/sqlvec"
)

// readinessWaiter is implemented by backends that connect lazily.
type readinessWaiter interface {
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Open selects the backend once: remote when an address or DSN is
// configured, the local SQLite file otherwise. Remote backends are pinged
// with backoff until ready or store.readiness_timeout_sec expires.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*Client, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if w, ok := backend.(readinessWaiter); ok && cfg.IsRemote() {
		timeout := time.Duration(cfg.ReadinessTimeoutSec) * time.Second
		if err := w.WaitForReady(ctx, timeout); err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("%s not ready: %w", backend.Name(), err)
		}
	}

	if logger != nil {
		logger.Info("Vector store opened",
			zap.String("backend", backend.Name()),
			zap.Bool("remote", cfg.IsRemote()),
		)
	}

	return NewClient(backend, Options{
		OpTimeout:        time.Duration(cfg.OpTimeoutSec) * time.Second,
		DefaultDimension: cfg.DefaultDimension,
	}, logger), nil
}

func openBackend(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	if !cfg.IsRemote() {
		r, err := sqlvec.OpenSQLite(ctx, cfg.Local.Path)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		return r, nil
	}

	switch cfg.Remote.Driver {
	case config.DriverRedis, config.DriverValkey:
		algo, err := db.ParseVectorAlgorithm(strings.ToLower(cfg.VectorAlgorithm))
		if err != nil {
			return nil, err
		}
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Remote.Addrs,
			Username: cfg.Remote.Username,
			Password: cfg.Remote.Password,
			DB:       cfg.Remote.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		repo := redisearch.New(store).
			WithAlgorithm(algo).
			WithHNSW(redisearch.HNSWConfig{M: cfg.HNSWM, EFConstruct: cfg.HNSWEFConstruct})
		if cfg.Remote.Driver == config.DriverValkey {
			repo = repo.ForValkey()
		}
		return &redisBackend{Repo: repo, store: store}, nil
	case config.DriverPostgres:
		r, err := sqlvec.OpenPostgres(ctx, cfg.Remote.DSN, time.Duration(cfg.ReadinessTimeoutSec)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Remote.Driver)
	}
}

// redisBackend adds readiness probing to the Redis repository.
type redisBackend struct {
	*redisearch.Repo
	store *dbRedis.Store
}

func (b *redisBackend) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return b.store.WaitForReady(ctx, timeout)
}
