package vecgate

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/vecgate/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	store config.StoreConfig

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithLocal stores data in an embedded SQLite file. This is the default;
// an empty path uses data/vecgate.db.
func WithLocal(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.Remote = config.RemoteConfig{}
		c.store.Local.Path = path
	})
}

// WithRedis connects to a Redis instance with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.Remote = config.RemoteConfig{
			Driver:   config.DriverRedis,
			Addrs:    []string{addr},
			Password: password,
		}
	})
}

// WithValkey connects to a Valkey instance with valkey-search.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.Remote = config.RemoteConfig{
			Driver:   config.DriverValkey,
			Addrs:    []string{addr},
			Password: password,
		}
	})
}

// WithPostgres connects to a Postgres database.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.Remote = config.RemoteConfig{Driver: config.DriverPostgres, DSN: dsn}
	})
}

// WithDefaultDimension sets the dimension of collections created without one.
// 0 (default) lets the first insert decide.
func WithDefaultDimension(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.DefaultDimension = dim
	})
}

// WithHNSW configures HNSW index parameters for Redis/Valkey (M and EF construction).
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.HNSWM = m
		c.store.HNSWEFConstruct = efConstruct
	})
}

// WithOpTimeout bounds every store call.
func WithOpTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.OpTimeoutSec = int(d.Round(time.Second) / time.Second)
	})
}

// WithQueryLimits sets the default and maximum n_results of a query.
func WithQueryLimits(defaultN, maxN int) Option {
	return optionFunc(func(c *clientConfig) {
		c.store.DefaultNResults = defaultN
		c.store.MaxNResults = maxN
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
