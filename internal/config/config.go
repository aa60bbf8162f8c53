package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Remote store drivers.
const (
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
	DriverPostgres = "postgres"
)

// Config holds the vecgate configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	Envelope        *bool `yaml:"envelope"` // default: true
}

// EnvelopeEnabled reports whether JSON responses are wrapped in {code, message, data}.
func (h HTTPConfig) EnvelopeEnabled() bool {
	return h.Envelope == nil || *h.Envelope
}

// StoreConfig selects and tunes the vector store backend.
type StoreConfig struct {
	Remote              RemoteConfig `yaml:"remote"`
	Local               LocalConfig  `yaml:"local"`
	DefaultDimension    int          `yaml:"default_dimension"` // 0 = fixed by the first insert
	OpTimeoutSec        int          `yaml:"op_timeout_sec"`
	ReadinessTimeoutSec int          `yaml:"readiness_timeout_sec"`
	DefaultNResults     int          `yaml:"default_n_results"`
	MaxNResults         int          `yaml:"max_n_results"`
	VectorAlgorithm     string       `yaml:"vector_algorithm"` // hnsw, flat (redis only)
	HNSWM               int          `yaml:"hnsw_m"`
	HNSWEFConstruct     int          `yaml:"hnsw_ef_construction"`
}

// RemoteConfig holds connection settings for a remote store.
type RemoteConfig struct {
	Driver   string   `yaml:"driver"` // redis, valkey, postgres
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	DSN      string   `yaml:"dsn"`
}

// LocalConfig holds settings for the embedded SQLite store.
type LocalConfig struct {
	Path string `yaml:"path"`
}

// IsRemote reports whether a remote store is configured.
func (s StoreConfig) IsRemote() bool {
	return len(s.Remote.Addrs) > 0 || s.Remote.DSN != ""
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expands ${VAR} references, applies
// defaults and validates the result.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics. Used by the server entry point,
// where a bad config is fatal.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	// ${VAR:-} expansions leave empty entries behind
	c.Store.Remote.Addrs = slices.DeleteFunc(c.Store.Remote.Addrs, isBlank)
	c.Auth.APIKeys = slices.DeleteFunc(c.Auth.APIKeys, isBlank)
	if c.Store.Remote.Driver == "" {
		switch {
		case c.Store.Remote.DSN != "":
			c.Store.Remote.Driver = DriverPostgres
		case len(c.Store.Remote.Addrs) > 0:
			c.Store.Remote.Driver = DriverRedis
		}
	}
	if c.Store.Local.Path == "" {
		c.Store.Local.Path = "data/vecgate.db"
	}
	if c.Store.OpTimeoutSec <= 0 {
		c.Store.OpTimeoutSec = 30
	}
	if c.Store.ReadinessTimeoutSec <= 0 {
		c.Store.ReadinessTimeoutSec = 10
	}
	if c.Store.DefaultNResults <= 0 {
		c.Store.DefaultNResults = 3
	}
	if c.Store.MaxNResults <= 0 {
		c.Store.MaxNResults = 1000
	}
	if c.Store.HNSWM <= 0 {
		c.Store.HNSWM = 16
	}
	if c.Store.HNSWEFConstruct <= 0 {
		c.Store.HNSWEFConstruct = 200
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Store.DefaultDimension < 0 {
		return fmt.Errorf("store.default_dimension must not be negative, got %d", c.Store.DefaultDimension)
	}
	if c.Store.DefaultNResults > c.Store.MaxNResults {
		return fmt.Errorf("store.default_n_results (%d) exceeds store.max_n_results (%d)",
			c.Store.DefaultNResults, c.Store.MaxNResults)
	}
	switch strings.ToLower(c.Store.VectorAlgorithm) {
	case "", "hnsw", "flat":
	default:
		return fmt.Errorf("store.vector_algorithm must be \"hnsw\" or \"flat\", got %q", c.Store.VectorAlgorithm)
	}

	if !c.Store.IsRemote() {
		return nil
	}
	switch c.Store.Remote.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Store.Remote.Addrs) == 0 {
			return fmt.Errorf("store.remote.addrs is required for driver %q", c.Store.Remote.Driver)
		}
	case DriverPostgres:
		if c.Store.Remote.DSN == "" {
			return fmt.Errorf("store.remote.dsn is required for driver %q", c.Store.Remote.Driver)
		}
	default:
		return fmt.Errorf("store.remote.driver must be redis, valkey or postgres, got %q", c.Store.Remote.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
