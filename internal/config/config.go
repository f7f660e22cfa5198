// Package config loads todod settings from defaults, an optional YAML file
// and TODO_* environment variables, in that order.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/toumakido/my-claude/todod/internal/store"
)

// Id assignment modes.
const (
	IDsLocal = "local"
	IDsStore = "store"
)

// Config is the serializable server configuration.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Store StoreConfig `yaml:"store"`

	// IDs is "local" (process counter) or "store" (shared counter in the backend).
	IDs string `yaml:"ids"`

	// Seed writes one demo record at start-up.
	Seed bool `yaml:"seed"`

	Log LogConfig `yaml:"log"`
}

type HTTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
}

type StoreConfig struct {
	Backend   string        `yaml:"backend"`
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	Namespace string        `yaml:"namespace"`
	Timeout   time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with the stock settings.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8082,
		},
		Store: StoreConfig{
			Backend:   store.BackendRedis,
			Host:      "127.0.0.1",
			Port:      6379,
			Namespace: store.DefaultNamespace,
		},
		IDs:  IDsLocal,
		Seed: true,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads a YAML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from TODO_* variables found through lookup
// (usually os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TODO_HTTP_HOST":       &c.HTTP.Host,
		"TODO_BASE_PATH":       &c.HTTP.BasePath,
		"TODO_STORE_BACKEND":   &c.Store.Backend,
		"TODO_STORE_HOST":      &c.Store.Host,
		"TODO_STORE_PASSWORD":  &c.Store.Password,
		"TODO_STORE_NAMESPACE": &c.Store.Namespace,
		"TODO_IDS":             &c.IDs,
		"TODO_LOG_LEVEL":       &c.Log.Level,
		"TODO_LOG_FORMAT":      &c.Log.Format,
	}
	for name, p := range strs {
		if v, ok := lookup(name); ok {
			*p = v
		}
	}

	ints := map[string]*int{
		"TODO_HTTP_PORT":  &c.HTTP.Port,
		"TODO_STORE_PORT": &c.Store.Port,
		"TODO_STORE_DB":   &c.Store.DB,
	}
	for name, p := range ints {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*p = n
	}

	if v, ok := lookup("TODO_STORE_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("TODO_STORE_TIMEOUT: %w", err)
		}
		c.Store.Timeout = d
	}
	if v, ok := lookup("TODO_SEED"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("TODO_SEED: %w", err)
		}
		c.Seed = b
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.Store.Port <= 0 || c.Store.Port > 65535 {
		return fmt.Errorf("store.port %d out of range", c.Store.Port)
	}
	if c.Store.Timeout < 0 {
		return fmt.Errorf("store.timeout must be >= 0")
	}
	switch c.Store.Backend {
	case store.BackendRedis, store.BackendMemory:
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	switch c.IDs {
	case IDsLocal:
	case IDsStore:
		if c.Store.Backend == store.BackendMemory {
			return fmt.Errorf("ids %q needs a shared backend, not %q", c.IDs, c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown ids mode %q", c.IDs)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

// HTTPAddr is the host:port the server binds.
func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.HTTP.Host, strconv.Itoa(c.HTTP.Port))
}

// StoreOptions translates the store section for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:   c.Store.Backend,
		Addr:      net.JoinHostPort(c.Store.Host, strconv.Itoa(c.Store.Port)),
		Password:  c.Store.Password,
		DB:        c.Store.DB,
		Namespace: c.Store.Namespace,
		SharedIDs: c.IDs == IDsStore,
	}
}
