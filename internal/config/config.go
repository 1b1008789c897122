package config

import (
	"fmt"
	"time"

	"github.com/iTrooz/response-cache/internal/cache/httpcache"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `koanf:"server" yaml:"server"`
	Cache  CacheConfig  `koanf:"cache" yaml:"cache"`
	Log    LogConfig    `koanf:"log" yaml:"log"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port      int         `koanf:"port" yaml:"port"`
	AdminPort int         `koanf:"admin_port" yaml:"admin_port"` // 0 disables the admin API
	HTTPS     HTTPSConfig `koanf:"https" yaml:"https"`
}

// HTTPSConfig contains TLS interception settings
type HTTPSConfig struct {
	Enabled         bool   `koanf:"enabled" yaml:"enabled"`
	CACertFile      string `koanf:"ca_cert_file" yaml:"ca_cert_file"`
	CAKeyFile       string `koanf:"ca_key_file" yaml:"ca_key_file"`
	TransparentAddr string `koanf:"transparent_addr" yaml:"transparent_addr"`
}

// CacheConfig contains cache-related configuration
type CacheConfig struct {
	TTL           string   `koanf:"ttl" yaml:"ttl"`
	Methods       []string `koanf:"methods" yaml:"methods"`
	IncludeURLs   []string `koanf:"include_urls" yaml:"include_urls"`
	ExcludeURLs   []string `koanf:"exclude_urls" yaml:"exclude_urls"`
	MaxSize       int      `koanf:"max_size" yaml:"max_size"`
	IncludeParams bool     `koanf:"include_params" yaml:"include_params"`
	Coalesce      bool     `koanf:"coalesce" yaml:"coalesce"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

// Default returns the configuration used for every key the file leaves out
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Cache: CacheConfig{
			TTL:           httpcache.DefaultTTL.String(),
			Methods:       []string{"GET"},
			IncludeURLs:   []string{},
			ExcludeURLs:   []string{},
			MaxSize:       httpcache.DefaultMaxSize,
			IncludeParams: true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load loads configuration from a YAML file on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &config, nil
}

// GetCacheTTL parses and returns the cache TTL duration
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}

// CacheOptions converts the cache section into response cache options
func (c *Config) CacheOptions() (httpcache.Options, error) {
	ttl, err := c.GetCacheTTL()
	if err != nil {
		return httpcache.Options{}, fmt.Errorf("invalid cache TTL: %w", err)
	}

	return httpcache.Options{
		TTL:           ttl,
		Methods:       c.Cache.Methods,
		IncludeURLs:   c.Cache.IncludeURLs,
		ExcludeURLs:   c.Cache.ExcludeURLs,
		MaxSize:       c.Cache.MaxSize,
		IncludeParams: httpcache.Bool(c.Cache.IncludeParams),
		Coalesce:      c.Cache.Coalesce,
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Server.AdminPort < 0 || c.Server.AdminPort > 65535 {
		return fmt.Errorf("invalid admin port: %d", c.Server.AdminPort)
	}

	if c.Server.AdminPort == c.Server.Port {
		return fmt.Errorf("admin port must differ from proxy port %d", c.Server.Port)
	}

	if (c.Server.HTTPS.CACertFile == "") != (c.Server.HTTPS.CAKeyFile == "") {
		return fmt.Errorf("CA certificate and key must be set together")
	}

	if c.Server.HTTPS.TransparentAddr != "" && !c.Server.HTTPS.Enabled {
		return fmt.Errorf("transparent HTTPS listener %s requires https.enabled", c.Server.HTTPS.TransparentAddr)
	}

	if c.Cache.TTL == "" {
		return fmt.Errorf("cache TTL is required")
	}

	ttl, err := c.GetCacheTTL()
	if err != nil {
		return fmt.Errorf("invalid cache TTL format: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", c.Cache.TTL)
	}

	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache max size must be positive, got: %d", c.Cache.MaxSize)
	}

	if len(c.Cache.Methods) == 0 {
		return fmt.Errorf("at least one cacheable method is required")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}
