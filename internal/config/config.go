package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the monitor service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Clients ClientsConfig `yaml:"clients"`
	Logging LoggingConfig `yaml:"logging"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ClientsConfig groups the external provider integrations.
type ClientsConfig struct {
	Catalog   CatalogClientConfig   `yaml:"catalog"`
	Collector CollectorClientConfig `yaml:"collector"`
}

// CatalogClientConfig configures access to the resource catalog provider.
type CatalogClientConfig struct {
	BaseURL       string        `yaml:"baseURL"`
	ResourcesPath string        `yaml:"resourcesPath"`
	Timeout       time.Duration `yaml:"timeout"`
}

// CollectorClientConfig configures access to the metric collection provider.
type CollectorClientConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	CollectPath string        `yaml:"collectPath"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls the optional Redis-backed catalog cache. The metric
// store itself is always in-memory and is not affected by these settings.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	CatalogTTL   time.Duration `yaml:"catalogTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("UDS_MONITOR_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Clients: ClientsConfig{
			Catalog: CatalogClientConfig{
				ResourcesPath: "/api/resources/list",
				Timeout:       5 * time.Second,
			},
			Collector: CollectorClientConfig{
				CollectPath: "/api/dashboard/metrics",
				Timeout:     30 * time.Second,
			},
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			CatalogTTL:   2 * time.Minute,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UDS_MONITOR_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("UDS_MONITOR_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("UDS_MONITOR_CATALOG_BASE_URL"); v != "" {
		cfg.Clients.Catalog.BaseURL = v
	}
	if v := os.Getenv("UDS_MONITOR_CATALOG_RESOURCES_PATH"); v != "" {
		cfg.Clients.Catalog.ResourcesPath = v
	}
	if v := os.Getenv("UDS_MONITOR_COLLECTOR_BASE_URL"); v != "" {
		cfg.Clients.Collector.BaseURL = v
	}
	if v := os.Getenv("UDS_MONITOR_COLLECTOR_COLLECT_PATH"); v != "" {
		cfg.Clients.Collector.CollectPath = v
	}
	if v := os.Getenv("UDS_MONITOR_COLLECTOR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Clients.Collector.Timeout = d
		}
	}
	if v := os.Getenv("UDS_MONITOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("UDS_MONITOR_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("UDS_MONITOR_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("UDS_MONITOR_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("UDS_MONITOR_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("UDS_MONITOR_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("UDS_MONITOR_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("UDS_MONITOR_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("UDS_MONITOR_CACHE_CATALOG_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.CatalogTTL = d
		}
	}
}
