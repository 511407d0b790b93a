package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig contains relational store configuration
type DatabaseConfig struct {
	URL             string        `yaml:"url" mapstructure:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// CacheConfig contains serving-cache invalidation configuration
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	FreshnessTTL   time.Duration `yaml:"freshness_ttl" mapstructure:"freshness_ttl"`
}

// IngestConfig contains input file paths and batch tuning
type IngestConfig struct {
	PermitsFile        string `yaml:"permits_file" mapstructure:"permits_file"`
	ClustersFile       string `yaml:"clusters_file" mapstructure:"clusters_file"`
	EnergyStatsFile    string `yaml:"energy_stats_file" mapstructure:"energy_stats_file"`
	LLMCategoriesFile  string `yaml:"llm_categories_file" mapstructure:"llm_categories_file"`
	BatchSize          int    `yaml:"batch_size" mapstructure:"batch_size"`
	ProgressEveryRows  int    `yaml:"progress_every_rows" mapstructure:"progress_every_rows"`
	MaxDescriptionLen  int    `yaml:"max_description_len" mapstructure:"max_description_len"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:             "postgres://localhost:5432/permits?sslmode=disable",
			MaxOpenConns:    8,
			MaxIdleConns:    4,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			KeyPrefix:      "permitatlas:",
			MaxConnections: 4,
			FreshnessTTL:   0, // freshness records do not expire
		},
		Ingest: IngestConfig{
			PermitsFile:       "output/permit_data_named_clusters.csv",
			ClustersFile:      "output/cluster_names.json",
			EnergyStatsFile:   "output/energy_infrastructure.json",
			LLMCategoriesFile: "data/llm_categories.json",
			BatchSize:         2000,
			ProgressEveryRows: 100000,
			MaxDescriptionLen: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
