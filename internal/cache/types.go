package cache

import "time"

// Config contains serving-cache configuration
type Config struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	FreshnessTTL   time.Duration `yaml:"freshness_ttl" mapstructure:"freshness_ttl"`
}

// RefreshRecord is the freshness document published for one dataset so the
// serving layer can detect staleness without querying the store
type RefreshRecord struct {
	Dataset     string    `json:"dataset"`
	RecordCount int64     `json:"record_count"`
	SourceFile  string    `json:"source_file"`
	RefreshedAt time.Time `json:"refreshed_at"`
}
