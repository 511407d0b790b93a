package ingest

import (
	"strings"
	"time"
)

// Config contains ingestion configuration
type Config struct {
	PermitsFile       string `yaml:"permits_file" mapstructure:"permits_file"`
	ClustersFile      string `yaml:"clusters_file" mapstructure:"clusters_file"`
	EnergyStatsFile   string `yaml:"energy_stats_file" mapstructure:"energy_stats_file"`
	LLMCategoriesFile string `yaml:"llm_categories_file" mapstructure:"llm_categories_file"`
	BatchSize         int    `yaml:"batch_size" mapstructure:"batch_size"`
	ProgressEveryRows int    `yaml:"progress_every_rows" mapstructure:"progress_every_rows"`
	MaxDescriptionLen int    `yaml:"max_description_len" mapstructure:"max_description_len"`
}

// Result represents the outcome of one streaming permit load
type Result struct {
	TotalRecords   int64         `json:"total_records"`
	Written        int64         `json:"written"`
	DecodeFailures int64         `json:"decode_failures"`
	FailedBatches  int64         `json:"failed_batches"`
	FailedRows     int64         `json:"failed_rows"`
	Duration       time.Duration `json:"duration"`
	DatabaseTime   time.Duration `json:"database_time"`
}

// rowMap is one decoded input row, fields resolved by header name. Missing
// or unparseable fields are simply absent.
type rowMap map[string]string

// FileFormat represents supported permit extract formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "json"
)

// DetectFileFormat detects file format from extension, looking through a
// trailing .gz suffix
func DetectFileFormat(filename string) FileFormat {
	name := strings.TrimSuffix(filename, ".gz")
	switch {
	case strings.HasSuffix(name, ".csv"):
		return FormatCSV
	case strings.HasSuffix(name, ".parquet"):
		return FormatParquet
	case strings.HasSuffix(name, ".json"), strings.HasSuffix(name, ".jsonl"):
		return FormatJSON
	default:
		return FormatCSV // Default to CSV
	}
}
