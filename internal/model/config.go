package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	Source       SourceConfig       `yaml:"source" mapstructure:"source"`
	Search       SearchConfig       `yaml:"search" mapstructure:"search"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Existence    ExistenceConfig    `yaml:"existence" mapstructure:"existence"`
}

// SourceConfig locates the two input artifacts
type SourceConfig struct {
	ProteinsPath string `yaml:"proteins_path" mapstructure:"proteins_path"` // TSV/CSV table or SQLite database
	MentionsPath string `yaml:"mentions_path" mapstructure:"mentions_path"` // JSON index, TSV directory or SQLite database
	LoadWorkers  int    `yaml:"load_workers" mapstructure:"load_workers"`   // Concurrent file reads for TSV directories
}

// SearchConfig selects which protein fields free-text search scans
type SearchConfig struct {
	Fields []SearchField `yaml:"fields" mapstructure:"fields"`
}

// ConcurrencyConfig controls per-protein mention filtering
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"` // 1 runs the pass sequentially
}

// CacheConfig controls the parsed-artifact cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ServerConfig controls the HTTP adapter
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	WatchSources   bool          `yaml:"watch_sources" mapstructure:"watch_sources"`
	ReloadDebounce time.Duration `yaml:"reload_debounce" mapstructure:"reload_debounce"`
}

// RateLimitingConfig sets the per-client token bucket
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	MaxTableRows  int    `yaml:"max_table_rows" mapstructure:"max_table_rows"` // 0 prints every row
	MentionSort   string `yaml:"mention_sort" mapstructure:"mention_sort"`     // year_desc, year_asc, fraction_desc
}

// ExistenceConfig maps raw existence labels onto canonical levels
type ExistenceConfig struct {
	Aliases  map[string]ExistenceLevel `yaml:"aliases" mapstructure:"aliases"`
	Patterns []ExistencePattern        `yaml:"patterns" mapstructure:"patterns"`
}

// ExistencePattern maps labels matching a regular expression to a level
type ExistencePattern struct {
	Pattern string         `yaml:"pattern" mapstructure:"pattern"`
	Level   ExistenceLevel `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			LoadWorkers: 8,
		},
		Search: SearchConfig{
			Fields: DefaultSearchFields(),
		},
		Concurrency: ConcurrencyConfig{
			Workers: 1,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // resolved to ~/.ignoromenot/cache by the CLI
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8501",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			WatchSources:   true,
			ReloadDebounce: 500 * time.Millisecond,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 20,
			BurstSize:         40,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			MaxTableRows:  50,
			MentionSort:   "year_desc",
		},
		Existence: ExistenceConfig{
			Aliases: map[string]ExistenceLevel{
				"protein level":    ExistenceProtein,
				"transcript level": ExistenceTranscript,
				"homology":         ExistenceHomology,
				"predicted":        ExistencePredicted,
				"uncertain":        ExistenceUncertain,
			},
			Patterns: []ExistencePattern{
				{Pattern: `(?i)^(PE\s*)?1(\s*:.*)?$`, Level: ExistenceProtein},
				{Pattern: `(?i)^(PE\s*)?2(\s*:.*)?$`, Level: ExistenceTranscript},
				{Pattern: `(?i)^(PE\s*)?3(\s*:.*)?$`, Level: ExistenceHomology},
				{Pattern: `(?i)^(PE\s*)?4(\s*:.*)?$`, Level: ExistencePredicted},
				{Pattern: `(?i)^(PE\s*)?5(\s*:.*)?$`, Level: ExistenceUncertain},
			},
		},
	}
}
