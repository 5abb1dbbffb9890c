// Package config loads settings for the recgo command.
//
// Precedence, lowest to highest:
//
//  1. Built-in defaults (NewConfig)
//  2. YAML file (--config, or recgo.yaml in the working directory)
//  3. RECGO_* environment variables
//
// Command-line flags are applied by the command on top of the result.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up when no path is given.
const DefaultFile = "recgo.yaml"

// Config is the full command configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Dataset DatasetConfig `yaml:"dataset" json:"dataset"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	S3      S3Config      `yaml:"s3" json:"s3"`
	MinIO   MinIOConfig   `yaml:"minio" json:"minio"`
}

// DatasetConfig describes the records to load.
type DatasetConfig struct {
	// Path is a local path or a location such as s3://bucket/key or
	// minio://bucket/key.
	Path          string   `yaml:"path" json:"path"`
	PrimaryKey    string   `yaml:"primary_key" json:"primary_key"`
	IndexedFields []string `yaml:"indexed_fields,omitempty" json:"indexed_fields,omitempty"`
	SearchFields  []string `yaml:"search_fields,omitempty" json:"search_fields,omitempty"`
}

// CacheConfig configures the query cache.
type CacheConfig struct {
	Capacity int    `yaml:"capacity" json:"capacity"` // 0 disables caching
	TTL      string `yaml:"ttl" json:"ttl"`
}

// StoreConfig tunes query execution and compaction.
type StoreConfig struct {
	ScanWorkers         int     `yaml:"scan_workers" json:"scan_workers"`
	CompactionThreshold float64 `yaml:"compaction_threshold" json:"compaction_threshold"`
	SlowQuery           string  `yaml:"slow_query" json:"slow_query"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format   string `yaml:"format" json:"format"` // json, table or auto
	PageSize int    `yaml:"page_size" json:"page_size"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // text or json
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"` // empty disables the endpoint
}

// S3Config configures s3:// dataset locations.
type S3Config struct {
	Region   string `yaml:"region" json:"region"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// MinIOConfig configures minio:// dataset locations.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	Secure    bool   `yaml:"secure" json:"secure"`
}

// NewConfig returns the defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Dataset: DatasetConfig{
			PrimaryKey: "id",
		},
		Cache: CacheConfig{
			Capacity: 100,
			TTL:      "5m",
		},
		Store: StoreConfig{
			ScanWorkers:         1,
			CompactionThreshold: 0.5,
		},
		Output: OutputConfig{
			Format:   "auto",
			PageSize: 10,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// the environment. An empty path reads DefaultFile if it exists.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadYAML decodes the file over the current values, so keys missing from
// the file keep their defaults.
func (c *Config) loadYAML(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RECGO_DATA"); v != "" {
		c.Dataset.Path = v
	}
	if v := os.Getenv("RECGO_PRIMARY_KEY"); v != "" {
		c.Dataset.PrimaryKey = v
	}
	if v := os.Getenv("RECGO_INDEXED_FIELDS"); v != "" {
		c.Dataset.IndexedFields = splitList(v)
	}
	if v := os.Getenv("RECGO_SEARCH_FIELDS"); v != "" {
		c.Dataset.SearchFields = splitList(v)
	}

	// Explicit zero is allowed: it disables the cache.
	if v := os.Getenv("RECGO_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Cache.Capacity = n
		}
	}
	if v := os.Getenv("RECGO_CACHE_TTL"); v != "" {
		c.Cache.TTL = v
	}

	if v := os.Getenv("RECGO_SCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Store.ScanWorkers = n
		}
	}
	if v := os.Getenv("RECGO_COMPACTION_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && t >= 0 && t <= 1 {
			c.Store.CompactionThreshold = t
		}
	}
	if v := os.Getenv("RECGO_SLOW_QUERY"); v != "" {
		c.Store.SlowQuery = v
	}

	if v := os.Getenv("RECGO_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("RECGO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RECGO_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("RECGO_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}

	if v := os.Getenv("RECGO_S3_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := os.Getenv("RECGO_S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv("RECGO_MINIO_ENDPOINT"); v != "" {
		c.MinIO.Endpoint = v
	}
	if v := os.Getenv("RECGO_MINIO_ACCESS_KEY"); v != "" {
		c.MinIO.AccessKey = v
	}
	if v := os.Getenv("RECGO_MINIO_SECRET_KEY"); v != "" {
		c.MinIO.SecretKey = v
	}
	if v := os.Getenv("RECGO_MINIO_SECURE"); v != "" {
		c.MinIO.Secure = strings.ToLower(v) == "true" || v == "1"
	}
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Dataset.PrimaryKey == "" {
		return errors.New("dataset.primary_key must not be empty")
	}
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must be non-negative, got %d", c.Cache.Capacity)
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	if _, err := c.SlowQueryThreshold(); err != nil {
		return err
	}
	if c.Store.ScanWorkers < 0 {
		return fmt.Errorf("store.scan_workers must be non-negative, got %d", c.Store.ScanWorkers)
	}
	if c.Store.CompactionThreshold < 0 || c.Store.CompactionThreshold > 1 {
		return fmt.Errorf("store.compaction_threshold must be between 0 and 1, got %f", c.Store.CompactionThreshold)
	}
	if c.Output.PageSize < 0 {
		return fmt.Errorf("output.page_size must be non-negative, got %d", c.Output.PageSize)
	}

	validFormats := map[string]bool{"json": true, "table": true, "auto": true}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		return fmt.Errorf("output.format must be 'json', 'table' or 'auto', got %s", c.Output.Format)
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}
	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		return fmt.Errorf("log.format must be 'text' or 'json', got %s", c.Log.Format)
	}

	return nil
}

// CacheTTL parses Cache.TTL. An empty value selects the store default.
func (c *Config) CacheTTL() (time.Duration, error) {
	return parseDuration("cache.ttl", c.Cache.TTL)
}

// SlowQueryThreshold parses Store.SlowQuery. Empty disables slow-query logs.
func (c *Config) SlowQueryThreshold() (time.Duration, error) {
	return parseDuration("store.slow_query", c.Store.SlowQuery)
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be non-negative, got %s", key, s)
	}
	return d, nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level must be 'debug', 'info', 'warn' or 'error', got %s", c.Log.Level)
	}
	return l, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
