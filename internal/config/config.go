// Package config provides configuration management for frame and catalog
// operations.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config is the global configuration for frame and catalog operations.
type Config struct {
	// Parallel processing.
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`       // Number of worker goroutines (0 = auto-detect)
	DefaultPartitions int `json:"default_partitions" yaml:"default_partitions"`   // Partition count when the caller does not choose one
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"`   // Minimum rows before partitioned execution pays off

	// Dataset persistence.
	ParquetCompression string `json:"parquet_compression" yaml:"parquet_compression"` // snappy, gzip, zstd, lz4 or uncompressed
	ParquetBatchSize   int    `json:"parquet_batch_size" yaml:"parquet_batch_size"`   // Row batch size for parquet writes

	// Catalog.
	ExtensionTag string `json:"extension_tag" yaml:"extension_tag"` // Metadata tag marking entries written by this module
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultPartitionCount    = 4
	DefaultParallelThreshold = 1000
	DefaultCompression       = "snappy"
	DefaultBatchSize         = 1000
	DefaultExtensionTag      = "marmoset"
)

func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values.
func NewConfig() Config {
	return Config{
		WorkerPoolSize:     0, // Auto-detect
		DefaultPartitions:  DefaultPartitionCount,
		ParallelThreshold:  DefaultParallelThreshold,
		ParquetCompression: DefaultCompression,
		ParquetBatchSize:   DefaultBatchSize,
		ExtensionTag:       DefaultExtensionTag,
	}
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}
	if c.DefaultPartitions <= 0 {
		return fmt.Errorf("DefaultPartitions must be positive, got %d", c.DefaultPartitions)
	}
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}
	switch c.ParquetCompression {
	case "snappy", "gzip", "zstd", "lz4", "uncompressed":
	default:
		return fmt.Errorf("unsupported parquet compression %q", c.ParquetCompression)
	}
	if c.ParquetBatchSize <= 0 {
		return fmt.Errorf("ParquetBatchSize must be positive, got %d", c.ParquetBatchSize)
	}
	if c.ExtensionTag == "" {
		return fmt.Errorf("ExtensionTag must not be empty")
	}
	return nil
}

// WithDefaults returns the configuration with default values filled in for
// zero values.
func (c Config) WithDefaults() Config {
	defaults := NewConfig()
	if c.DefaultPartitions == 0 {
		c.DefaultPartitions = defaults.DefaultPartitions
	}
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.ParquetCompression == "" {
		c.ParquetCompression = defaults.ParquetCompression
	}
	if c.ParquetBatchSize == 0 {
		c.ParquetBatchSize = defaults.ParquetBatchSize
	}
	if c.ExtensionTag == "" {
		c.ExtensionTag = defaults.ExtensionTag
	}
	return c
}

// SetGlobal sets the global configuration.
func SetGlobal(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// Global returns the current global configuration.
func Global() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data.
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from MARMOSET_* environment variables,
// starting from the defaults.
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("MARMOSET_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerPoolSize = parsed
		}
	}
	if val := os.Getenv("MARMOSET_DEFAULT_PARTITIONS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.DefaultPartitions = parsed
		}
	}
	if val := os.Getenv("MARMOSET_PARALLEL_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelThreshold = parsed
		}
	}
	if val := os.Getenv("MARMOSET_PARQUET_COMPRESSION"); val != "" {
		config.ParquetCompression = val
	}
	if val := os.Getenv("MARMOSET_PARQUET_BATCH_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParquetBatchSize = parsed
		}
	}
	if val := os.Getenv("MARMOSET_EXTENSION_TAG"); val != "" {
		config.ExtensionTag = val
	}

	return config
}
