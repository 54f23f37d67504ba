package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/marmoset/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValues(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, 0, cfg.WorkerPoolSize) // 0 means auto-detect
	assert.Equal(t, config.DefaultPartitionCount, cfg.DefaultPartitions)
	assert.Equal(t, config.DefaultParallelThreshold, cfg.ParallelThreshold)
	assert.Equal(t, "snappy", cfg.ParquetCompression)
	assert.Equal(t, config.DefaultBatchSize, cfg.ParquetBatchSize)
	assert.Equal(t, "marmoset", cfg.ExtensionTag)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"negative worker pool", func(c *config.Config) { c.WorkerPoolSize = -1 }, "WorkerPoolSize"},
		{"zero partitions", func(c *config.Config) { c.DefaultPartitions = 0 }, "DefaultPartitions"},
		{"zero threshold", func(c *config.Config) { c.ParallelThreshold = 0 }, "ParallelThreshold"},
		{"bad compression", func(c *config.Config) { c.ParquetCompression = "brotli" }, "compression"},
		{"zero batch size", func(c *config.Config) { c.ParquetBatchSize = 0 }, "ParquetBatchSize"},
		{"empty tag", func(c *config.Config) { c.ExtensionTag = "" }, "ExtensionTag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := config.Config{ParquetCompression: "zstd"}.WithDefaults()

	assert.Equal(t, "zstd", cfg.ParquetCompression)
	assert.Equal(t, config.DefaultPartitionCount, cfg.DefaultPartitions)
	assert.Equal(t, config.DefaultBatchSize, cfg.ParquetBatchSize)
	assert.Equal(t, "marmoset", cfg.ExtensionTag)
}

func TestConfig_Global(t *testing.T) {
	original := config.Global()
	defer config.SetGlobal(original)

	custom := config.NewConfig()
	custom.WorkerPoolSize = 2
	config.SetGlobal(custom)

	assert.Equal(t, 2, config.Global().WorkerPoolSize)
}

func TestConfig_LoadFromJSON(t *testing.T) {
	cfg, err := config.LoadFromJSON([]byte(`{"worker_pool_size": 8, "parquet_compression": "gzip"}`))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.WorkerPoolSize)
	assert.Equal(t, "gzip", cfg.ParquetCompression)
	assert.Equal(t, config.DefaultPartitionCount, cfg.DefaultPartitions)
}

func TestConfig_LoadFromJSONInvalid(t *testing.T) {
	_, err := config.LoadFromJSON([]byte(`{bad`))
	assert.Error(t, err)
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("default_partitions: 16\nextension_tag: custom\n"), 0o644))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 16, cfg.DefaultPartitions)
		assert.Equal(t, "custom", cfg.ExtensionTag)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"parquet_batch_size": 500}`), 0o644))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 500, cfg.ParquetBatchSize)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

		_, err := config.LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadFromFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("MARMOSET_WORKER_POOL_SIZE", "3")
	t.Setenv("MARMOSET_PARQUET_COMPRESSION", "lz4")
	t.Setenv("MARMOSET_EXTENSION_TAG", "pipeline-a")

	cfg := config.LoadFromEnv()

	assert.Equal(t, 3, cfg.WorkerPoolSize)
	assert.Equal(t, "lz4", cfg.ParquetCompression)
	assert.Equal(t, "pipeline-a", cfg.ExtensionTag)
	assert.Equal(t, config.DefaultPartitionCount, cfg.DefaultPartitions)
}
