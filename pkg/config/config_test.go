package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
storage:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "auto", cfg.Index.Compression)
	assert.Equal(t, "pt", cfg.Index.IndexType)
	assert.Equal(t, "is_alias", cfg.Query.DefaultType)
	assert.Equal(t, 1000, cfg.Query.NQuery)
}

func TestLoad_CustomValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
index:
  path: /data/test.pes
  compression: gzip
  index_type: se
storage:
  type: local
  local_path: /tmp/storage
query:
  default_type: list_points_to
  n_query: 5000
  print_answers: true
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, "/data/test.pes", cfg.Index.Path)
	assert.Equal(t, "gzip", cfg.Index.Compression)
	assert.Equal(t, "se", cfg.Index.IndexType)
	assert.Equal(t, "/tmp/storage", cfg.Storage.LocalPath)
	assert.Equal(t, "list_points_to", cfg.Query.DefaultType)
	assert.Equal(t, 5000, cfg.Query.NQuery)
	assert.True(t, cfg.Query.PrintAnswers)
}

func TestLoad_InvalidIndexType(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
index:
  index_type: both
storage:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	_, err = Load(configFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported index type")
}

func TestLoad_InvalidCompression(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
index:
  compression: lz4
storage:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	_, err = Load(configFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported index compression")
}

func TestLoad_COSWithCredentials(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
storage:
  type: cos
  bucket: test-bucket
  region: ap-guangzhou
  secret_id: test-id
  secret_key: test-key
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, "cos", cfg.Storage.Type)
	assert.Equal(t, "test-bucket", cfg.Storage.Bucket)
}

func TestValidate_InvalidNQuery(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{Type: "local"},
		Query:   QueryConfig{NQuery: -1},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "n_query must not be negative")
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadFromReader(t *testing.T) {
	content := []byte(`
index:
  path: /data/test.pes
  index_type: se
storage:
  type: local
`)
	cfg, err := LoadFromReader("yaml", content)
	require.NoError(t, err)
	assert.Equal(t, "/data/test.pes", cfg.Index.Path)
	assert.Equal(t, "se", cfg.Index.IndexType)
}
