package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFromFileOnly(t *testing.T) {
	path := writeTempConfig(t, `
aliyun:
  api_key: "file-key"
  model: "qwen-plus"
llm_parser:
  max_attempts: 5
  extraction_timeout: "30s"
mysql:
  host: "db.internal"
  port: 3306
  reset_on_init: true
server:
  address: ":9090"
`)

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Aliyun.APIKey)
	assert.Equal(t, 5, cfg.LLMParser.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.LLMParser.ExtractionTimeoutDuration())
	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.True(t, cfg.MySQL.ResetOnInit)
	assert.Equal(t, ":9090", cfg.Server.Address)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
aliyun:
  api_key: "k"
`)

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 3, cfg.LLMParser.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.LLMParser.ExtractionTimeoutDuration())
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 3, cfg.OCR.MedianSize)
	assert.Equal(t, filepath.Join("data", "sample_cvs"), cfg.Upload.Dir)
	assert.Equal(t, "cv-originals", cfg.MinIO.OriginalsBucket)
	assert.False(t, cfg.MySQL.ResetOnInit)
	assert.Equal(t, 24*time.Hour, cfg.Redis.SessionTTL())
}

func TestLoadConfigEnvOverridesAPIKey(t *testing.T) {
	path := writeTempConfig(t, `
aliyun:
  api_key: "file-key"
`)

	t.Setenv("ALIYUN_API_KEY", "env-key")
	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Aliyun.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFromFileOnly(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestExtractionTimeoutFallback(t *testing.T) {
	c := LLMParserConfig{ExtractionTimeout: "garbage"}
	assert.Equal(t, 60*time.Second, c.ExtractionTimeoutDuration())
}
