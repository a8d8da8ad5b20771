package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY", "legacy-key")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "./data/monitor.db", cfg.DBDSN)
	assert.Equal(t, "file", cfg.ArtifactBackend)
	assert.Equal(t, 90*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 64, cfg.AnalysisCacheSize)
	assert.Equal(t, "legacy-key", cfg.GeminiAPIKey)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("GEMINI_API_KEY", "primary")
	t.Setenv("API_KEY", "legacy")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("ANALYSIS_CACHE_SIZE", "8")
	t.Setenv("ARTIFACT_BACKEND", "s3")
	t.Setenv("S3_ENDPOINT", "minio:9000")
	t.Setenv("S3_BUCKET", "monitor")
	t.Setenv("S3_ACCESS_KEY", "a")
	t.Setenv("S3_SECRET_KEY", "s")
	t.Setenv("S3_USE_SSL", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "primary", cfg.GeminiAPIKey)
	assert.Equal(t, 15*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 8, cfg.AnalysisCacheSize)
	assert.Equal(t, "s3", cfg.ArtifactBackend)
	assert.True(t, cfg.S3UseSSL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "port", env: map[string]string{"PORT": "http"}, want: "PORT"},
		{name: "log format", env: map[string]string{"LOG_FORMAT": "xml"}, want: "LOG_FORMAT"},
		{name: "backend", env: map[string]string{"ARTIFACT_BACKEND": "ftp"}, want: "ARTIFACT_BACKEND"},
		{name: "s3 incomplete", env: map[string]string{"ARTIFACT_BACKEND": "s3", "S3_ENDPOINT": "x"}, want: "S3_BUCKET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
