package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `mapstructure:"PORT"`
	Environment  string `mapstructure:"ENV"`
	ReadTimeout  int    `mapstructure:"READ_TIMEOUT"`
	WriteTimeout int    `mapstructure:"WRITE_TIMEOUT"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	DBDSN          string `mapstructure:"DB_DSN"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	GeminiAPIKey      string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string        `mapstructure:"GEMINI_MODEL"`
	AnalysisCacheSize int           `mapstructure:"ANALYSIS_CACHE_SIZE"`
	LLMTimeout        time.Duration `mapstructure:"LLM_TIMEOUT"`

	ArtifactBackend string `mapstructure:"ARTIFACT_BACKEND"`
	ArtifactDir     string `mapstructure:"ARTIFACT_DIR"`
	S3Endpoint      string `mapstructure:"S3_ENDPOINT"`
	S3Region        string `mapstructure:"S3_REGION"`
	S3AccessKey     string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey     string `mapstructure:"S3_SECRET_KEY"`
	S3Bucket        string `mapstructure:"S3_BUCKET"`
	S3UseSSL        bool   `mapstructure:"S3_USE_SSL"`
}

var defaults = map[string]interface{}{
	"PORT":                "3000",
	"ENV":                 "development",
	"READ_TIMEOUT":        10,
	"WRITE_TIMEOUT":       120,
	"CORS_ORIGINS":        "*",
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "console",
	"DB_DSN":              "./data/monitor.db",
	"MIGRATIONS_PATH":     "./migrations/001_init_monitor.sql",
	"GEMINI_API_KEY":      "",
	"GEMINI_MODEL":        "gemini-2.5-flash",
	"ANALYSIS_CACHE_SIZE": 64,
	"LLM_TIMEOUT":         "90s",
	"ARTIFACT_BACKEND":    "file",
	"ARTIFACT_DIR":        "./data/artifacts",
	"S3_ENDPOINT":         "",
	"S3_REGION":           "us-east-1",
	"S3_ACCESS_KEY":       "",
	"S3_SECRET_KEY":       "",
	"S3_BUCKET":           "",
	"S3_USE_SSL":          false,
}

// Load читает .env, необязательный config.yaml и переменные окружения.
// Переменные окружения имеют приоритет над файлом.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("API_KEY")
	}
	cfg.ArtifactBackend = strings.ToLower(strings.TrimSpace(cfg.ArtifactBackend))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.AnalysisCacheSize <= 0 {
		cfg.AnalysisCacheSize = 64
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 90 * time.Second
	}
}

func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be a number, got %q", c.Port)
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("READ_TIMEOUT and WRITE_TIMEOUT must be positive")
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	switch c.ArtifactBackend {
	case "file":
		if c.ArtifactDir == "" {
			return fmt.Errorf("ARTIFACT_DIR is required for the file backend")
		}
	case "s3":
		if c.S3Endpoint == "" || c.S3Bucket == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("S3_ENDPOINT, S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 backend")
		}
	default:
		return fmt.Errorf("ARTIFACT_BACKEND must be file or s3, got %q", c.ArtifactBackend)
	}
	return nil
}

// IsProduction сообщает, что сервис запущен в production-окружении.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// loadEnvFile подгружает .env из текущего каталога или корня модуля.
func loadEnvFile() {
	paths := []string{".env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
