package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the careline API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Records   RecordsConfig   `yaml:"records"`
	Chat      ChatConfig      `yaml:"chat"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Each key scopes requests to
// the caller it was issued to.
type AuthConfig struct {
	APIKeys map[string]string `yaml:"api_keys"` // key -> caller id
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vector index (Redis) connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RecordsConfig holds the relational record store settings.
type RecordsConfig struct {
	Path string `yaml:"path"` // SQLite file; ":memory:" for ephemeral runs
	Seed bool   `yaml:"seed"` // load demo fixtures on first open
}

// ChatConfig holds resolution and retrieval settings.
type ChatConfig struct {
	Collection           string  `yaml:"collection"`
	ChunkSize            int     `yaml:"chunk_size"`
	ChunkOverlap         int     `yaml:"chunk_overlap"`
	MaxResults           int     `yaml:"max_results"`
	RelevanceThreshold   float64 `yaml:"relevance_threshold"`
	ContextCharLimit     int     `yaml:"context_char_limit"`
	ExtractCharLimit     int     `yaml:"extract_char_limit"`
	GenerationEnabled    bool    `yaml:"generation_enabled"`
	HistoryRetentionDays int     `yaml:"history_retention_days"`
	ProviderTimeoutSec   int     `yaml:"provider_timeout_sec"`
}

// EmbeddingConfig holds embedding strategy settings. The strategy is fixed
// per collection; changing it invalidates stored vectors and requires
// re-ingestion.
type EmbeddingConfig struct {
	Strategy   string `yaml:"strategy"` // external, local_fallback
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	ChatModel  string `yaml:"chat_model"`
	Dimensions int    `yaml:"dimensions"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Records.Path == "" {
		c.Records.Path = "careline.db"
	}
	if c.Chat.Collection == "" {
		c.Chat.Collection = "docs"
	}
	if c.Chat.ChunkSize <= 0 {
		c.Chat.ChunkSize = 800
	}
	if c.Chat.ChunkOverlap <= 0 {
		c.Chat.ChunkOverlap = 150
	}
	if c.Chat.MaxResults <= 0 {
		c.Chat.MaxResults = 5
	}
	if c.Chat.RelevanceThreshold <= 0 {
		c.Chat.RelevanceThreshold = 0.2
	}
	if c.Chat.ContextCharLimit <= 0 {
		c.Chat.ContextCharLimit = 4000
	}
	if c.Chat.ExtractCharLimit <= 0 {
		c.Chat.ExtractCharLimit = 600
	}
	if c.Chat.HistoryRetentionDays <= 0 {
		c.Chat.HistoryRetentionDays = 90
	}
	if c.Chat.ProviderTimeoutSec <= 0 {
		c.Chat.ProviderTimeoutSec = 15
	}
	if c.Embedding.Strategy == "" {
		c.Embedding.Strategy = "local_fallback"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 128
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.ChatModel == "" {
		c.Embedding.ChatModel = "gpt-4o-mini"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Embedding.Strategy {
	case "external", "local_fallback":
	default:
		return fmt.Errorf(
			"embedding.strategy must be \"external\" or \"local_fallback\", got %q",
			c.Embedding.Strategy,
		)
	}
	if c.Embedding.Strategy == "external" && c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required for the external strategy")
	}
	if c.Chat.ChunkOverlap >= c.Chat.ChunkSize {
		return fmt.Errorf("chat.chunk_overlap must be smaller than chat.chunk_size")
	}
	if c.Chat.RelevanceThreshold < 0 || c.Chat.RelevanceThreshold > 1 {
		return fmt.Errorf("chat.relevance_threshold must be within [0, 1], got %g",
			c.Chat.RelevanceThreshold)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
