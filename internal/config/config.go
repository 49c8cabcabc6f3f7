package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/ragtutor/internal/domain"
)

// Database drivers.
const (
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
	DriverPostgres = "postgres"
)

// Config holds the ragtutor API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	RAG       RAGConfig       `yaml:"rag"`
	Agent     AgentConfig     `yaml:"agent"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys means auth is off.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig holds the per-process token bucket. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadBytes  int64 `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, postgres (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	DSN              string   `yaml:"dsn"` // postgres only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LLMConfig holds completion backend settings.
type LLMConfig struct {
	Provider            string   `yaml:"provider"`
	APIKey              string   `yaml:"api_key"`
	BaseURL             string   `yaml:"base_url"`
	Model               string   `yaml:"model"`
	ClassificationModel string   `yaml:"classification_model"`
	AgentModel          string   `yaml:"agent_model"`
	Temperature         *float32 `yaml:"temperature"`
	MaxTokens           int      `yaml:"max_tokens"`
	ContextWindow       int      `yaml:"context_window"`
	NumOutput           int      `yaml:"num_output"`
	TimeoutSec          int      `yaml:"timeout_sec"`
}

// EmbeddingConfig holds embedding settings. Empty credentials fall back to llm.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`
	CacheTTLSec         int    `yaml:"cache_ttl_sec"` // 0 = no expiry
	MaxBatchSize        int    `yaml:"max_batch_size"`
}

// RAGConfig holds retrieval, synthesis and ingestion settings.
type RAGConfig struct {
	TopK                  *int     `yaml:"top_k"`
	LongAnswerTopK        *int     `yaml:"long_answer_top_k"`
	ExcludedMetadataKeys  []string `yaml:"excluded_metadata_keys"`
	ResponseMode          string   `yaml:"response_mode"`
	ClassificationEnabled bool     `yaml:"classification_enabled"`
	IndexName             string   `yaml:"index_name"`
	Namespace             string   `yaml:"namespace"`
	ChunkSize             int      `yaml:"chunk_size"`
	ChunkOverlap          *int     `yaml:"chunk_overlap"`
}

// AgentConfig holds agent routing settings.
type AgentConfig struct {
	RoutingEnabled bool `yaml:"routing_enabled"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, unmarshals it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w: %w", domain.ErrConfiguration, err)
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
//
//nolint:gocyclo // flat list of defaults
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120 // completions are slow
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 32 << 20
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
	if c.LLM.ClassificationModel == "" {
		c.LLM.ClassificationModel = c.LLM.Model
	}
	if c.LLM.AgentModel == "" {
		c.LLM.AgentModel = "gpt-4"
	}
	if c.LLM.Temperature == nil {
		t := float32(0.7)
		c.LLM.Temperature = &t
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 4096
	}
	if c.LLM.ContextWindow <= 0 {
		c.LLM.ContextWindow = 128000
	}
	if c.LLM.NumOutput <= 0 {
		c.LLM.NumOutput = c.LLM.MaxTokens
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}

	defaults := domain.DefaultEmbedding()
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = c.LLM.Provider
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.LLM.APIKey
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = c.LLM.BaseURL
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = defaults.Model
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = defaults.Dimensions
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 256
	}

	// Absent keys only; explicit values are left for Validate.
	if c.RAG.TopK == nil {
		c.RAG.TopK = intPtr(2)
	}
	if c.RAG.LongAnswerTopK == nil {
		c.RAG.LongAnswerTopK = intPtr(5)
	}
	if c.RAG.ResponseMode == "" {
		c.RAG.ResponseMode = string(domain.ResponseModeCompactAccumulate)
	}
	if c.RAG.IndexName == "" {
		c.RAG.IndexName = domain.KeyPrefix + "idx"
	}
	if c.RAG.Namespace == "" {
		c.RAG.Namespace = "default"
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = 1024
	}
	if c.RAG.ChunkOverlap == nil {
		c.RAG.ChunkOverlap = intPtr(20)
	}

	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = max(1, int(c.RateLimit.RPS))
	}
}

// Validate checks the configuration for correctness.
// Every failure wraps domain.ErrConfiguration.
//
//nolint:gocyclo // flat list of checks
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return invalid("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return invalid("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return invalid("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return invalid("database.driver must be redis, valkey or postgres, got %q", c.Database.Driver)
	}

	if c.LLM.Model == "" {
		return invalid("llm.model is required")
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return invalid("llm.temperature must be between 0 and 2, got %g", *t)
	}
	if c.LLM.NumOutput >= c.LLM.ContextWindow {
		return invalid("llm.num_output (%d) must be less than llm.context_window (%d)",
			c.LLM.NumOutput, c.LLM.ContextWindow)
	}

	if c.Embedding.Model == "" {
		return invalid("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return invalid("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.CacheTTLSec < 0 {
		return invalid("embedding.cache_ttl_sec must not be negative, got %d", c.Embedding.CacheTTLSec)
	}

	if c.RAG.TopK == nil || *c.RAG.TopK <= 0 {
		return invalid("rag.top_k must be positive, got %s", intString(c.RAG.TopK))
	}
	if c.RAG.LongAnswerTopK == nil || *c.RAG.LongAnswerTopK <= 0 {
		return invalid("rag.long_answer_top_k must be positive, got %s", intString(c.RAG.LongAnswerTopK))
	}
	if _, err := domain.ParseResponseMode(c.RAG.ResponseMode); err != nil {
		return fmt.Errorf("rag.response_mode: %w", err)
	}
	if c.RAG.ChunkOverlap == nil || *c.RAG.ChunkOverlap < 0 {
		return invalid("rag.chunk_overlap must not be negative, got %s", intString(c.RAG.ChunkOverlap))
	}
	if *c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return invalid("rag.chunk_overlap (%d) must be less than rag.chunk_size (%d)",
			*c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}

	if c.RateLimit.RPS < 0 {
		return invalid("rate_limit.rps must not be negative, got %g", c.RateLimit.RPS)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrConfiguration)
}

func intPtr(v int) *int { return &v }

func intString(v *int) string {
	if v == nil {
		return "unset"
	}
	return strconv.Itoa(*v)
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
