package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the relevex API configuration.
type Config struct {
	HTTP        HTTPConfig         `yaml:"http"`
	Database    DatabaseConfig     `yaml:"database"`
	Index       IndexConfig        `yaml:"index"`
	NLP         NLPConfig          `yaml:"nlp"`
	Scoring     ScoringConfig      `yaml:"scoring"`
	Experiments []ExperimentConfig `yaml:"experiments"`
	Preferences PreferencesConfig  `yaml:"preferences"`
	Pagination  PaginationConfig   `yaml:"pagination"`
	Analytics   AnalyticsConfig    `yaml:"analytics"`
	Auth        AuthConfig         `yaml:"auth"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds Elasticsearch settings.
type IndexConfig struct {
	Addresses         []string `yaml:"addresses"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	Products          string   `yaml:"products"`
	RequestTimeoutSec int      `yaml:"request_timeout_sec"`
}

// NLPConfig holds query understanding settings.
type NLPConfig struct {
	IntentThreshold    float64 `yaml:"intent_threshold"`
	RefreshDictionary  bool    `yaml:"refresh_dictionary"`
	DictionarySize     int     `yaml:"dictionary_size"`
	QueryExpansion     bool    `yaml:"query_expansion"`
	MaxSynonymsPerTerm int     `yaml:"max_synonyms_per_term"`
	MaxExpansionTerms  int     `yaml:"max_expansion_terms"`
}

// ScoringConfig holds ranking settings.
type ScoringConfig struct {
	DefaultProfile string `yaml:"default_profile"`
}

// ExperimentConfig describes one AB test.
type ExperimentConfig struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Active      bool            `yaml:"active"`
	StartDate   time.Time       `yaml:"start_date"`
	EndDate     time.Time       `yaml:"end_date"`
	EventName   string          `yaml:"event_name"`
	Variants    []VariantConfig `yaml:"variants"`
}

// VariantConfig describes one arm of an AB test.
type VariantConfig struct {
	ID        string            `yaml:"id"`
	Algorithm string            `yaml:"algorithm"`
	Weight    int               `yaml:"weight"`
	Params    map[string]string `yaml:"params"`
}

// PreferencesConfig holds user preference storage settings.
type PreferencesConfig struct {
	KeyPrefix   string `yaml:"key_prefix"`
	CacheSize   int    `yaml:"cache_size"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"`
}

// PaginationConfig holds page size settings.
type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// AnalyticsConfig holds AB event sink settings.
type AnalyticsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Stream    string `yaml:"stream"`
	PoolSize  int    `yaml:"pool_size"`
	MaxLength int64  `yaml:"max_length"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, when present, is loaded first.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references and
// applying defaults before validation.
func Parse(data []byte) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Products == "" {
		c.Index.Products = "products"
	}
	if c.Index.RequestTimeoutSec <= 0 {
		c.Index.RequestTimeoutSec = 5
	}
	if c.NLP.IntentThreshold <= 0 {
		c.NLP.IntentThreshold = 0.6
	}
	if c.NLP.DictionarySize <= 0 {
		c.NLP.DictionarySize = 1000
	}
	if c.NLP.MaxSynonymsPerTerm <= 0 {
		c.NLP.MaxSynonymsPerTerm = 3
	}
	if c.NLP.MaxExpansionTerms <= 0 {
		c.NLP.MaxExpansionTerms = 5
	}
	if c.Scoring.DefaultProfile == "" {
		c.Scoring.DefaultProfile = "standard"
	}
	if c.Preferences.KeyPrefix == "" {
		c.Preferences.KeyPrefix = "relevex:prefs:"
	}
	if c.Preferences.CacheSize <= 0 {
		c.Preferences.CacheSize = 10000
	}
	if c.Preferences.CacheTTLSec <= 0 {
		c.Preferences.CacheTTLSec = 1800
	}
	if c.Pagination.DefaultLimit <= 0 {
		c.Pagination.DefaultLimit = 20
	}
	if c.Pagination.MaxLimit <= 0 {
		c.Pagination.MaxLimit = 100
	}
	if c.Analytics.Stream == "" {
		c.Analytics.Stream = "relevex:analytics"
	}
	if c.Analytics.PoolSize <= 0 {
		c.Analytics.PoolSize = 8
	}
	if c.Analytics.MaxLength <= 0 {
		c.Analytics.MaxLength = 100000
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
	if len(c.Index.Addresses) == 0 {
		return fmt.Errorf("index.addresses is required")
	}
	if c.NLP.IntentThreshold > 1 {
		return fmt.Errorf("nlp.intent_threshold must be at most 1, got %g", c.NLP.IntentThreshold)
	}
	if c.Pagination.DefaultLimit > c.Pagination.MaxLimit {
		return fmt.Errorf("pagination.default_limit %d exceeds max_limit %d",
			c.Pagination.DefaultLimit, c.Pagination.MaxLimit)
	}
	for i, e := range c.Experiments {
		if e.ID == "" {
			return fmt.Errorf("experiments[%d].id is required", i)
		}
		if len(e.Variants) == 0 {
			return fmt.Errorf("experiments.%s.variants is required", e.ID)
		}
		for _, v := range e.Variants {
			if v.Algorithm == "" {
				return fmt.Errorf("experiments.%s.variants.%s.algorithm is required", e.ID, v.ID)
			}
		}
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
