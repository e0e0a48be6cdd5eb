// Package config handles configuration loading for the sectors tools.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Cache     CacheConfig     `mapstructure:"cache"     yaml:"cache"`
	LLM       LLMConfig       `mapstructure:"llm"       yaml:"llm"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// APIConfig holds the Sectors API endpoint and credentials.
type APIConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	Key        string `mapstructure:"key"         yaml:"key"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns the HTTP client timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CacheConfig selects the response memo store.
type CacheConfig struct {
	Backend       string `mapstructure:"backend"        yaml:"backend"` // "memory", "redis" or "none"
	TTLSec        int    `mapstructure:"ttl_sec"        yaml:"ttl_sec"` // 0 keeps entries forever
	RedisAddr     string `mapstructure:"redis_addr"     yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"       yaml:"redis_db"`
}

// TTL returns the memo entry lifetime; zero means no expiry.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// LLMConfig holds the chat completions endpoint used by the agent.
type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url"      yaml:"base_url"`
	APIKey      string  `mapstructure:"api_key"       yaml:"api_key"`
	Model       string  `mapstructure:"model"         yaml:"model"`
	Temperature float64 `mapstructure:"temperature"   yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"    yaml:"max_tokens"`
	MaxToolIter int     `mapstructure:"max_tool_iter" yaml:"max_tool_iter"`
	TimeoutSec  int     `mapstructure:"timeout_sec"   yaml:"timeout_sec"`
}

// DashboardConfig holds the SectorScan HTTP server settings.
type DashboardConfig struct {
	Host           string   `mapstructure:"host"            yaml:"host"`
	Port           int      `mapstructure:"port"            yaml:"port"`
	DefaultSectors int      `mapstructure:"default_sectors" yaml:"default_sectors"`
	MaxSectors     int      `mapstructure:"max_sectors"     yaml:"max_sectors"`
	CORSOrigins    []string `mapstructure:"cors_origins"    yaml:"cors_origins"`
}

// Addr returns host:port for net/http.
func (c DashboardConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.sectors/config.yaml
//  3. /etc/sectors/config.yaml
//
// A .env file in the working directory is loaded first; it never overrides
// variables already present in the environment.
// Environment variables override config file values.
// Format: SECTORS_<SECTION>_<KEY>, e.g., SECTORS_API_BASE_URL
func Load() (*Config, error) {
	loadDotEnv(".env")

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".sectors"))
	v.AddConfigPath("/etc/sectors")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults + env vars.
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv(".env")

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SECTORS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.sectors.app/v1")
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout_sec", 30)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_sec", 0)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// Groq serves an OpenAI-compatible chat completions API.
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "llama3-70b-8192")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.max_tool_iter", 10)
	v.SetDefault("llm.timeout_sec", 120)

	v.SetDefault("dashboard.host", "127.0.0.1")
	v.SetDefault("dashboard.port", 8501)
	v.SetDefault("dashboard.default_sectors", 3)
	v.SetDefault("dashboard.max_sectors", 5)
	v.SetDefault("dashboard.cors_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv reads the conventional secret variable names that do not
// follow the SECTORS_<SECTION>_<KEY> scheme.
func overrideFromEnv(cfg *Config) {
	if cfg.API.Key == "" {
		cfg.API.Key = firstEnv(EnvSectorsAPIKey, EnvSectorsKey)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(EnvGroqAPIKey)
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// loadDotEnv loads path into the environment if it exists.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
