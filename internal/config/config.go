// Package config loads all settings from a .env file or the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AIBackend selects the hosted screening service. Resolved once at startup
// from which credential is present, then passed down explicitly.
type AIBackend string

const (
	BackendAnthropic AIBackend = "anthropic"
	BackendOpenAI    AIBackend = "openai"
)

// Config stores all configuration for the application.
type Config struct {
	ListingURL  string `mapstructure:"LISTING_URL"`
	BrowserURL  string `mapstructure:"BROWSER_URL"`
	ProfilePath string `mapstructure:"PROFILE_PATH"`
	DataDir     string `mapstructure:"DATA_DIR"`
	SkipHarvest bool   `mapstructure:"SKIP_HARVEST"`
	MaxPages    int    `mapstructure:"MAX_PAGES"`

	ItemTimeoutSeconds int `mapstructure:"ITEM_TIMEOUT_SECONDS"`
	PageTimeoutSeconds int `mapstructure:"PAGE_TIMEOUT_SECONDS"`
	DelayMinMillis     int `mapstructure:"DELAY_MIN_MS"`
	DelayMaxMillis     int `mapstructure:"DELAY_MAX_MS"`

	RecordBackend string `mapstructure:"RECORD_BACKEND"` // files | postgres
	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`   // optional seen-cache
	MetricsAddr   string `mapstructure:"METRICS_ADDR"` // optional progress listener

	AnthropicAPIKey   string `mapstructure:"ANTHROPIC_API_KEY"`
	AnthropicModel    string `mapstructure:"ANTHROPIC_MODEL"`
	AnthropicEndpoint string `mapstructure:"ANTHROPIC_ENDPOINT"`
	OpenAIAPIKey      string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel       string `mapstructure:"OPENAI_MODEL"`
	OpenAIEndpoint    string `mapstructure:"OPENAI_ENDPOINT"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// The .env file is optional; production setups can configure purely
	// through the environment.
	_ = viper.ReadInConfig()

	viper.SetDefault("LISTING_URL", "https://www.linkedin.com/jobs/search/?f_TPR=r86400&f_WT=2")
	viper.SetDefault("BROWSER_URL", "http://localhost:9222")
	viper.SetDefault("PROFILE_PATH", "profile.txt")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("MAX_PAGES", 0)
	viper.SetDefault("ITEM_TIMEOUT_SECONDS", 10)
	viper.SetDefault("PAGE_TIMEOUT_SECONDS", 30)
	viper.SetDefault("DELAY_MIN_MS", 800)
	viper.SetDefault("DELAY_MAX_MS", 2500)
	viper.SetDefault("RECORD_BACKEND", "files")
	viper.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-5")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.DelayMaxMillis < cfg.DelayMinMillis {
		return nil, fmt.Errorf("DELAY_MAX_MS (%d) below DELAY_MIN_MS (%d)", cfg.DelayMaxMillis, cfg.DelayMinMillis)
	}
	return &cfg, nil
}

// Backend resolves which hosted service the screening phase uses. An error
// here is fatal at startup: classification cannot run without a credential.
func (c *Config) Backend() (AIBackend, error) {
	switch {
	case c.AnthropicAPIKey != "":
		return BackendAnthropic, nil
	case c.OpenAIAPIKey != "":
		return BackendOpenAI, nil
	default:
		return "", fmt.Errorf("no screening credential: set ANTHROPIC_API_KEY or OPENAI_API_KEY")
	}
}

// LoadProfile reads the evaluation profile document. Missing or empty is a
// fatal startup condition.
func (c *Config) LoadProfile() (string, error) {
	raw, err := os.ReadFile(c.ProfilePath)
	if err != nil {
		return "", fmt.Errorf("read profile %s: %w", c.ProfilePath, err)
	}
	profile := strings.TrimSpace(string(raw))
	if profile == "" {
		return "", fmt.Errorf("profile %s is empty", c.ProfilePath)
	}
	return profile, nil
}

func (c *Config) ItemTimeout() time.Duration {
	return time.Duration(c.ItemTimeoutSeconds) * time.Second
}

func (c *Config) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSeconds) * time.Second
}

func (c *Config) DelayMin() time.Duration {
	return time.Duration(c.DelayMinMillis) * time.Millisecond
}

func (c *Config) DelayMax() time.Duration {
	return time.Duration(c.DelayMaxMillis) * time.Millisecond
}

func (c *Config) RecordsDir() string { return filepath.Join(c.DataDir, "postings") }
func (c *Config) LedgerPath() string { return filepath.Join(c.DataDir, "ledger.json") }
func (c *Config) ReportDir() string  { return c.DataDir }
