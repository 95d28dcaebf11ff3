// Package config loads application configuration from file, environment
// and defaults, viper-style. All pipeline thresholds live here and are
// injected at construction time rather than read as globals.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        App        `mapstructure:"app"`
	Gemini     Gemini     `mapstructure:"gemini"`
	Clustering Clustering `mapstructure:"clustering"`
	Enrichment Enrichment `mapstructure:"enrichment"`
	Memo       Memo       `mapstructure:"memo"`
	Editorial  Editorial  `mapstructure:"editorial"`
	Feeds      Feeds      `mapstructure:"feeds"`
}

// App holds general application settings.
type App struct {
	LogLevel   string `mapstructure:"log_level"`
	ConsoleLog bool   `mapstructure:"console_log"`
	OutputDir  string `mapstructure:"output_dir"`
	Profile    string `mapstructure:"profile"` // Path to the user profile JSON, empty for defaults
}

// Gemini holds the LLM settings.
type Gemini struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// Clustering holds the clustering-service settings.
type Clustering struct {
	ServiceURL      string `mapstructure:"service_url"`
	MinClusterSize  int    `mapstructure:"min_cluster_size"`
	Metric          string `mapstructure:"metric"`
	MaxPerPublisher int    `mapstructure:"max_per_publisher"`
}

// Enrichment holds the enrichment batch settings.
type Enrichment struct {
	BatchSize     int           `mapstructure:"batch_size"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBase     time.Duration `mapstructure:"retry_base"`
}

// Memo holds the scoring thresholds.
type Memo struct {
	FollowedCreatorTrust float64 `mapstructure:"followed_creator_trust"`
	MultiSourceMin       int     `mapstructure:"multi_source_min"`
	UrgentHours          float64 `mapstructure:"urgent_hours"`
	TimelyHours          float64 `mapstructure:"timely_hours"`
}

// Editorial holds the selection-stage settings.
type Editorial struct {
	Interests      string `mapstructure:"interests"`
	TargetLanguage string `mapstructure:"target_language"`
}

// Feeds holds the ingestion settings.
type Feeds struct {
	File        string        `mapstructure:"file"` // Path to the feeds JSON list
	Concurrency int           `mapstructure:"concurrency"`
	MaxAge      time.Duration `mapstructure:"max_age"`
}

// Load reads configuration from the given file (optional), a .env file if
// present, and CURATOR_* environment variables, over the defaults.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CURATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Keep the global viper in sync for packages that resolve settings
	// lazily (the LLM client's key lookup).
	viper.Set("gemini.api_key", cfg.Gemini.APIKey)
	viper.Set("gemini.model", cfg.Gemini.Model)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.console_log", false)
	v.SetDefault("app.output_dir", "./digests")

	v.SetDefault("clustering.service_url", "http://localhost:8750")
	v.SetDefault("clustering.min_cluster_size", 3)
	v.SetDefault("clustering.metric", "cosine")
	v.SetDefault("clustering.max_per_publisher", 3)

	v.SetDefault("enrichment.batch_size", 8)
	v.SetDefault("enrichment.retry_attempts", 3)
	v.SetDefault("enrichment.retry_base", 500*time.Millisecond)

	v.SetDefault("memo.followed_creator_trust", 0.95)
	v.SetDefault("memo.multi_source_min", 3)
	v.SetDefault("memo.urgent_hours", 6.0)
	v.SetDefault("memo.timely_hours", 24.0)

	v.SetDefault("feeds.concurrency", 5)
	v.SetDefault("feeds.max_age", 24*time.Hour)
}
