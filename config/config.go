package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/shelfsync/backend/internal/infrastructure/fetch"
	"github.com/shelfsync/backend/internal/usecase"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Batch     BatchConfig     `mapstructure:"batch"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FetchConfig holds the page fetcher configuration
type FetchConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // only "memory"
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// CatalogConfig holds the storefront dictionaries and SEO budgets
type CatalogConfig struct {
	SiteDomain            string            `mapstructure:"site_domain"`
	StoreName             string            `mapstructure:"store_name"`
	Brands                []string          `mapstructure:"brands"`
	GoogleCategoryMap     map[string]string `mapstructure:"google_category_map"`
	DefaultGoogleCategory string            `mapstructure:"default_google_category"`
	TitleMaxLength        int               `mapstructure:"title_max_length"`
	DescriptionMaxLength  int               `mapstructure:"description_max_length"`
	AltTextMaxLength      int               `mapstructure:"alt_text_max_length"`
}

// QualityConfig holds validation and release gate thresholds
type QualityConfig struct {
	EURToBGN          float64 `mapstructure:"eur_to_bgn"`
	CurrencyTolerance float64 `mapstructure:"currency_tolerance"`
	PriceCeiling      float64 `mapstructure:"price_ceiling"`
	ErrorThresholdPct float64 `mapstructure:"error_threshold_pct"`
	SummaryEvery      int     `mapstructure:"summary_every"`
}

// BatchConfig holds batch runner configuration
type BatchConfig struct {
	Workers           int    `mapstructure:"workers"`
	ContinueOnError   bool   `mapstructure:"continue_on_error"`
	StatePath         string `mapstructure:"state_path"`
	OutputPath        string `mapstructure:"output_path"`
	SkipWithoutImages bool   `mapstructure:"skip_without_images"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration like Load but reads the config file at path
// instead of searching for one. The file must exist when path is set.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/shelfsync/")
	}

	// Environment variable settings
	v.SetEnvPrefix("SHELFSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Fetch defaults
	v.SetDefault("fetch.base_url", "https://benu.bg")
	v.SetDefault("fetch.user_agent", fetch.DefaultUserAgent)
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.requests_per_second", 2.0)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("fetch.max_retries", 3)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "6h")
	v.SetDefault("cache.max_entries", 5000)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)

	v.SetDefault("logging.level", "info")

	// Catalog defaults
	v.SetDefault("catalog.site_domain", "benu.bg")
	v.SetDefault("catalog.store_name", "ViaPharma")
	v.SetDefault("catalog.brands", defaultBrands)
	v.SetDefault("catalog.google_category_map", defaultCategoryMap)
	v.SetDefault("catalog.default_google_category", "Health & Beauty > Health Care > Pharmacy")
	v.SetDefault("catalog.title_max_length", 70)
	v.SetDefault("catalog.description_max_length", 155)
	v.SetDefault("catalog.alt_text_max_length", 125)

	// Quality defaults
	v.SetDefault("quality.eur_to_bgn", 1.95583)
	v.SetDefault("quality.currency_tolerance", 0.01)
	v.SetDefault("quality.price_ceiling", 10000.0)
	v.SetDefault("quality.error_threshold_pct", 5.0)
	v.SetDefault("quality.summary_every", 100)

	// Batch defaults
	v.SetDefault("batch.workers", 2)
	v.SetDefault("batch.continue_on_error", true)
	v.SetDefault("batch.state_path", "data/crawl_state.db")
	v.SetDefault("batch.output_path", "data/products.jsonl")
	v.SetDefault("batch.skip_without_images", true)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.Quality.EURToBGN <= 0 {
		return fmt.Errorf("quality.eur_to_bgn must be positive, got: %v", config.Quality.EURToBGN)
	}

	if config.Quality.CurrencyTolerance < 0 || config.Quality.CurrencyTolerance >= 1 {
		return fmt.Errorf("quality.currency_tolerance must be in [0, 1), got: %v", config.Quality.CurrencyTolerance)
	}

	if config.Quality.ErrorThresholdPct < 0 || config.Quality.ErrorThresholdPct > 100 {
		return fmt.Errorf("quality.error_threshold_pct must be in [0, 100], got: %v", config.Quality.ErrorThresholdPct)
	}

	if config.Fetch.RequestsPerSecond <= 0 {
		return fmt.Errorf("fetch.requests_per_second must be positive, got: %v", config.Fetch.RequestsPerSecond)
	}

	if config.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got: %d", config.Batch.Workers)
	}

	if strings.TrimSpace(config.Catalog.SiteDomain) == "" {
		return fmt.Errorf("catalog.site_domain is required (set SHELFSYNC_CATALOG_SITE_DOMAIN)")
	}

	return nil
}

// BuildCatalog converts the catalog section into the immutable dictionary
// shared by the extraction components.
func (c *Config) BuildCatalog() usecase.Catalog {
	return usecase.NewCatalog(usecase.Catalog{
		SiteDomain:            c.Catalog.SiteDomain,
		StoreName:             c.Catalog.StoreName,
		Brands:                c.Catalog.Brands,
		DefaultGoogleCategory: c.Catalog.DefaultGoogleCategory,
		TitleMaxLength:        c.Catalog.TitleMaxLength,
		DescriptionMaxLength:  c.Catalog.DescriptionMaxLength,
		AltTextMaxLength:      c.Catalog.AltTextMaxLength,
	}, c.Catalog.GoogleCategoryMap)
}

// FetchClientConfig returns the fetch client settings.
func (c *Config) FetchClientConfig() fetch.ClientConfig {
	return fetch.ClientConfig{
		UserAgent:         c.Fetch.UserAgent,
		Timeout:           c.Fetch.Timeout,
		RequestsPerSecond: c.Fetch.RequestsPerSecond,
		Burst:             c.Fetch.Burst,
		MaxRetries:        c.Fetch.MaxRetries,
	}
}

// ExtractorConfig returns the extractor settings.
func (c *Config) ExtractorConfig() usecase.ExtractorConfig {
	return usecase.ExtractorConfig{EURToBGN: c.Quality.EURToBGN}
}

// ValidatorConfig returns the validator settings.
func (c *Config) ValidatorConfig() usecase.ValidatorConfig {
	return usecase.ValidatorConfig{
		EURToBGN:             c.Quality.EURToBGN,
		CurrencyTolerance:    c.Quality.CurrencyTolerance,
		PriceCeiling:         c.Quality.PriceCeiling,
		TitleMaxLength:       c.Catalog.TitleMaxLength,
		DescriptionMaxLength: c.Catalog.DescriptionMaxLength,
	}
}

// CheckerConfig returns the consistency checker settings.
func (c *Config) CheckerConfig() usecase.CheckerConfig {
	return usecase.CheckerConfig{
		EURToBGN:          c.Quality.EURToBGN,
		CurrencyTolerance: c.Quality.CurrencyTolerance,
	}
}

// TrackerConfig returns the quality tracker settings.
func (c *Config) TrackerConfig() usecase.TrackerConfig {
	return usecase.TrackerConfig{ErrorThresholdPct: c.Quality.ErrorThresholdPct}
}

// BatchRunnerConfig returns the batch runner settings.
func (c *Config) BatchRunnerConfig() usecase.BatchConfig {
	return usecase.BatchConfig{
		Workers:           c.Batch.Workers,
		ContinueOnError:   c.Batch.ContinueOnError,
		SkipWithoutImages: c.Batch.SkipWithoutImages,
		SummaryEvery:      c.Quality.SummaryEvery,
	}
}
