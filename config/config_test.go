package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	envVars := []string{
		"SHELFSYNC_SERVER_PORT",
		"SHELFSYNC_SERVER_ENVIRONMENT",
		"SHELFSYNC_FETCH_TIMEOUT",
		"SHELFSYNC_FETCH_REQUESTS_PER_SECOND",
		"SHELFSYNC_CACHE_TYPE",
		"SHELFSYNC_CACHE_TTL",
		"SHELFSYNC_RATELIMIT_PER_IP",
		"SHELFSYNC_CATALOG_BRANDS",
		"SHELFSYNC_CATALOG_SITE_DOMAIN",
		"SHELFSYNC_QUALITY_ERROR_THRESHOLD_PCT",
		"SHELFSYNC_QUALITY_EUR_TO_BGN",
		"SHELFSYNC_BATCH_WORKERS",
		"SHELFSYNC_BATCH_CONTINUE_ON_ERROR",
	}
	cleanupEnv := func() {
		for _, name := range envVars {
			os.Unsetenv(name)
		}
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Fetch.BaseURL != "https://benu.bg" {
			t.Errorf("Fetch.BaseURL = %s, want https://benu.bg", cfg.Fetch.BaseURL)
		}
		if cfg.Fetch.Timeout != 30*time.Second {
			t.Errorf("Fetch.Timeout = %v, want 30s", cfg.Fetch.Timeout)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 6*time.Hour {
			t.Errorf("Cache.TTL = %v, want 6h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 60 {
			t.Errorf("RateLimit.PerIP = %d, want 60", cfg.RateLimit.PerIP)
		}
		if cfg.Quality.EURToBGN != 1.95583 {
			t.Errorf("Quality.EURToBGN = %v, want 1.95583", cfg.Quality.EURToBGN)
		}
		if cfg.Quality.CurrencyTolerance != 0.01 {
			t.Errorf("Quality.CurrencyTolerance = %v, want 0.01", cfg.Quality.CurrencyTolerance)
		}
		if cfg.Quality.ErrorThresholdPct != 5.0 {
			t.Errorf("Quality.ErrorThresholdPct = %v, want 5", cfg.Quality.ErrorThresholdPct)
		}
		if cfg.Catalog.TitleMaxLength != 70 || cfg.Catalog.DescriptionMaxLength != 155 || cfg.Catalog.AltTextMaxLength != 125 {
			t.Errorf("Catalog lengths = %d/%d/%d, want 70/155/125",
				cfg.Catalog.TitleMaxLength, cfg.Catalog.DescriptionMaxLength, cfg.Catalog.AltTextMaxLength)
		}
		if len(cfg.Catalog.Brands) == 0 {
			t.Error("Catalog.Brands is empty, want default brand list")
		}
		if !cfg.Batch.ContinueOnError || !cfg.Batch.SkipWithoutImages {
			t.Errorf("Batch = %+v, want continue_on_error and skip_without_images", cfg.Batch)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHELFSYNC_SERVER_PORT", "9090")
		os.Setenv("SHELFSYNC_SERVER_ENVIRONMENT", "production")
		os.Setenv("SHELFSYNC_FETCH_TIMEOUT", "5s")
		os.Setenv("SHELFSYNC_CACHE_TTL", "24h")
		os.Setenv("SHELFSYNC_RATELIMIT_PER_IP", "200")
		os.Setenv("SHELFSYNC_CATALOG_BRANDS", "Nivea,Vichy")
		os.Setenv("SHELFSYNC_QUALITY_ERROR_THRESHOLD_PCT", "2.5")
		os.Setenv("SHELFSYNC_BATCH_WORKERS", "8")
		os.Setenv("SHELFSYNC_BATCH_CONTINUE_ON_ERROR", "false")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Fetch.Timeout != 5*time.Second {
			t.Errorf("Fetch.Timeout = %v, want 5s", cfg.Fetch.Timeout)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if len(cfg.Catalog.Brands) != 2 || cfg.Catalog.Brands[1] != "Vichy" {
			t.Errorf("Catalog.Brands = %v, want [Nivea Vichy]", cfg.Catalog.Brands)
		}
		if cfg.Quality.ErrorThresholdPct != 2.5 {
			t.Errorf("Quality.ErrorThresholdPct = %v, want 2.5", cfg.Quality.ErrorThresholdPct)
		}
		if cfg.Batch.Workers != 8 {
			t.Errorf("Batch.Workers = %d, want 8", cfg.Batch.Workers)
		}
		if cfg.Batch.ContinueOnError {
			t.Error("Batch.ContinueOnError = true, want false")
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHELFSYNC_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation for non-positive peg rate", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHELFSYNC_QUALITY_EUR_TO_BGN", "0")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for zero peg rate")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)
		os.Chdir(t.TempDir())

		if err := LoadEnvFile(); err != nil {
			t.Errorf("LoadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)
		os.Chdir(t.TempDir())

		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
		os.Unsetenv("TEST_COMMENTED")
		defer func() {
			os.Unsetenv("TEST_VAR_1")
			os.Unsetenv("TEST_VAR_2")
			os.Unsetenv("TEST_VAR_3")
		}()

		if err := LoadEnvFile(); err != nil {
			t.Fatalf("LoadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_3") != "value3" {
			t.Errorf("TEST_VAR_3 = %s, want value3", os.Getenv("TEST_VAR_3"))
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		path := t.TempDir() + "/custom.env"
		os.Setenv("TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("TEST_OVERRIDE")

		if err := os.WriteFile(path, []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test env file: %v", err)
		}

		if err := LoadEnvFile(path); err != nil {
			t.Fatalf("LoadEnvFile() error = %v, want nil", err)
		}
		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func validConfig() *Config {
	return &Config{
		Fetch:   FetchConfig{RequestsPerSecond: 1},
		Cache:   CacheConfig{Type: "memory"},
		Catalog: CatalogConfig{SiteDomain: "benu.bg"},
		Quality: QualityConfig{EURToBGN: 1.95583, CurrencyTolerance: 0.01, ErrorThresholdPct: 5},
		Batch:   BatchConfig{Workers: 1},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid configuration", func(*Config) {}, false},
		{"invalid cache type", func(c *Config) { c.Cache.Type = "invalid-type" }, true},
		{"zero peg rate", func(c *Config) { c.Quality.EURToBGN = 0 }, true},
		{"tolerance out of range", func(c *Config) { c.Quality.CurrencyTolerance = 1 }, true},
		{"negative gate threshold", func(c *Config) { c.Quality.ErrorThresholdPct = -1 }, true},
		{"gate threshold above 100", func(c *Config) { c.Quality.ErrorThresholdPct = 101 }, true},
		{"zero request rate", func(c *Config) { c.Fetch.RequestsPerSecond = 0 }, true},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }, true},
		{"missing site domain", func(c *Config) { c.Catalog.SiteDomain = " " }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildCatalog(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Brands = []string{"Nivea"}
	cfg.Catalog.GoogleCategoryMap = map[string]string{
		"лекарства": "Health & Beauty > Health Care > Medicine & Drugs",
		"козметика": "Health & Beauty > Personal Care > Cosmetics",
	}

	catalog := cfg.BuildCatalog()

	if catalog.StoreName != "ViaPharma" {
		t.Errorf("StoreName = %s, want default ViaPharma", catalog.StoreName)
	}
	if catalog.TitleMaxLength != 70 {
		t.Errorf("TitleMaxLength = %d, want default 70", catalog.TitleMaxLength)
	}
	if len(catalog.CategoryMap) != 2 || catalog.CategoryMap[0].Category != "козметика" {
		t.Errorf("CategoryMap = %v, want sorted by key", catalog.CategoryMap)
	}
	if len(catalog.Brands) != 1 || catalog.Brands[0] != "Nivea" {
		t.Errorf("Brands = %v, want [Nivea]", catalog.Brands)
	}
}

func TestLoadFrom(t *testing.T) {
	t.Run("reads an explicit config file", func(t *testing.T) {
		path := t.TempDir() + "/shelfsync.yaml"
		content := `
server:
  port: "7070"
catalog:
  store_name: Benu
  google_category_map:
    Козметика: "Health & Beauty > Personal Care > Cosmetics"
quality:
  error_threshold_pct: 3
batch:
  workers: 4
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v, want nil", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
		if cfg.Catalog.StoreName != "Benu" {
			t.Errorf("Catalog.StoreName = %s, want Benu", cfg.Catalog.StoreName)
		}
		if cfg.Quality.ErrorThresholdPct != 3 {
			t.Errorf("Quality.ErrorThresholdPct = %v, want 3", cfg.Quality.ErrorThresholdPct)
		}
		if cfg.Batch.Workers != 4 {
			t.Errorf("Batch.Workers = %d, want 4", cfg.Batch.Workers)
		}
		if cfg.Quality.EURToBGN != 1.95583 {
			t.Errorf("Quality.EURToBGN = %v, want default 1.95583", cfg.Quality.EURToBGN)
		}
		if len(cfg.Catalog.GoogleCategoryMap) == 0 {
			t.Error("Catalog.GoogleCategoryMap is empty")
		}
	})

	t.Run("fails for a missing explicit file", func(t *testing.T) {
		if _, err := LoadFrom(t.TempDir() + "/absent.yaml"); err == nil {
			t.Error("LoadFrom() error = nil, want error for missing file")
		}
	})
}
