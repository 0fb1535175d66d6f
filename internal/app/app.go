// Package app builds the component graph shared by the server and the
// crawler from a loaded configuration.
package app

import (
	"fmt"

	"github.com/shelfsync/backend/config"
	"github.com/shelfsync/backend/internal/infrastructure/cache"
	"github.com/shelfsync/backend/internal/infrastructure/fetch"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
	"github.com/shelfsync/backend/internal/usecase"
)

// Deps holds the wired components.
type Deps struct {
	Config   *config.Config
	Logger   logger.Logger
	Cache    *cache.MemoryCache
	Fetcher  *fetch.Client
	Pages    *usecase.PageService
	Pipeline *usecase.Pipeline
}

// NewLogger creates the application logger from the logging section.
func NewLogger(cfg *config.Config, debug bool) (logger.Logger, error) {
	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	log, err := logger.New(logger.Config{
		Level:       level,
		Development: cfg.Server.Environment == "development",
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

// NewPipeline wires extraction, validation, consistency checking and a
// fresh quality tracker.
func NewPipeline(cfg *config.Config, log logger.Logger) *usecase.Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	catalog := cfg.BuildCatalog()
	brands := usecase.NewBrandMatcher(catalog.Brands)
	log.Debug("Brand dictionary loaded", logger.Int("brands", brands.Count()))
	return usecase.NewPipeline(
		usecase.NewExtractor(catalog, brands, log, cfg.ExtractorConfig()),
		usecase.NewSpecificationValidator(cfg.ValidatorConfig()),
		usecase.NewSourceConsistencyChecker(brands, log, cfg.CheckerConfig()),
		usecase.NewCrawlQualityTracker(cfg.TrackerConfig()),
		usecase.NewSanitizer(catalog.SiteDomain),
	)
}

// New wires every component. Close releases the cache janitor.
func New(cfg *config.Config, log logger.Logger) *Deps {
	memoryCache := cache.NewMemoryCache(cache.MemoryConfig{MaxEntries: cfg.Cache.MaxEntries})
	fetcher := fetch.NewClient(cfg.FetchClientConfig(), log)
	pages := usecase.NewPageService(memoryCache, fetcher, log, usecase.PageServiceConfig{CacheTTL: cfg.Cache.TTL})

	return &Deps{
		Config:   cfg,
		Logger:   log,
		Cache:    memoryCache,
		Fetcher:  fetcher,
		Pages:    pages,
		Pipeline: NewPipeline(cfg, log),
	}
}

// Close stops background work.
func (d *Deps) Close() {
	d.Cache.Close()
	_ = d.Logger.Sync()
}
