package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
)

// PageServiceConfig holds configuration for the page service
type PageServiceConfig struct {
	CacheTTL time.Duration
}

// PageService loads raw catalog pages, serving repeated URLs from cache.
type PageService struct {
	cache    domain.CacheRepository
	fetcher  domain.PageFetcher
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewPageService creates a page service. cache may be nil.
func NewPageService(cache domain.CacheRepository, fetcher domain.PageFetcher, log logger.Logger, config PageServiceConfig) *PageService {
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &PageService{cache: cache, fetcher: fetcher, cacheTTL: ttl, logger: log}
}

// Load returns the page at url.
// Flow: check cache -> fetch -> cache -> return
func (s *PageService) Load(ctx context.Context, url string) (*domain.RawPage, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, domain.ErrInvalidRequest
	}

	key := pageCacheKey(url)
	if page, err := s.getFromCache(ctx, key); err == nil {
		return page, nil
	}

	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, domain.ErrPageNotFound) || errors.Is(err, domain.ErrFetchFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}

	if err := s.setInCache(ctx, key, page); err != nil {
		s.logger.Warn("Failed to cache page", logger.String("url", url), logger.Error(err))
	}
	return page, nil
}

func pageCacheKey(url string) string {
	return "page:" + strings.ToLower(strings.TrimRight(url, "/"))
}

func (s *PageService) getFromCache(ctx context.Context, key string) (*domain.RawPage, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case *domain.RawPage:
		return v, nil
	case map[string]interface{}:
		// stored as JSON by the memory cache
		url, _ := v["url"].(string)
		html, _ := v["html"].(string)
		return domain.NewRawPage(url, html)
	}
	return nil, domain.ErrCacheMiss
}

func (s *PageService) setInCache(ctx context.Context, key string, page *domain.RawPage) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, page, s.cacheTTL)
}
