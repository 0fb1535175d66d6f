package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PageFetcher retrieves the raw HTML of a catalog page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*RawPage, error)
}

// FailedURL is a page that could not be processed in a batch run.
type FailedURL struct {
	RunID    string    `json:"run_id"`
	URL      string    `json:"url"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

// CrawlStateStore persists batch progress so an interrupted run can resume.
type CrawlStateStore interface {
	IsProcessed(ctx context.Context, url string) (bool, error)
	MarkProcessed(ctx context.Context, runID, url string) error
	MarkFailed(ctx context.Context, runID, url, reason string) error
	FailedURLs(ctx context.Context, runID string) ([]FailedURL, error)
}

// ProductSink receives canonical products accepted for export.
type ProductSink interface {
	Write(ctx context.Context, product *CanonicalProduct) error
}

// BrandResolver maps a product title to a known brand.
type BrandResolver interface {
	MatchFromTitle(title string) string
}
