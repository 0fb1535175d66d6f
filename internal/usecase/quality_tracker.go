package usecase

import (
	"strconv"
	"sync"

	"github.com/shelfsync/backend/internal/domain"
)

// Default gate threshold in percent of errored products
const defaultErrorThresholdPct = 5.0

// Histogram keys for batch-wide duplicates
const (
	fieldHandleDuplicate = "handle_duplicate"
	fieldSKUDuplicate    = "sku_duplicate"
)

// TrackerConfig holds configuration for the crawl quality tracker
type TrackerConfig struct {
	ErrorThresholdPct float64
}

// CrawlQualityTracker accumulates validation outcomes over one batch run.
// Record is safe to call from several workers.
type CrawlQualityTracker struct {
	mu sync.Mutex

	thresholdPct float64
	total        int
	valid        int
	warningsOnly int
	errored      int

	fieldCounts      map[string]int
	seenHandles      map[string]bool
	duplicateHandles []string
	seenSKUs         map[string]bool
	duplicateSKUs    []string

	priceMin *float64
	priceMax *float64
}

// NewCrawlQualityTracker creates an empty tracker.
func NewCrawlQualityTracker(config TrackerConfig) *CrawlQualityTracker {
	threshold := config.ErrorThresholdPct
	if threshold <= 0 {
		threshold = defaultErrorThresholdPct
	}
	return &CrawlQualityTracker{
		thresholdPct: threshold,
		fieldCounts:  make(map[string]int),
		seenHandles:  make(map[string]bool),
		seenSKUs:     make(map[string]bool),
	}
}

// Record classifies one product as valid, warnings-only or errored, tallies
// every error and warning by field and tracks duplicate handles and SKUs.
func (t *CrawlQualityTracker) Record(p *domain.CanonicalProduct, result *domain.ValidationResult) {
	if p == nil || result == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	switch {
	case len(result.Errors) > 0:
		t.errored++
	case len(result.Warnings) > 0:
		t.warningsOnly++
	default:
		t.valid++
	}

	for _, msg := range result.Errors {
		t.fieldCounts[domain.FieldName(msg)]++
	}
	for _, msg := range result.Warnings {
		t.fieldCounts[domain.FieldName(msg)]++
	}

	if p.Handle != "" {
		if t.seenHandles[p.Handle] {
			t.duplicateHandles = append(t.duplicateHandles, p.Handle)
			t.fieldCounts[fieldHandleDuplicate]++
		} else {
			t.seenHandles[p.Handle] = true
		}
	}
	if p.SKU != "" {
		if t.seenSKUs[p.SKU] {
			t.duplicateSKUs = append(t.duplicateSKUs, p.SKU)
			t.fieldCounts[fieldSKUDuplicate]++
		} else {
			t.seenSKUs[p.SKU] = true
		}
	}

	if price, err := strconv.ParseFloat(p.Price, 64); err == nil {
		if t.priceMin == nil || price < *t.priceMin {
			t.priceMin = &price
		}
		if t.priceMax == nil || price > *t.priceMax {
			v := price
			t.priceMax = &v
		}
	}
}

// HasCriticalFailures reports whether the errored share of the batch
// exceeds the gate threshold.
func (t *CrawlQualityTracker) HasCriticalFailures() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.criticalLocked()
}

func (t *CrawlQualityTracker) criticalLocked() bool {
	if t.total == 0 {
		return false
	}
	return float64(t.errored)/float64(t.total)*100 > t.thresholdPct
}

// Snapshot returns a copy of the current state.
func (t *CrawlQualityTracker) Snapshot() domain.QualitySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := make(map[string]int, len(t.fieldCounts))
	for k, v := range t.fieldCounts {
		counts[k] = v
	}
	s := domain.QualitySnapshot{
		Total:            t.total,
		Valid:            t.valid,
		WarningsOnly:     t.warningsOnly,
		Errored:          t.errored,
		FieldCounts:      counts,
		DuplicateHandles: append([]string{}, t.duplicateHandles...),
		DuplicateSKUs:    append([]string{}, t.duplicateSKUs...),
		ThresholdPct:     t.thresholdPct,
		CriticalFailure:  t.criticalLocked(),
	}
	if t.priceMin != nil {
		lo, hi := *t.priceMin, *t.priceMax
		s.PriceMin, s.PriceMax = &lo, &hi
	}
	return s
}
