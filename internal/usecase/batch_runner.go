package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
)

const (
	defaultWorkers      = 1
	defaultSummaryEvery = 100
)

// PageLoader returns the raw page at a URL.
type PageLoader interface {
	Load(ctx context.Context, url string) (*domain.RawPage, error)
}

// BatchConfig holds configuration for the batch runner
type BatchConfig struct {
	Workers           int
	ContinueOnError   bool
	SkipWithoutImages bool
	SummaryEvery      int
	Limit             int
}

// BatchReport summarises one batch run.
type BatchReport struct {
	RunID      string                 `json:"run_id"`
	Input      int                    `json:"input"`
	Resumed    int                    `json:"already_processed"`
	Attempted  int                    `json:"attempted"`
	Exported   int                    `json:"exported"`
	Rejected   int                    `json:"rejected"`
	Skipped    int                    `json:"skipped"`
	Failed     int                    `json:"failed"`
	FailedURLs []domain.FailedURL     `json:"failed_urls"`
	Quality    domain.QualitySnapshot `json:"quality"`
	Duration   time.Duration          `json:"duration"`
}

// GatePassed reports whether the batch may be released.
func (r *BatchReport) GatePassed() bool {
	return !r.Quality.CriticalFailure
}

// BatchRunner processes a list of product URLs. Per-page failures are
// recorded as failed URLs and, with ContinueOnError, never abort the run.
type BatchRunner struct {
	loader   PageLoader
	pipeline *Pipeline
	state    domain.CrawlStateStore
	sink     domain.ProductSink
	logger   logger.Logger
	config   BatchConfig
}

// NewBatchRunner creates a runner. A pipeline without a tracker gets one.
func NewBatchRunner(
	loader PageLoader,
	pipeline *Pipeline,
	state domain.CrawlStateStore,
	sink domain.ProductSink,
	log logger.Logger,
	config BatchConfig,
) *BatchRunner {
	if config.Workers <= 0 {
		config.Workers = defaultWorkers
	}
	if config.SummaryEvery <= 0 {
		config.SummaryEvery = defaultSummaryEvery
	}
	if log == nil {
		log = logger.NewNop()
	}
	if pipeline.tracker == nil {
		pipeline.tracker = NewCrawlQualityTracker(TrackerConfig{})
	}
	return &BatchRunner{
		loader:   loader,
		pipeline: pipeline,
		state:    state,
		sink:     sink,
		logger:   log,
		config:   config,
	}
}

// batchRun is the mutable state of one Run call.
type batchRun struct {
	id        string
	mu        sync.Mutex
	report    BatchReport
	processed int
}

// Run processes urls, skipping those the state store already knows. It
// returns an error only when the run was aborted.
func (r *BatchRunner) Run(ctx context.Context, urls []string) (*BatchReport, error) {
	start := time.Now()
	run := &batchRun{id: uuid.NewString()}
	run.report.RunID = run.id
	run.report.Input = len(urls)
	log := r.logger.With(logger.String("run_id", run.id))

	pending, err := r.pending(ctx, urls)
	if err != nil {
		return nil, err
	}
	run.report.Resumed = len(urls) - len(pending)
	if r.config.Limit > 0 && len(pending) > r.config.Limit {
		pending = pending[:r.config.Limit]
	}
	run.report.Attempted = len(pending)
	log.Info("Batch started",
		logger.Int("input", len(urls)),
		logger.Int("remaining", len(pending)),
		logger.Int("workers", r.config.Workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)
	for _, url := range pending {
		if gctx.Err() != nil {
			break
		}
		url := url
		g.Go(func() error {
			return r.processURL(gctx, run, log, url)
		})
	}
	runErr := g.Wait()

	if r.state != nil {
		failed, err := r.state.FailedURLs(ctx, run.id)
		if err != nil {
			log.Warn("Failed to read failed URLs", logger.Error(err))
		}
		run.report.FailedURLs = failed
	}
	run.report.Quality = r.pipeline.Tracker().Snapshot()
	run.report.Duration = time.Since(start)

	log.Info("Batch finished",
		logger.Int("exported", run.report.Exported),
		logger.Int("failed", run.report.Failed),
		logger.String("gate", run.report.Quality.Gate()),
		logger.Duration("duration", run.report.Duration),
	)
	if runErr != nil {
		return &run.report, fmt.Errorf("batch aborted: %w", runErr)
	}
	return &run.report, nil
}

func (r *BatchRunner) pending(ctx context.Context, urls []string) ([]string, error) {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		if r.state != nil {
			done, err := r.state.IsProcessed(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrStateStore, err)
			}
			if done {
				continue
			}
		}
		out = append(out, u)
	}
	return out, nil
}

// processURL handles one page end to end. A returned error aborts the run.
func (r *BatchRunner) processURL(ctx context.Context, run *batchRun, log logger.Logger, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.processPage(ctx, run, log, url)
	r.tick(run, log)
	if err == nil || errors.Is(err, domain.ErrNoImages) {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	run.mu.Lock()
	run.report.Failed++
	run.mu.Unlock()
	log.Warn("Page failed", logger.String("url", url), logger.Error(err))
	if r.state != nil {
		if serr := r.state.MarkFailed(ctx, run.id, url, err.Error()); serr != nil {
			log.Error("Failed to record failed URL", logger.String("url", url), logger.Error(serr))
		}
	}
	if !r.config.ContinueOnError {
		return err
	}
	return nil
}

func (r *BatchRunner) processPage(ctx context.Context, run *batchRun, log logger.Logger, url string) error {
	raw, err := r.loader.Load(ctx, url)
	if err != nil {
		return err
	}
	result, err := r.pipeline.Process(raw)
	if err != nil {
		return err
	}
	product := result.Product

	switch {
	case r.config.SkipWithoutImages && len(product.Images) == 0:
		log.Info("Skipped (no images)", logger.String("url", url), logger.String("title", product.Title))
		run.mu.Lock()
		run.report.Skipped++
		run.mu.Unlock()
		return r.markProcessed(ctx, run, url, domain.ErrNoImages)
	case !result.Validation.Valid:
		log.Info("Rejected",
			logger.String("url", url),
			logger.Strings("errors", result.Validation.Errors),
		)
		run.mu.Lock()
		run.report.Rejected++
		run.mu.Unlock()
		return r.markProcessed(ctx, run, url, nil)
	}

	if r.sink != nil {
		if err := r.sink.Write(ctx, product); err != nil {
			return fmt.Errorf("failed to export product: %w", err)
		}
	}
	run.mu.Lock()
	run.report.Exported++
	run.mu.Unlock()
	log.Debug("Exported", logger.String("url", url), logger.Int("images", len(product.Images)))
	return r.markProcessed(ctx, run, url, nil)
}

// markProcessed records url as done and passes through result.
func (r *BatchRunner) markProcessed(ctx context.Context, run *batchRun, url string, result error) error {
	if r.state == nil {
		return result
	}
	if err := r.state.MarkProcessed(ctx, run.id, url); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStateStore, err)
	}
	return result
}

// tick logs a quality summary every SummaryEvery pages.
func (r *BatchRunner) tick(run *batchRun, log logger.Logger) {
	run.mu.Lock()
	run.processed++
	n := run.processed
	run.mu.Unlock()
	if n%r.config.SummaryEvery != 0 {
		return
	}

	snap := r.pipeline.Tracker().Snapshot()
	top := make([]string, 0, 3)
	for _, fc := range snap.TopFields(3) {
		top = append(top, fmt.Sprintf("%s (%d)", fc.Field, fc.Count))
	}
	log.Info("Quality summary",
		logger.Int("processed", n),
		logger.Float64("valid_pct", snap.Percent(snap.Valid)),
		logger.Float64("warnings_pct", snap.Percent(snap.WarningsOnly)),
		logger.Float64("errors_pct", snap.Percent(snap.Errored)),
		logger.Strings("top_issues", top),
	)
}
