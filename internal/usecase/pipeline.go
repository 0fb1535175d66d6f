package usecase

import (
	"github.com/shelfsync/backend/internal/domain"
)

// PageResult is everything the pipeline produces for one page.
type PageResult struct {
	Product     *domain.CanonicalProduct    `json:"product"`
	Validation  *domain.ValidationResult    `json:"validation"`
	Consistency []domain.ConsistencyFinding `json:"consistency"`
}

// Pipeline runs extraction, validation and consistency checking for one
// page and records the outcome with the batch tracker.
type Pipeline struct {
	extractor *Extractor
	validator *SpecificationValidator
	checker   *SourceConsistencyChecker
	tracker   *CrawlQualityTracker
	sanitizer *Sanitizer
}

// NewPipeline wires the per-page components. tracker and sanitizer are optional.
func NewPipeline(
	extractor *Extractor,
	validator *SpecificationValidator,
	checker *SourceConsistencyChecker,
	tracker *CrawlQualityTracker,
	sanitizer *Sanitizer,
) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		validator: validator,
		checker:   checker,
		tracker:   tracker,
		sanitizer: sanitizer,
	}
}

// Process extracts raw, validates the product, adds consistency findings to
// its warnings and records it. The text sanitization pass runs last so that
// validation sees the record as extracted.
func (p *Pipeline) Process(raw *domain.RawPage) (*PageResult, error) {
	return p.run(raw, true)
}

// Inspect runs the same steps as Process without recording the outcome.
func (p *Pipeline) Inspect(raw *domain.RawPage) (*PageResult, error) {
	return p.run(raw, false)
}

func (p *Pipeline) run(raw *domain.RawPage, record bool) (*PageResult, error) {
	product, sources, err := p.extractor.Extract(raw)
	if err != nil {
		return nil, err
	}

	validation := p.validator.Validate(product)
	findings := p.checker.Check(product, sources)
	validation.AddFindings(findings)

	if record && p.tracker != nil {
		p.tracker.Record(product, validation)
	}
	if p.sanitizer != nil {
		p.sanitizer.SanitizeProduct(product)
	}
	return &PageResult{Product: product, Validation: validation, Consistency: findings}, nil
}

// Validate checks a product supplied from outside the pipeline.
func (p *Pipeline) Validate(product *domain.CanonicalProduct) *domain.ValidationResult {
	return p.validator.Validate(product)
}

// Tracker returns the pipeline's quality tracker, which may be nil.
func (p *Pipeline) Tracker() *CrawlQualityTracker {
	return p.tracker
}
