package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
	"github.com/shelfsync/backend/internal/usecase"
)

const (
	serviceVersion    = "1.0.0"
	topFieldsInReport = 10
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	loader     usecase.PageLoader
	pipeline   *usecase.Pipeline
	siteDomain string
}

// NewHandler creates a new HTTP handler. loader may be nil, in which case
// extraction requests must carry the page HTML. Only URLs on siteDomain are
// fetched.
func NewHandler(loader usecase.PageLoader, pipeline *usecase.Pipeline, siteDomain string) *Handler {
	return &Handler{loader: loader, pipeline: pipeline, siteDomain: siteDomain}
}

// ExtractRequest asks for one product page to be extracted. Without HTML
// the page is fetched from URL.
type ExtractRequest struct {
	URL  string `json:"url" binding:"required"`
	HTML string `json:"html"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shelfsync-backend",
		"version": serviceVersion,
	})
}

// ExtractProduct extracts, validates and cross-checks one product page.
func (h *Handler) ExtractProduct(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	req.URL = strings.TrimSpace(req.URL)

	// Posted pages are not recorded in the quality tracker.
	var (
		page    *domain.RawPage
		process = h.pipeline.Inspect
		err     error
	)
	switch {
	case req.HTML != "":
		page, err = domain.NewRawPage(req.URL, req.HTML)
	case h.loader != nil:
		if err = usecase.RequireSiteURL(req.URL, h.siteDomain); err == nil {
			page, err = h.loader.Load(c.Request.Context(), req.URL)
			process = h.pipeline.Process
		}
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "page fetching is not configured, send html"})
		return
	}
	if err != nil {
		h.respondError(c, log, req.URL, err)
		return
	}

	result, err := process(page)
	if err != nil {
		h.respondError(c, log, req.URL, err)
		return
	}

	log.Info("Product extracted",
		logger.String("url", req.URL),
		logger.Bool("valid", result.Validation.Valid),
		logger.Int("warnings", len(result.Validation.Warnings)))
	c.JSON(http.StatusOK, result)
}

// ValidateProduct validates a posted canonical product without recording it.
func (h *Handler) ValidateProduct(c *gin.Context) {
	var product domain.CanonicalProduct
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}
	c.JSON(http.StatusOK, h.pipeline.Validate(&product))
}

// QualityReport returns the quality state accumulated since start-up.
func (h *Handler) QualityReport(c *gin.Context) {
	var snapshot domain.QualitySnapshot
	if tracker := h.pipeline.Tracker(); tracker != nil {
		snapshot = tracker.Snapshot()
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot":   snapshot,
		"gate":       snapshot.Gate(),
		"top_fields": snapshot.TopFields(topFieldsInReport),
	})
}

func (h *Handler) respondError(c *gin.Context, log logger.Logger, url string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("Extraction failed", logger.String("url", url), logger.Error(err))
	} else {
		log.Warn("Extraction rejected", logger.String("url", url), logger.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrEmptyPage),
		errors.Is(err, domain.ErrMissingURL):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingTitle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrFetchFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
