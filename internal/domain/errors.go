package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMissingTitle is returned when a canonical product is built without a title
	ErrMissingTitle = errors.New("product title is required")

	// ErrMissingURL is returned when a canonical product is built without a source URL
	ErrMissingURL = errors.New("product URL is required")

	// ErrEmptyPage is returned when a fetched page carries no HTML
	ErrEmptyPage = errors.New("page has no content")

	// ErrPageNotFound is returned when the vendor site answers 404 for a product URL
	ErrPageNotFound = errors.New("product page not found")

	// ErrFetchFailure is returned when fetching a page fails after retries
	ErrFetchFailure = errors.New("page fetch failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrStateStore is returned when the crawl state store cannot be read or written
	ErrStateStore = errors.New("crawl state store failure")

	// ErrNoImages is returned by the batch runner for products skipped for lack of images
	ErrNoImages = errors.New("product has no images")
)
