package domain

import "time"

// RawPage is one fetched catalog page. It is never mutated after fetch.
type RawPage struct {
	URL       string    `json:"url"`
	HTML      string    `json:"html"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewRawPage wraps fetched HTML for the page at url.
func NewRawPage(url, html string) (*RawPage, error) {
	if url == "" {
		return nil, ErrMissingURL
	}
	if html == "" {
		return nil, ErrEmptyPage
	}
	return &RawPage{URL: url, HTML: html, FetchedAt: time.Now()}, nil
}
