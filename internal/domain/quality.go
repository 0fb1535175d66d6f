package domain

import "sort"

// FieldCount is one row of the per-field issue histogram.
type FieldCount struct {
	Field string `json:"field"`
	Count int    `json:"count"`
}

// QualitySnapshot is a read-only copy of the batch quality state.
type QualitySnapshot struct {
	Total            int            `json:"total"`
	Valid            int            `json:"valid"`
	WarningsOnly     int            `json:"warnings_only"`
	Errored          int            `json:"errors"`
	FieldCounts      map[string]int `json:"field_error_counts"`
	DuplicateHandles []string       `json:"duplicate_handles"`
	DuplicateSKUs    []string       `json:"duplicate_skus"`
	PriceMin         *float64       `json:"price_min,omitempty"`
	PriceMax         *float64       `json:"price_max,omitempty"`
	ThresholdPct     float64        `json:"threshold_pct"`
	CriticalFailure  bool           `json:"critical_failure"`
}

// Percent returns n as a percentage of the total, 0 for an empty batch.
func (s QualitySnapshot) Percent(n int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(n) / float64(s.Total) * 100
}

// TopFields returns the n most frequent fields, ties broken by name.
// n <= 0 returns all fields.
func (s QualitySnapshot) TopFields(n int) []FieldCount {
	rows := make([]FieldCount, 0, len(s.FieldCounts))
	for field, count := range s.FieldCounts {
		rows = append(rows, FieldCount{Field: field, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Field < rows[j].Field
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Gate renders the release gate outcome.
func (s QualitySnapshot) Gate() string {
	if s.CriticalFailure {
		return "FAIL"
	}
	return "PASS"
}
