package domain

import "strings"

// Compliance is the field-coverage score of a product, in percent.
// It is informational and never affects validity.
type Compliance struct {
	Required  float64 `json:"required_fields"`
	Preferred float64 `json:"preferred_fields"`
	Content   float64 `json:"content_sections"`
	Overall   float64 `json:"overall"`
}

// ValidationResult is the outcome of validating one canonical product.
// Every error and warning is formatted as "field: message".
type ValidationResult struct {
	Valid       bool                       `json:"overall_valid"`
	Errors      []string                   `json:"errors"`
	Warnings    []string                   `json:"warnings"`
	Issues      []string                   `json:"issues"`
	FieldChecks map[string]map[string]bool `json:"field_checks,omitempty"`
	Compliance  Compliance                 `json:"compliance"`
}

// AddFindings appends consistency findings as warnings. Findings never
// change validity.
func (r *ValidationResult) AddFindings(findings []ConsistencyFinding) {
	for _, f := range findings {
		msg := f.String()
		r.Warnings = append(r.Warnings, msg)
		r.Issues = append(r.Issues, msg)
	}
}

// HasErrors reports whether the product is unusable.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ConsistencyFinding is an advisory disagreement between two raw sources
// describing the same field.
type ConsistencyFinding struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// String renders the finding in the "field: message" form used by reports.
func (f ConsistencyFinding) String() string {
	return f.Check + ": " + f.Message
}

// FieldName extracts the leading field name of a "field: message" string.
// Messages without that shape are attributed to "unknown".
func FieldName(message string) string {
	idx := strings.Index(message, ":")
	if idx <= 0 {
		return "unknown"
	}
	name := message[:idx]
	if len(name) < 2 || !isFieldName(name) {
		return "unknown"
	}
	return strings.TrimSpace(name)
}

func isFieldName(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == ' '):
		default:
			return false
		}
	}
	return true
}
