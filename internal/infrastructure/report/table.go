// Package report renders batch results as terminal tables.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/usecase"
)

const (
	defaultTopFields = 10
	urlColumnWidth   = 60
	reasonWidth      = 50
)

// TableRenderer writes quality and batch tables to an output.
type TableRenderer struct {
	out       io.Writer
	topFields int
}

// NewTableRenderer creates a renderer that writes to out. topFields limits
// the per-field histogram, 0 selects the default.
func NewTableRenderer(out io.Writer, topFields int) *TableRenderer {
	if topFields <= 0 {
		topFields = defaultTopFields
	}
	return &TableRenderer{out: out, topFields: topFields}
}

func (r *TableRenderer) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

// RenderQuality renders the quality snapshot: outcome counts, the most
// frequent failing fields, duplicates, the price range and the gate.
func (r *TableRenderer) RenderQuality(s domain.QualitySnapshot) {
	t := r.newTable("Crawl quality")
	t.AppendHeader(table.Row{"Outcome", "Products", "Share"})
	t.AppendRow(table.Row{"Valid", s.Valid, percent(s.Percent(s.Valid))})
	t.AppendRow(table.Row{"Warnings only", s.WarningsOnly, percent(s.Percent(s.WarningsOnly))})
	t.AppendRow(table.Row{"Errors", s.Errored, percent(s.Percent(s.Errored))})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Total", s.Total, ""})
	t.AppendRow(table.Row{"Gate", s.Gate(), fmt.Sprintf("threshold %.1f%%", s.ThresholdPct)})
	t.Render()

	if fields := s.TopFields(r.topFields); len(fields) > 0 {
		ft := r.newTable("Issues by field")
		ft.AppendHeader(table.Row{"#", "Field", "Count"})
		for i, f := range fields {
			ft.AppendRow(table.Row{i + 1, f.Field, f.Count})
		}
		ft.Render()
	}

	dt := r.newTable("Catalog checks")
	dt.AppendRow(table.Row{"Duplicate handles", joinOrDash(s.DuplicateHandles)})
	dt.AppendRow(table.Row{"Duplicate SKUs", joinOrDash(s.DuplicateSKUs)})
	dt.AppendRow(table.Row{"Price range", priceRange(s.PriceMin, s.PriceMax)})
	dt.Render()
}

// RenderBatch renders the run totals, the failed URLs and the quality tables.
func (r *TableRenderer) RenderBatch(report *usecase.BatchReport) {
	if report == nil {
		return
	}
	t := r.newTable("Batch " + report.RunID)
	t.AppendHeader(table.Row{"Input", "Resumed", "Attempted", "Exported", "Rejected", "Skipped", "Failed", "Duration"})
	t.AppendRow(table.Row{
		report.Input,
		report.Resumed,
		report.Attempted,
		report.Exported,
		report.Rejected,
		report.Skipped,
		report.Failed,
		report.Duration.Round(time.Millisecond).String(),
	})
	t.Render()

	if len(report.FailedURLs) > 0 {
		r.RenderFailedURLs(report.FailedURLs)
	}

	r.RenderQuality(report.Quality)
}

// RenderFailedURLs renders failed URLs with their run and reason.
func (r *TableRenderer) RenderFailedURLs(failed []domain.FailedURL) {
	t := r.newTable("Failed URLs")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: urlColumnWidth},
		{Number: 3, WidthMax: reasonWidth},
	})
	t.AppendHeader(table.Row{"#", "URL", "Reason", "Run"})
	for i, f := range failed {
		t.AppendRow(table.Row{i + 1, f.URL, f.Reason, f.RunID})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(failed)})
	t.Render()
}

// RenderProduct renders the resolved fields of one product with the source
// each came from.
func (r *TableRenderer) RenderProduct(p *domain.CanonicalProduct) {
	if p == nil {
		return
	}
	t := r.newTable(p.Title)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: urlColumnWidth}})
	t.AppendHeader(table.Row{"Field", "Value", "Source"})
	rows := []struct {
		field domain.Field
		value string
	}{
		{domain.FieldBrand, p.Brand},
		{domain.FieldSKU, p.SKU},
		{domain.FieldBarcode, p.Barcode},
		{domain.FieldPrice, p.Price},
		{domain.FieldPriceSecondary, p.PriceEUR},
		{domain.FieldCategoryPath, strings.Join(p.CategoryPath, " > ")},
		{domain.FieldImages, fmt.Sprintf("%d", len(p.Images))},
	}
	t.AppendRow(table.Row{"handle", p.Handle, ""})
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		t.AppendRow(table.Row{string(row.field), row.value, string(p.ExtractionMethod[row.field])})
	}
	t.AppendRow(table.Row{"seo_title", p.SEOTitle, ""})
	t.Render()
}

// RenderValidation renders the validity, compliance and every finding of
// one validation result.
func (r *TableRenderer) RenderValidation(result *domain.ValidationResult) {
	if result == nil {
		return
	}
	status := "VALID"
	if !result.Valid {
		status = "INVALID"
	}
	t := r.newTable("Validation " + status)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: urlColumnWidth}})
	t.AppendHeader(table.Row{"Level", "Finding"})
	for _, e := range result.Errors {
		t.AppendRow(table.Row{"error", e})
	}
	for _, w := range result.Warnings {
		t.AppendRow(table.Row{"warning", w})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"compliance", fmt.Sprintf("required %s, preferred %s, content %s, overall %s",
		percent(result.Compliance.Required),
		percent(result.Compliance.Preferred),
		percent(result.Compliance.Content),
		percent(result.Compliance.Overall))})
	t.Render()
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func priceRange(lo, hi *float64) string {
	if lo == nil || hi == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f - %.2f", *lo, *hi)
}
