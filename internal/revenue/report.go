package revenue

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCutoffHour is the boundary splitting a business day into the
// before/after buckets (15 = 3 PM)
const DefaultCutoffHour = 15

// HourlyRecord is the aggregated revenue for one hour of the day.
// Revenue is a decimal so repeated summation stays exact; Quantity is the
// item count column some logs carry (0 when the log has none).
type HourlyRecord struct {
	Hour     int             `json:"hour"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity int             `json:"quantity"`
}

// SkippedLine records why one raw line could not be turned into a record
type SkippedLine struct {
	Line   string `json:"line"`
	Reason string `json:"reason"`
}

// Diagnostics summarizes parse quality. It is returned as data rather than
// logged so the caller decides whether and how to surface it.
type Diagnostics struct {
	TotalLines   int           `json:"total_lines"`
	ParsedLines  int           `json:"parsed_lines"`
	SkippedLines int           `json:"skipped_lines"`
	Skipped      []SkippedLine `json:"skipped,omitempty"`
}

// Report is the per-document analysis result: the per-hour table plus the
// two cutoff totals
type Report struct {
	CutoffHour  int             `json:"cutoff_hour"`
	Records     []HourlyRecord  `json:"records"`
	TotalBefore decimal.Decimal `json:"total_before_cutoff"`
	TotalAfter  decimal.Decimal `json:"total_after_cutoff"`
}

// Document is a processed revenue log upload as persisted in the database
type Document struct {
	ID          string      `json:"id"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"content_type"`
	RawText     string      `json:"raw_text"`
	Report      Report      `json:"report"`
	Diagnostics Diagnostics `json:"diagnostics"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ValidateCutoffHour rejects cutoff hours outside the day. Callers check this
// before doing any extraction or parsing work so a bad configuration never
// produces a silently wrong partition.
func ValidateCutoffHour(hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("cutoff hour must be between 0 and 23, got %d", hour)
	}
	return nil
}

// BuildReport partitions records at the cutoff hour and computes the two
// totals. Records with hour < cutoff count toward TotalBefore, the rest
// toward TotalAfter; TotalBefore + TotalAfter always equals the sum of all
// record revenues. Empty input yields an empty report with zero totals.
func BuildReport(records []HourlyRecord, cutoffHour int) (*Report, error) {
	if err := ValidateCutoffHour(cutoffHour); err != nil {
		return nil, err
	}

	sorted := make([]HourlyRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Hour < sorted[j].Hour })

	before := decimal.Zero
	after := decimal.Zero
	for _, rec := range sorted {
		if rec.Hour < cutoffHour {
			before = before.Add(rec.Revenue)
		} else {
			after = after.Add(rec.Revenue)
		}
	}

	return &Report{
		CutoffHour:  cutoffHour,
		Records:     sorted,
		TotalBefore: before,
		TotalAfter:  after,
	}, nil
}

// Total returns the grand total across both buckets
func (r *Report) Total() decimal.Decimal {
	return r.TotalBefore.Add(r.TotalAfter)
}
