package revenue

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// csvRow mirrors the spreadsheet layout the analysis is exported as
type csvRow struct {
	Hour     int    `csv:"hour"`
	Time     string `csv:"time"`
	Revenue  string `csv:"revenue"`
	Quantity int    `csv:"quantity"`
	Category string `csv:"category"`
}

// CSV serializes the report: one row per hour followed by the
// before-cutoff, after-cutoff, and grand totals
func (r *Report) CSV() ([]byte, error) {
	cutoffClock := fmt.Sprintf("%02d:00", r.CutoffHour)

	rows := make([]csvRow, 0, len(r.Records))
	for _, rec := range r.Records {
		category := "before " + cutoffClock
		if rec.Hour >= r.CutoffHour {
			category = "after " + cutoffClock
		}
		rows = append(rows, csvRow{
			Hour:     rec.Hour,
			Time:     fmt.Sprintf("%02d:00", rec.Hour),
			Revenue:  rec.Revenue.StringFixed(2),
			Quantity: rec.Quantity,
			Category: category,
		})
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshaling csv: %w", err)
	}

	// Summary rows. None of the values can contain commas or quotes, so
	// plain formatting is safe here.
	out += fmt.Sprintf(",,%s,,total before %s\n", r.TotalBefore.StringFixed(2), cutoffClock)
	out += fmt.Sprintf(",,%s,,total after %s\n", r.TotalAfter.StringFixed(2), cutoffClock)
	out += fmt.Sprintf(",,%s,,total\n", r.Total().StringFixed(2))

	return []byte(out), nil
}
