package pipeline

import (
	"fmt"
	"time"

	"covid-pipeline/internal/model"
)

// DateLayout is the month/day/two-digit-year layout of the date headers.
const DateLayout = "1/2/06"

// Melt turns the wide frame into long observations. Every column other than
// id is a date column whose header must parse with layout; the first header
// that does not is reported and nothing is returned. Rows are emitted date by
// date, and within a date in frame row order.
func Melt(f *model.Frame, id, layout string) ([]model.Observation, error) {
	if !f.Has(id) {
		return nil, fmt.Errorf("melt on %q: %w", id, model.ErrColumnNotFound)
	}

	type dateColumn struct {
		name string
		date time.Time
	}
	var dates []dateColumn
	for _, col := range f.Columns {
		if col == id {
			continue
		}
		d, err := time.Parse(layout, col)
		if err != nil {
			return nil, fmt.Errorf("parse date column %q: %w", col, err)
		}
		if f.Kind(col) != model.KindInt {
			return nil, fmt.Errorf("%w: value column %q is %s, want int64", ErrMalformed, col, f.Kind(col))
		}
		dates = append(dates, dateColumn{name: col, date: d})
	}

	out := make([]model.Observation, 0, len(dates)*f.Len())
	for _, dc := range dates {
		for _, rec := range f.Records {
			cases, ok := rec[dc.name].(int64)
			if !ok {
				return nil, fmt.Errorf("%w: no value for %v on %s", ErrMalformed, rec[id], dc.name)
			}
			out = append(out, model.Observation{
				Country: fmt.Sprintf("%v", rec[id]),
				Date:    dc.date,
				Cases:   cases,
			})
		}
	}
	return out, nil
}
