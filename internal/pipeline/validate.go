package pipeline

import (
	"fmt"

	"covid-pipeline/internal/model"
)

// Column names of the JHU confirmed-cases time series.
const (
	ColumnProvince  = "Province/State"
	ColumnCountry   = "Country/Region"
	ColumnLatitude  = "Lat"
	ColumnLongitude = "Long"
	ColumnDate      = "Date"
	ColumnCases     = "Confirmed Cases"
)

// ValidationRules describes the identity block of a wide CSV. Every column
// not listed in IdentityFields is a date column and must hold integers.
type ValidationRules struct {
	RequiredFields []string // fields that must be present
	NumericFields  []string // identity fields that must be numeric when present
	IdentityFields []string // fields that are not dates
	TextFields     []string // identity fields that are strings whatever their cells hold
}

// WideSchema is the layout of the upstream CSV.
var WideSchema = ValidationRules{
	RequiredFields: []string{ColumnCountry},
	NumericFields:  []string{ColumnLatitude, ColumnLongitude},
	IdentityFields: []string{ColumnProvince, ColumnCountry, ColumnLatitude, ColumnLongitude},
	TextFields:     []string{ColumnProvince, ColumnCountry},
}

// ApplySchema types the text identity fields of a freshly loaded frame as
// strings, including columns whose cells are all blank.
func ApplySchema(f *model.Frame, rules ValidationRules) error {
	for _, field := range rules.TextFields {
		if !f.Has(field) {
			continue
		}
		if err := f.AsText(field); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFrame checks a freshly loaded frame against rules.
func ValidateFrame(f *model.Frame, rules ValidationRules) error {
	// Check required fields
	for _, field := range rules.RequiredFields {
		if !f.Has(field) {
			return fmt.Errorf("missing required field %q: %w", field, model.ErrColumnNotFound)
		}
	}

	// Check numeric fields
	for _, field := range rules.NumericFields {
		if f.Has(field) && !f.Kind(field).Numeric() {
			return fmt.Errorf("%w: field %s must be numeric, got %s", ErrMalformed, field, f.Kind(field))
		}
	}

	identity := make(map[string]bool, len(rules.IdentityFields))
	for _, field := range rules.IdentityFields {
		identity[field] = true
	}

	dates := 0
	for _, col := range f.Columns {
		if identity[col] {
			continue
		}
		if f.Kind(col) != model.KindInt {
			return fmt.Errorf("%w: date column %q must hold integer counts, got %s", ErrMalformed, col, f.Kind(col))
		}
		dates++
	}
	if dates == 0 {
		return fmt.Errorf("%w: no date columns", ErrMalformed)
	}

	return nil
}
