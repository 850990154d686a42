package pipeline

import (
	"covid-pipeline/internal/model"
)

// CoordinateColumns are not needed for time-series analysis.
var CoordinateColumns = []string{ColumnLatitude, ColumnLongitude}

// Clean drops the coordinate columns in place. A frame missing either column
// is a schema mismatch and is returned unchanged with model.ErrColumnNotFound.
func Clean(f *model.Frame) error {
	return f.Drop(CoordinateColumns...)
}
