package model

import (
	"errors"
	"fmt"
)

// ErrColumnNotFound is returned when an operation names a column the frame does not have.
var ErrColumnNotFound = errors.New("column not found")

// Kind is the inferred type of a frame column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// String returns the dtype name printed in schema summaries.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int64"
	case KindFloat:
		return "float64"
	default:
		return "object"
	}
}

// Numeric reports whether values of this kind take part in sums.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// GenericRecord is a schema-agnostic row keyed by column name.
// A nil value is a null cell; otherwise the value is a string, int64 or float64
// according to the column kind.
type GenericRecord map[string]interface{}

// Frame is an ordered set of typed columns over GenericRecord rows.
type Frame struct {
	Columns []string
	Kinds   map[string]Kind
	Records []GenericRecord
}

// NewFrame creates an empty frame with the given column order and kinds.
func NewFrame(columns []string, kinds map[string]Kind) *Frame {
	cols := make([]string, len(columns))
	copy(cols, columns)
	k := make(map[string]Kind, len(kinds))
	for name, kind := range kinds {
		k[name] = kind
	}
	return &Frame{Columns: cols, Kinds: k}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Records)
}

// Has reports whether the frame has a column with this name.
func (f *Frame) Has(column string) bool {
	_, ok := f.Kinds[column]
	return ok
}

// Kind returns the kind of a column. Unknown columns report KindString.
func (f *Frame) Kind(column string) Kind {
	return f.Kinds[column]
}

// Append adds a row. The record is stored as given.
func (f *Frame) Append(rec GenericRecord) {
	f.Records = append(f.Records, rec)
}

// Drop removes the named columns from the frame. Either every column is
// removed or, when one is missing, the frame is left untouched.
func (f *Frame) Drop(columns ...string) error {
	for _, c := range columns {
		if !f.Has(c) {
			return fmt.Errorf("drop %q: %w", c, ErrColumnNotFound)
		}
	}

	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
		delete(f.Kinds, c)
	}

	kept := f.Columns[:0]
	for _, c := range f.Columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	f.Columns = kept

	for _, rec := range f.Records {
		for c := range drop {
			delete(rec, c)
		}
	}
	return nil
}

// AsText retypes a column as KindString. Non-null cells are rendered with %v.
func (f *Frame) AsText(column string) error {
	if !f.Has(column) {
		return fmt.Errorf("retype %q: %w", column, ErrColumnNotFound)
	}
	if f.Kinds[column] == KindString {
		return nil
	}
	f.Kinds[column] = KindString
	for _, rec := range f.Records {
		if v := rec[column]; v != nil {
			rec[column] = fmt.Sprintf("%v", v)
		}
	}
	return nil
}

// NullCount returns the number of null cells in a column.
func (f *Frame) NullCount(column string) int {
	n := 0
	for _, rec := range f.Records {
		if rec[column] == nil {
			n++
		}
	}
	return n
}

// Head returns a frame sharing the first n rows of f.
func (f *Frame) Head(n int) *Frame {
	if n > len(f.Records) {
		n = len(f.Records)
	}
	if n < 0 {
		n = 0
	}
	head := NewFrame(f.Columns, f.Kinds)
	head.Records = f.Records[:n]
	return head
}
