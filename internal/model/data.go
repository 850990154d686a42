package model

import "time"

// Observation is one long-form row: cumulative confirmed cases for a country on a date.
type Observation struct {
	Country string    `json:"country"`
	Date    time.Time `json:"date"`
	Cases   int64     `json:"cases"`
}

// CountryValue pairs a country with a case count.
type CountryValue struct {
	Country string `json:"country"`
	Cases   int64  `json:"cases"`
}

// DatePoint is a single point of a time series.
type DatePoint struct {
	Date  time.Time `json:"date"`
	Cases int64     `json:"cases"`
}

// Series is an ordered time series together with its first maximum point.
type Series struct {
	Name   string      `json:"name"`
	Points []DatePoint `json:"points"`
	Peak   DatePoint   `json:"peak"`
}

// Summary holds every statistic derived from the long table.
type Summary struct {
	// GlobalMax is the largest single country-day value in the table, which
	// is not the peak of GlobalDaily.
	GlobalMax    int64          `json:"global_max"`
	TopCountries []CountryValue `json:"top_countries"`
	GlobalDaily  Series         `json:"global_daily"`
	Focus        Series         `json:"focus"`
	Countries    int            `json:"countries"`
	Dates        int            `json:"dates"`
	Observations int            `json:"observations"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "file", "database"
	Path        string    `json:"path"` // file path or store driver
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ExportedAt  time.Time `json:"exported_at"`
}
