// Package config provides centralized configuration management for the pipeline.
// It loads configuration from environment variables with defaults that
// reproduce the stock analysis run, and validates all settings on startup.
package config

import "time"

// DefaultSourceURL is the JHU CSSE confirmed-cases global time series.
const DefaultSourceURL = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_time_series/time_series_covid19_confirmed_global.csv"

// Config holds all pipeline configuration.
type Config struct {
	Source   SourceConfig
	Analysis AnalysisConfig
	Export   ExportConfig
	Chart    ChartConfig
	Store    StoreConfig
	Logging  LoggingConfig
}

// SourceConfig holds input settings.
type SourceConfig struct {
	// URL is an http(s) URL or a local file path of the wide CSV (default: DefaultSourceURL)
	URL string `env:"SOURCE_URL"`

	// Timeout bounds the HTTP fetch; 0 means no timeout (default: 0s)
	Timeout time.Duration `env:"SOURCE_TIMEOUT" default:"0s"`
}

// AnalysisConfig holds the fixed analysis parameters.
type AnalysisConfig struct {
	// FocusCountry is the country plotted on its own (default: Brazil)
	FocusCountry string `env:"FOCUS_COUNTRY" default:"Brazil"`

	// TopN is the length of the per-country ranking (default: 10)
	TopN int `env:"TOP_N" default:"10"`
}

// ExportConfig holds export targets.
type ExportConfig struct {
	// File is the long-form CSV, overwritten on each run (default: covid_cleaned.csv)
	File string `env:"EXPORT_FILE" default:"covid_cleaned.csv"`
}

// ChartConfig holds chart output settings.
type ChartConfig struct {
	// Dir is where chart documents are written; empty uses the temp dir
	Dir string `env:"CHART_DIR"`

	// Open displays each chart in the default browser (default: true)
	Open bool `env:"CHART_OPEN" default:"true"`

	// Snapshot also renders each chart to PNG with headless Chrome (default: false)
	Snapshot bool `env:"CHART_SNAPSHOT" default:"false"`

	// ChromeBin overrides the browser binary used for snapshots
	ChromeBin string `env:"CHROME_BIN"`
}

// StoreConfig holds run-store settings.
type StoreConfig struct {
	// Driver is the database/sql driver: sqlite3 or postgres (default: sqlite3)
	Driver string `env:"STORE_DRIVER" default:"sqlite3"`

	// DSN is the data source name; empty disables the store
	DSN string `env:"STORE_DSN"`

	// Observations also exports the long table to the store (default: false)
	Observations bool `env:"STORE_OBSERVATIONS" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// StoreEnabled reports whether a run store was configured.
func (c *StoreConfig) StoreEnabled() bool {
	return c.DSN != ""
}
