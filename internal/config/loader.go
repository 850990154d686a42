package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if cfg.Source.URL == "" {
		cfg.Source.URL = DefaultSourceURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value, set := os.LookupEnv(envName)
		if !set || value == "" {
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Source.URL) == "" {
		errs = append(errs, "SOURCE_URL is required")
	}
	if c.Source.Timeout < 0 {
		errs = append(errs, "SOURCE_TIMEOUT must be non-negative")
	}

	if strings.TrimSpace(c.Analysis.FocusCountry) == "" {
		errs = append(errs, "FOCUS_COUNTRY is required")
	}
	if c.Analysis.TopN <= 0 {
		errs = append(errs, fmt.Sprintf("TOP_N (%d) must be positive", c.Analysis.TopN))
	}

	if strings.TrimSpace(c.Export.File) == "" {
		errs = append(errs, "EXPORT_FILE is required")
	}

	validDrivers := map[string]bool{"sqlite3": true, "postgres": true}
	if !validDrivers[c.Store.Driver] {
		errs = append(errs, fmt.Sprintf("STORE_DRIVER (%q) must be one of: sqlite3, postgres", c.Store.Driver))
	}
	if c.Store.Observations && !c.Store.StoreEnabled() {
		errs = append(errs, "STORE_OBSERVATIONS requires STORE_DSN")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The store DSN is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Source: {URL: %q, Timeout: %s}, ", c.Source.URL, c.Source.Timeout))
	b.WriteString(fmt.Sprintf("Analysis: {FocusCountry: %q, TopN: %d}, ", c.Analysis.FocusCountry, c.Analysis.TopN))
	b.WriteString(fmt.Sprintf("Export: {File: %q}, ", c.Export.File))
	b.WriteString(fmt.Sprintf("Chart: {Dir: %q, Open: %v, Snapshot: %v}, ", c.Chart.Dir, c.Chart.Open, c.Chart.Snapshot))
	dsn := ""
	if c.Store.StoreEnabled() {
		dsn = "[MASKED]"
	}
	b.WriteString(fmt.Sprintf("Store: {Driver: %q, DSN: %q, Observations: %v}, ", c.Store.Driver, dsn, c.Store.Observations))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
