package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"covid-pipeline/internal/model"
)

// ExportDateLayout is how dates are written to the long-form CSV.
const ExportDateLayout = "2006-01-02"

// ExportHeader is the header row of the long-form CSV.
var ExportHeader = []string{ColumnCountry, ColumnDate, ColumnCases}

// ObservationSink persists the long table somewhere other than a file.
type ObservationSink interface {
	SaveObservations(ctx context.Context, runID string, obs []model.Observation) error
}

// ExportManager handles data export operations
type ExportManager struct {
	RunID string
	File  string
	Sink  ObservationSink // optional
	Label string          // name reported for the sink
}

// ExportAll writes the observations to the sink, when configured, and then
// to the file. A failed sink export returns before the file is touched.
func (em *ExportManager) ExportAll(ctx context.Context, obs []model.Observation) []model.ExportResult {
	var results []model.ExportResult
	if em.Sink != nil {
		result := em.exportToDatabase(ctx, obs)
		results = append(results, result)
		if !result.Success {
			return results
		}
	}
	return append(results, em.exportToFile(obs))
}

// exportToFile writes the long-form CSV, replacing any previous file.
func (em *ExportManager) exportToFile(obs []model.Observation) model.ExportResult {
	result := model.ExportResult{
		Type:       "file",
		Path:       em.File,
		ExportedAt: time.Now(),
	}

	count, err := em.exportToCSV(obs)
	result.RecordCount = count
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

func (em *ExportManager) exportToCSV(obs []model.Observation) (int, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(em.File)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(em.File)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteObservations(file, obs); err != nil {
		file.Close()
		return 0, err
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("failed to close file: %w", err)
	}
	return len(obs), nil
}

// exportToDatabase hands the observations to the configured sink.
func (em *ExportManager) exportToDatabase(ctx context.Context, obs []model.Observation) model.ExportResult {
	result := model.ExportResult{
		Type:       "database",
		Path:       em.Label,
		ExportedAt: time.Now(),
	}

	if err := em.Sink.SaveObservations(ctx, em.RunID, obs); err != nil {
		result.Error = err.Error()
		return result
	}
	result.RecordCount = len(obs)
	result.Success = true
	return result
}

// WriteObservations writes the long-form CSV without an index column.
func WriteObservations(w io.Writer, obs []model.Observation) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, o := range obs {
		row := []string{
			o.Country,
			o.Date.Format(ExportDateLayout),
			strconv.FormatInt(o.Cases, 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadObservations parses a file produced by WriteObservations.
func ReadObservations(r io.Reader) ([]model.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(ExportHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	for i, h := range ExportHeader {
		if header[i] != h {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrMalformed, i, header[i], h)
		}
	}

	var obs []model.Observation
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		date, err := time.Parse(ExportDateLayout, row[1])
		if err != nil {
			return nil, fmt.Errorf("%w: date %q: %v", ErrMalformed, row[1], err)
		}
		cases, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cases %q: %v", ErrMalformed, row[2], err)
		}
		obs = append(obs, model.Observation{Country: row[0], Date: date, Cases: cases})
	}
	return obs, nil
}
