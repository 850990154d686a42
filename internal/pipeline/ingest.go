package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"covid-pipeline/internal/model"
	"covid-pipeline/pkg/utils"
)

// ErrMalformed marks input that cannot be read as the expected wide CSV.
var ErrMalformed = errors.New("malformed input")

// Source describes where the wide CSV lives.
type Source struct {
	URL     string        // http(s) URL or local file path
	Timeout time.Duration // 0 means no timeout
}

// ------------------- Loading -------------------

// Load fetches the CSV behind src and parses it into a typed frame.
// There is no retry: any transport or parse failure is returned as is.
func Load(ctx context.Context, src Source) (*model.Frame, error) {
	body, err := open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	frame, err := ReadFrame(body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.URL, err)
	}
	return frame, nil
}

func open(ctx context.Context, src Source) (io.ReadCloser, error) {
	if !strings.HasPrefix(src.URL, "http://") && !strings.HasPrefix(src.URL, "https://") {
		file, err := os.Open(src.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		return file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	client := &http.Client{Timeout: src.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET CSV: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to GET CSV: %s returned %s", src.URL, resp.Status)
	}
	return resp.Body, nil
}

// ReadFrame parses a headed CSV into a frame. Column kinds are inferred from
// the cells: a column is int64 when every non-empty cell is an integer,
// float64 when every non-empty cell is numeric, and a string column otherwise.
// Ragged rows are rejected.
func ReadFrame(r io.Reader) (*model.Frame, error) {
	csvReader := csv.NewReader(r)

	headers, err := csvReader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty CSV", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}

	columns := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		// Clean header names: trim whitespace, BOM and quotes
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		name = strings.ReplaceAll(name, `"`, "")
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformed, name)
		}
		seen[name] = true
		columns[i] = name
	}

	var rows [][]string
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rows = append(rows, record)
	}

	kinds := make(map[string]model.Kind, len(columns))
	for i, name := range columns {
		kinds[name] = inferKind(rows, i)
	}

	frame := model.NewFrame(columns, kinds)
	for _, row := range rows {
		rec := make(model.GenericRecord, len(columns))
		for i, name := range columns {
			rec[name] = coerce(row[i], kinds[name])
		}
		frame.Append(rec)
	}
	return frame, nil
}

// inferKind picks the narrowest kind that holds every non-null cell of a
// column. A column without any value is float64, like an all-NaN column.
func inferKind(rows [][]string, col int) model.Kind {
	kind := model.KindInt
	values := 0
	for _, row := range rows {
		switch utils.ParseValue(row[col]).(type) {
		case nil:
			continue
		case int64:
		case float64:
			kind = model.KindFloat
		default:
			return model.KindString
		}
		values++
	}
	if values == 0 {
		return model.KindFloat
	}
	return kind
}

// coerce converts a raw cell to the representation of its column kind.
// String columns keep the cell text untouched.
func coerce(cell string, kind model.Kind) interface{} {
	v := utils.ParseValue(cell)
	if v == nil {
		return nil
	}
	switch kind {
	case model.KindString:
		return cell
	case model.KindFloat:
		f, _ := utils.Numeric(v)
		return f
	}
	return v
}
