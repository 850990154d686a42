package chart

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"covid-pipeline/internal/logging"
	"covid-pipeline/internal/model"
	"covid-pipeline/pkg/utils"

	"github.com/pkg/browser"
)

// Options configures where charts go and how they are shown.
type Options struct {
	Dir       string // base directory, one sub-directory per run
	Open      bool   // open each chart in the default browser
	Snapshot  bool   // also write a PNG next to each chart
	ChromeBin string // browser used for snapshots; empty means auto-detect
}

// Display writes the three charts of a run as HTML documents and shows them.
type Display struct {
	opts Options
	out  *utils.OutputManager
	open func(path string) error
}

// NewDisplay creates a Display.
func NewDisplay(o Options) *Display {
	return &Display{
		opts: o,
		out:  utils.NewOutputManager(o.Dir),
		open: browser.OpenFile,
	}
}

type document struct {
	file string
	r    Renderer
}

// Present renders all charts, writes them, then opens them. A chart that
// fails to render aborts before any file is written. Failing to open or
// snapshot a written chart is only logged.
func (d *Display) Present(ctx context.Context, runID string, s *model.Summary) error {
	_, err := d.Write(ctx, runID, s)
	return err
}

// Write is Present returning the paths of the chart documents.
func (d *Display) Write(ctx context.Context, runID string, s *model.Summary) ([]string, error) {
	logger := logging.FromContext(ctx)

	docs := []document{
		{"global.html", GlobalChart(s.GlobalDaily)},
		{"top_countries.html", TopCountriesChart(s.TopCountries)},
		{utils.Slug(s.Focus.Name) + ".html", CountryChart(s.Focus)},
	}

	rendered := make([][]byte, len(docs))
	for i, doc := range docs {
		var buf bytes.Buffer
		if err := doc.r.Render(&buf); err != nil {
			return nil, fmt.Errorf("render %s: %w", doc.file, err)
		}
		rendered[i] = buf.Bytes()
	}

	paths := make([]string, 0, len(docs))
	for i, doc := range docs {
		path, err := d.out.GetOutputFilePath(runID, doc.file)
		if err != nil {
			return paths, err
		}
		if err := os.WriteFile(path, rendered[i], 0644); err != nil {
			return paths, fmt.Errorf("write chart: %w", err)
		}
		logger.Debug("chart written", "path", path)
		paths = append(paths, path)
	}

	if d.opts.Snapshot {
		pngs, err := Snapshot(ctx, d.opts.ChromeBin, paths)
		if err != nil {
			logger.Warn("chart snapshot failed", "error", err)
		}
		for _, p := range pngs {
			logger.Info("chart snapshot written", "path", p)
		}
	}

	if d.opts.Open {
		for _, path := range paths {
			if err := d.open(path); err != nil {
				logger.Warn("could not open chart", "path", path, "error", err)
			}
		}
	}

	logger.Info("charts written", "dir", d.out.BaseOutputDir, "count", len(paths))
	return paths, nil
}
