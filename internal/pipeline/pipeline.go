package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"covid-pipeline/internal/logging"
	"covid-pipeline/internal/model"

	"github.com/google/uuid"
)

// Presenter renders the charts of a run.
type Presenter interface {
	Present(ctx context.Context, runID string, s *model.Summary) error
}

// Options holds the fixed parameters of a run.
type Options struct {
	Source       Source
	FocusCountry string
	TopN         int
	ExportFile   string
}

// Pipeline wires the stages of one analysis run together.
type Pipeline struct {
	opts      Options
	recorder  Recorder
	sink      ObservationSink
	sinkLabel string
	presenter Presenter
	report    *Reporter
}

// New creates a pipeline. recorder may be nil; console diagnostics go to console.
func New(opts Options, recorder Recorder, presenter Presenter, console io.Writer) *Pipeline {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Pipeline{
		opts:      opts,
		recorder:  recorder,
		presenter: presenter,
		report:    NewReporter(console),
	}
}

// WithObservationSink also exports the long table to sink, reported under label.
func (p *Pipeline) WithObservationSink(sink ObservationSink, label string) *Pipeline {
	p.sink = sink
	p.sinkLabel = label
	return p
}

// NewRunID returns a fresh identifier for a pipeline run.
func NewRunID() string {
	return uuid.New().String()
}

// ------------------- Pipeline Runner -------------------

// Run executes the pipeline once, top to bottom, on the calling goroutine.
// Every computation, including the focus-country series, finishes before
// charts or files are written, so a failed run produces no output.
func (p *Pipeline) Run(ctx context.Context, runID string) (summary *model.Summary, err error) {
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)
	tracker := NewPipelineTracker(runID, p.recorder)
	start := time.Now()

	logger.Info("starting pipeline", "source", p.opts.Source.URL)
	if e := p.recorder.StartRun(ctx, runID, p.opts.Source.URL, start); e != nil {
		logger.Warn("recorder start run failed", "error", e)
	}

	defer func() {
		if err == nil {
			return
		}
		// The failure is recorded even when ctx was cancelled.
		bg := context.WithoutCancel(ctx)
		if e := p.recorder.SaveRunError(bg, runID, err); e != nil {
			logger.Warn("recorder save error failed", "error", e)
		}
		if e := p.recorder.UpdateRunStatus(bg, runID, model.StatusFailed); e != nil {
			logger.Warn("recorder update status failed", "error", e)
		}
	}()

	// --- LOAD ---
	var raw *model.Frame
	err = tracker.Stage(ctx, "load", model.StatusLoading, func() (int, error) {
		frame, err := Load(ctx, p.opts.Source)
		if err != nil {
			return 0, err
		}
		if err := ApplySchema(frame, WideSchema); err != nil {
			return 0, err
		}
		if err := ValidateFrame(frame, WideSchema); err != nil {
			return 0, fmt.Errorf("validate %s: %w", p.opts.Source.URL, err)
		}
		raw = frame
		return frame.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	p.report.Head(raw)
	p.report.Info(raw)
	p.report.NullCounts(raw)

	// --- CLEAN ---
	err = tracker.Stage(ctx, "clean", model.StatusCleaning, func() (int, error) {
		return raw.Len(), Clean(raw)
	})
	if err != nil {
		return nil, err
	}

	// --- AGGREGATE ---
	var byCountry *model.Frame
	err = tracker.Stage(ctx, "aggregate", model.StatusAggregating, func() (int, error) {
		frame, err := Aggregate(raw, ColumnCountry)
		if err != nil {
			return 0, err
		}
		byCountry = frame
		return frame.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	// --- RESHAPE ---
	var long []model.Observation
	err = tracker.Stage(ctx, "reshape", model.StatusReshaping, func() (int, error) {
		obs, err := Melt(byCountry, ColumnCountry, DateLayout)
		if err != nil {
			return 0, err
		}
		long = obs
		return len(obs), nil
	})
	if err != nil {
		return nil, err
	}

	// --- ANALYZE ---
	err = tracker.Stage(ctx, "analyze", model.StatusAnalyzing, func() (int, error) {
		s, err := Analyze(long, p.opts.FocusCountry, p.opts.TopN)
		if err != nil {
			return 0, err
		}
		summary = s
		return len(s.TopCountries), nil
	})
	if err != nil {
		return nil, err
	}

	p.report.Summary(summary)

	// --- PRESENT ---
	if p.presenter != nil {
		err = tracker.Stage(ctx, "present", model.StatusPresenting, func() (int, error) {
			return 3, p.presenter.Present(ctx, runID, summary)
		})
		if err != nil {
			return nil, err
		}
	}

	// --- EXPORT ---
	err = tracker.Stage(ctx, "export", model.StatusExporting, func() (int, error) {
		em := &ExportManager{RunID: runID, File: p.opts.ExportFile, Sink: p.sink, Label: p.sinkLabel}
		exported := 0
		for _, result := range em.ExportAll(ctx, long) {
			if !result.Success {
				return exported, fmt.Errorf("export to %s %s: %s", result.Type, result.Path, result.Error)
			}
			logger.Info("export completed", "type", result.Type, "path", result.Path, "records", result.RecordCount)
			exported += result.RecordCount
		}
		return exported, nil
	})
	if err != nil {
		return nil, err
	}

	if e := p.recorder.FinishRun(ctx, runID, summary, time.Now()); e != nil {
		logger.Warn("recorder finish run failed", "error", e)
	}
	for _, m := range tracker.Stages() {
		logger.Debug("stage timing", "stage", m.Stage, "records", m.Records, "duration_ms", m.Duration.Milliseconds())
	}
	logger.Info("pipeline completed", "duration", time.Since(start), "observations", len(long))
	return summary, nil
}
