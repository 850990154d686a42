package pipeline

import (
	"context"
	"time"

	"covid-pipeline/internal/logging"
	"covid-pipeline/internal/model"
)

// Recorder keeps the bookkeeping of a run: status, per-stage progress,
// errors and the final summary.
type Recorder interface {
	StartRun(ctx context.Context, runID, source string, startedAt time.Time) error
	UpdateRunStatus(ctx context.Context, runID, status string) error
	SaveStageProgress(ctx context.Context, runID string, m model.StageMetrics) error
	SaveRunError(ctx context.Context, runID string, err error) error
	FinishRun(ctx context.Context, runID string, s *model.Summary, finishedAt time.Time) error
}

// NopRecorder discards everything. It is used when no store is configured.
type NopRecorder struct{}

func (NopRecorder) StartRun(context.Context, string, string, time.Time) error { return nil }
func (NopRecorder) UpdateRunStatus(context.Context, string, string) error { return nil }
func (NopRecorder) SaveStageProgress(context.Context, string, model.StageMetrics) error { return nil }
func (NopRecorder) SaveRunError(context.Context, string, error) error { return nil }
func (NopRecorder) FinishRun(context.Context, string, *model.Summary, time.Time) error { return nil }

// PipelineTracker times each stage and reports it to the logger and the recorder.
type PipelineTracker struct {
	RunID    string
	recorder Recorder
	stages   []model.StageMetrics
}

// NewPipelineTracker creates a tracker for one run.
func NewPipelineTracker(runID string, recorder Recorder) *PipelineTracker {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &PipelineTracker{RunID: runID, recorder: recorder}
}

// Stage runs fn as the named stage. fn returns the number of records the
// stage produced. Recorder failures are logged and never fail the stage.
func (pt *PipelineTracker) Stage(ctx context.Context, name, status string, fn func() (int, error)) error {
	logger := logging.FromContext(ctx).With("stage", name)

	pt.warn(ctx, "update status", pt.recorder.UpdateRunStatus(ctx, pt.RunID, status))
	logger.Info("stage started")

	m := model.StageMetrics{Stage: name, StartTime: time.Now()}
	records, err := fn()
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Records = int64(records)
	m.Status = model.StatusCompleted
	if err != nil {
		m.Status = model.StatusFailed
	}
	pt.stages = append(pt.stages, m)
	pt.warn(ctx, "save stage progress", pt.recorder.SaveStageProgress(ctx, pt.RunID, m))

	if err != nil {
		logger.Error("stage failed", "duration_ms", m.Duration.Milliseconds(), "error", err)
		return err
	}
	logger.Info("stage completed", "records", records, "duration_ms", m.Duration.Milliseconds())
	return nil
}

// Stages returns the metrics of every stage run so far.
func (pt *PipelineTracker) Stages() []model.StageMetrics {
	out := make([]model.StageMetrics, len(pt.stages))
	copy(out, pt.stages)
	return out
}

func (pt *PipelineTracker) warn(ctx context.Context, op string, err error) {
	if err != nil {
		logging.FromContext(ctx).Warn("recorder "+op+" failed", "error", err)
	}
}
