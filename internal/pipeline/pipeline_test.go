package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"covid-pipeline/internal/model"
)

const jhuSample = `Province/State,Country/Region,Lat,Long,1/22/20,1/23/20,1/24/20
,Brazil,-14.235,-51.9253,0,1,3
A,Testland,1,2,10,20,30
B,Testland,1,2,5,15,25
,Chile,-35.6751,-71.543,2,4,4
`

type fakePresenter struct {
	calls   int
	summary *model.Summary
	err     error
}

func (p *fakePresenter) Present(_ context.Context, _ string, s *model.Summary) error {
	p.calls++
	p.summary = s
	return p.err
}

func serveCSV(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPipelineRun(t *testing.T) {
	srv := serveCSV(t, jhuSample)
	export := filepath.Join(t.TempDir(), "covid_cleaned.csv")
	rec := &fakeRecorder{}
	presenter := &fakePresenter{}
	var console bytes.Buffer

	p := New(Options{
		Source:       Source{URL: srv.URL},
		FocusCountry: "Brazil",
		TopN:         2,
		ExportFile:   export,
	}, rec, presenter, &console)

	s, err := p.Run(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if s.GlobalMax != 55 {
		t.Errorf("GlobalMax = %d, want 55", s.GlobalMax)
	}
	if len(s.TopCountries) != 2 || s.TopCountries[0].Country != "Testland" || s.TopCountries[1].Country != "Chile" {
		t.Errorf("TopCountries = %v", s.TopCountries)
	}
	if s.GlobalDaily.Peak.Cases != 62 {
		t.Errorf("daily peak = %d, want 62", s.GlobalDaily.Peak.Cases)
	}
	if s.Focus.Name != "Brazil" || s.Focus.Peak.Cases != 3 {
		t.Errorf("Focus = %+v", s.Focus)
	}
	if presenter.calls != 1 || presenter.summary != s {
		t.Errorf("presenter called %d times", presenter.calls)
	}

	f, err := os.Open(export)
	if err != nil {
		t.Fatalf("export file: %v", err)
	}
	defer f.Close()
	obs, err := ReadObservations(f)
	if err != nil {
		t.Fatalf("ReadObservations() error = %v", err)
	}
	if len(obs) != 3*3 {
		t.Errorf("exported %d rows, want 9", len(obs))
	}

	wantStatuses := []string{
		model.StatusLoading, model.StatusCleaning, model.StatusAggregating, model.StatusReshaping,
		model.StatusAnalyzing, model.StatusPresenting, model.StatusExporting,
	}
	if strings.Join(rec.statuses, ",") != strings.Join(wantStatuses, ",") {
		t.Errorf("statuses = %v, want %v", rec.statuses, wantStatuses)
	}
	if !rec.started || rec.finished != s || len(rec.errs) != 0 {
		t.Errorf("recorder = %+v", rec)
	}

	if !strings.Contains(console.String(), "Global maximum of confirmed cases: 55") {
		t.Errorf("console output:\n%s", console.String())
	}
}

func TestPipelineMissingFocusCountryWritesNothing(t *testing.T) {
	srv := serveCSV(t, jhuSample)
	export := filepath.Join(t.TempDir(), "covid_cleaned.csv")
	rec := &fakeRecorder{}
	presenter := &fakePresenter{}

	p := New(Options{
		Source:       Source{URL: srv.URL},
		FocusCountry: "Atlantis",
		TopN:         10,
		ExportFile:   export,
	}, rec, presenter, nil)

	_, err := p.Run(context.Background(), "run-1")
	if !errors.Is(err, ErrCountryNotFound) {
		t.Fatalf("Run() error = %v, want ErrCountryNotFound", err)
	}
	if presenter.calls != 0 {
		t.Error("charts were presented for a failed run")
	}
	if _, err := os.Stat(export); !os.IsNotExist(err) {
		t.Errorf("export file exists after a failed run: %v", err)
	}
	if len(rec.errs) != 1 || rec.statuses[len(rec.statuses)-1] != model.StatusFailed {
		t.Errorf("recorder errs = %v, statuses = %v", rec.errs, rec.statuses)
	}
	if rec.finished != nil {
		t.Error("FinishRun called for a failed run")
	}
}

func TestPipelineBadDateHeader(t *testing.T) {
	srv := serveCSV(t, "Province/State,Country/Region,Lat,Long,2020-01-22\n,Brazil,0,0,1\n")
	export := filepath.Join(t.TempDir(), "covid_cleaned.csv")

	p := New(Options{Source: Source{URL: srv.URL}, FocusCountry: "Brazil", TopN: 10, ExportFile: export}, nil, nil, nil)

	if _, err := p.Run(context.Background(), "run-1"); err == nil {
		t.Fatal("Run() with a malformed date header returned nil error")
	}
	if _, err := os.Stat(export); !os.IsNotExist(err) {
		t.Error("export file written for a failed run")
	}
}

func TestPipelineUnreachableSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New(Options{Source: Source{URL: srv.URL}, FocusCountry: "Brazil", TopN: 10}, nil, nil, nil)
	if _, err := p.Run(context.Background(), "run-1"); err == nil {
		t.Fatal("Run() against a failing server returned nil error")
	}
}

func TestPipelineRecorderFailureIsNotFatal(t *testing.T) {
	srv := serveCSV(t, jhuSample)
	export := filepath.Join(t.TempDir(), "covid_cleaned.csv")

	p := New(Options{Source: Source{URL: srv.URL}, FocusCountry: "Chile", TopN: 10, ExportFile: export},
		&fakeRecorder{fail: true}, nil, nil)

	if _, err := p.Run(context.Background(), "run-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(export); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestPipelineObservationSink(t *testing.T) {
	srv := serveCSV(t, jhuSample)
	sink := &fakeSink{}

	p := New(Options{
		Source:       Source{URL: srv.URL},
		FocusCountry: "Brazil",
		TopN:         10,
		ExportFile:   filepath.Join(t.TempDir(), "covid_cleaned.csv"),
	}, nil, nil, nil).WithObservationSink(sink, "sqlite3")

	if _, err := p.Run(context.Background(), "run-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.saved) != 9 {
		t.Errorf("sink received %d observations, want 9", len(sink.saved))
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == "" || a == b {
		t.Errorf("NewRunID() = %q, %q", a, b)
	}
}

func TestPipelineBlankProvinceColumn(t *testing.T) {
	srv := serveCSV(t, "Province/State,Country/Region,Lat,Long,1/22/20,1/23/20\n,Brazil,1,2,10,20\n,Chile,1,2,5,15\n")

	p := New(Options{
		Source:       Source{URL: srv.URL},
		FocusCountry: "Brazil",
		TopN:         10,
		ExportFile:   filepath.Join(t.TempDir(), "covid_cleaned.csv"),
	}, nil, nil, nil)

	s, err := p.Run(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Observations != 4 || s.GlobalMax != 20 {
		t.Errorf("summary = %d observations, global max %d; want 4, 20", s.Observations, s.GlobalMax)
	}
}

func TestPipelineFailingSinkWritesNoFile(t *testing.T) {
	srv := serveCSV(t, jhuSample)
	export := filepath.Join(t.TempDir(), "covid_cleaned.csv")

	p := New(Options{Source: Source{URL: srv.URL}, FocusCountry: "Brazil", TopN: 10, ExportFile: export},
		nil, nil, nil).WithObservationSink(&fakeSink{err: errors.New("db down")}, "sqlite3")

	if _, err := p.Run(context.Background(), "run-1"); err == nil {
		t.Fatal("Run() with a failing sink returned nil error")
	}
	if _, err := os.Stat(export); !os.IsNotExist(err) {
		t.Errorf("export file exists after a failed run: %v", err)
	}
}

func TestPipelineCancelledRunIsRecordedAsFailed(t *testing.T) {
	srv := serveCSV(t, jhuSample)
	rec := &fakeRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(Options{Source: Source{URL: srv.URL}, FocusCountry: "Brazil", TopN: 10}, rec, nil, nil)
	if _, err := p.Run(ctx, "run-1"); err == nil {
		t.Fatal("Run() with a cancelled context returned nil error")
	}
	if len(rec.errs) != 1 || rec.failCtx != nil {
		t.Errorf("run error saved %d times with ctx error %v", len(rec.errs), rec.failCtx)
	}
	if last := rec.statuses[len(rec.statuses)-1]; last != model.StatusFailed {
		t.Errorf("last status = %q, want failed", last)
	}
}
