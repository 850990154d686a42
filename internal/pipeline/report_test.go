package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"covid-pipeline/internal/model"
)

func TestReporterHeadElidesWideFrames(t *testing.T) {
	header := "Province/State,Country/Region,Lat,Long,1/1/21,1/2/21,1/3/21,1/4/21,1/5/21,1/6/21,1/7/21,1/8/21"
	f := mustReadFrame(t, header+"\n,A,1.5,2.5,1,2,3,4,5,6,7,8\n,B,1.5,2.5,1,2,3,4,5,6,7,99\n")

	var buf bytes.Buffer
	NewReporter(&buf).Head(f)
	out := buf.String()

	for _, want := range []string{"Country/Region", "...", "1/8/21", "NaN", "99", "[2 rows x 12 columns]"} {
		if !strings.Contains(out, want) {
			t.Errorf("Head() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "1/3/21") {
		t.Errorf("Head() printed a middle column:\n%s", out)
	}
}

func TestReporterInfo(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).Info(mustReadFrame(t, testlandCSV))
	out := buf.String()

	for _, want := range []string{
		"3 entries, 6 columns",
		"Province/State",
		"2 non-null",
		"dtypes: float64(2), int64(2), object(2)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Info() output missing %q:\n%s", want, out)
		}
	}
}

func TestReporterNullCounts(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).NullCounts(mustReadFrame(t, testlandCSV))
	out := buf.String()

	if !strings.Contains(out, "Province/State") || !strings.Contains(out, "5 columns without nulls") {
		t.Errorf("NullCounts() output:\n%s", out)
	}
}

func TestReporterSummary(t *testing.T) {
	s := &model.Summary{
		GlobalMax: 1_500_000,
		TopCountries: []model.CountryValue{
			{Country: "US", Cases: 1_500_000},
			{Country: "Chile", Cases: 1250},
		},
	}

	var buf bytes.Buffer
	NewReporter(&buf).Summary(s)
	out := buf.String()

	for _, want := range []string{
		"Global maximum of confirmed cases: 1500000",
		"Global: 1.5M",
		"Chile",
		"1.2K",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary() output missing %q:\n%s", want, out)
		}
	}
}

func TestNilReporterWriterDiscards(t *testing.T) {
	r := NewReporter(nil)
	r.Summary(&model.Summary{})
}
