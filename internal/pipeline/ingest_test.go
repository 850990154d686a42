package pipeline

import (
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

const testlandCSV = `Province/State,Country/Region,Lat,Long,1/1/21,1/2/21
A,Testland,1.0,2.0,10,20
B,Testland,1.5,2.5,5,15
,Otherland,3.0,4.0,7,9
`

func mustReadFrame(t *testing.T, data string) *model.Frame {
	t.Helper()
	f, err := ReadFrame(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	return f
}

func TestReadFrameKinds(t *testing.T) {
	f := mustReadFrame(t, testlandCSV)

	if f.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", f.Len())
	}
	wantCols := []string{"Province/State", "Country/Region", "Lat", "Long", "1/1/21", "1/2/21"}
	if strings.Join(f.Columns, "|") != strings.Join(wantCols, "|") {
		t.Errorf("Columns = %v, want %v", f.Columns, wantCols)
	}

	kinds := map[string]model.Kind{
		"Province/State": model.KindString,
		"Country/Region": model.KindString,
		"Lat":            model.KindFloat,
		"Long":           model.KindFloat,
		"1/1/21":         model.KindInt,
		"1/2/21":         model.KindInt,
	}
	for col, want := range kinds {
		if got := f.Kind(col); got != want {
			t.Errorf("Kind(%q) = %s, want %s", col, got, want)
		}
	}

	if got := f.Records[0]["1/2/21"]; got != int64(20) {
		t.Errorf("first row 1/2/21 = %#v, want int64(20)", got)
	}
	if got := f.Records[2]["Province/State"]; got != nil {
		t.Errorf("empty province = %#v, want nil", got)
	}
	if n := f.NullCount("Province/State"); n != 1 {
		t.Errorf("NullCount(Province/State) = %d, want 1", n)
	}
}

func TestReadFrameStringColumnKeepsText(t *testing.T) {
	f := mustReadFrame(t, "code,name\n007,Bond\nabc,Other\n")

	if f.Kind("code") != model.KindString {
		t.Fatalf("Kind(code) = %s, want object", f.Kind("code"))
	}
	if got := f.Records[0]["code"]; got != "007" {
		t.Errorf("code = %#v, want %q", got, "007")
	}
}

func TestReadFrameCleansHeaders(t *testing.T) {
	f := mustReadFrame(t, "\ufeff Country/Region ,1/1/21\nX,1\n")

	if !f.Has(ColumnCountry) {
		t.Errorf("Columns = %q, want BOM and spaces trimmed", f.Columns)
	}
}

func TestReadFrameMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"ragged row", "a,b\n1,2\n3\n"},
		{"duplicate column", "a,a\n1,2\n"},
		{"bare quote", "a,b\n1,\"2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrame(strings.NewReader(tt.data))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("ReadFrame() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestReadFrameAllNullColumnIsFloat(t *testing.T) {
	f := mustReadFrame(t, "a,b\n1,\n2,\n")

	if f.Kind("b") != model.KindFloat {
		t.Errorf("Kind(b) = %s, want float64", f.Kind("b"))
	}
}

func TestLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(testlandCSV))
	}))
	defer srv.Close()

	f, err := Load(context.Background(), Source{URL: srv.URL})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Len() != 3 {
		t.Errorf("Len() = %d, want 3", f.Len())
	}
}

func TestLoadHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := Load(context.Background(), Source{URL: srv.URL}); err == nil {
		t.Fatal("Load() of a 404 returned nil error")
	}
}

func TestLoadHTTPCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testlandCSV))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, Source{URL: srv.URL}); err == nil {
		t.Fatal("Load() with cancelled context returned nil error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.csv")
	if err := os.WriteFile(path, []byte(testlandCSV), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(context.Background(), Source{URL: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Len() != 3 {
		t.Errorf("Len() = %d, want 3", f.Len())
	}

	if _, err := Load(context.Background(), Source{URL: path + ".missing"}); err == nil {
		t.Error("Load() of a missing file returned nil error")
	}
}
