package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"covid-pipeline/internal/model"
	"covid-pipeline/pkg/utils"
)

const (
	headRows       = 5
	edgeColumns    = 4  // columns shown on each side of a wide table
	maxInfoColumns = 20 // above this only dtype counts are listed
)

// Reporter prints the human-readable diagnostics of a run.
// The output is meant for people, not for parsing.
type Reporter struct {
	w io.Writer
}

// NewReporter returns a Reporter writing to w. A nil writer discards output.
func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = io.Discard
	}
	return &Reporter{w: w}
}

// Head prints the first rows of the frame. Wide frames are elided in the middle.
func (r *Reporter) Head(f *model.Frame) {
	cols := visibleColumns(f.Columns)
	head := f.Head(headRows)

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\t"+strings.Join(cols, "\t")+"\t")
	for i, rec := range head.Records {
		cells := make([]string, len(cols))
		for j, c := range cols {
			if c == "..." {
				cells[j] = "..."
				continue
			}
			cells[j] = formatCell(rec[c])
		}
		fmt.Fprintf(tw, "%d\t%s\t\n", i, strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintf(r.w, "\n[%d rows x %d columns]\n\n", f.Len(), len(f.Columns))
}

// Info prints the schema: row count, non-null counts and kinds.
func (r *Reporter) Info(f *model.Frame) {
	fmt.Fprintf(r.w, "%d entries, %d columns\n", f.Len(), len(f.Columns))

	counts := make(map[model.Kind]int)
	for _, c := range f.Columns {
		counts[f.Kind(c)]++
	}

	if len(f.Columns) <= maxInfoColumns {
		tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, " #\tColumn\tNon-Null Count\tDtype")
		for i, c := range f.Columns {
			fmt.Fprintf(tw, " %d\t%s\t%d non-null\t%s\n", i, c, f.Len()-f.NullCount(c), f.Kind(c))
		}
		tw.Flush()
	}

	kinds := make([]string, 0, len(counts))
	for k, n := range counts {
		kinds = append(kinds, fmt.Sprintf("%s(%d)", k, n))
	}
	sort.Strings(kinds)
	fmt.Fprintf(r.w, "dtypes: %s\n\n", strings.Join(kinds, ", "))
}

// NullCounts prints the number of null cells per column that has any.
func (r *Reporter) NullCounts(f *model.Frame) {
	clean := 0
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	for _, c := range f.Columns {
		n := f.NullCount(c)
		if n == 0 {
			clean++
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\n", c, n)
	}
	tw.Flush()
	fmt.Fprintf(r.w, "%d columns without nulls\n\n", clean)
}

// Summary prints the global maximum and the country ranking, raw and abbreviated.
func (r *Reporter) Summary(s *model.Summary) {
	fmt.Fprintf(r.w, "Global maximum of confirmed cases: %d\n", s.GlobalMax)
	fmt.Fprintf(r.w, "Maximum confirmed cases by country (top %d):\n", len(s.TopCountries))

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	for _, cv := range s.TopCountries {
		fmt.Fprintf(tw, "%s\t%d\n", cv.Country, cv.Cases)
	}
	tw.Flush()

	fmt.Fprintf(r.w, "\nFormatted maxima:\n")
	fmt.Fprintf(r.w, "Global: %s\n", utils.FormatMagnitude(s.GlobalMax))
	fmt.Fprintf(r.w, "By country (top %d):\n", len(s.TopCountries))
	tw = tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	for _, cv := range s.TopCountries {
		fmt.Fprintf(tw, "%s\t%s\n", cv.Country, utils.FormatMagnitude(cv.Cases))
	}
	tw.Flush()
	fmt.Fprintln(r.w)
}

// visibleColumns keeps the edges of a wide column list.
func visibleColumns(cols []string) []string {
	if len(cols) <= 2*edgeColumns+1 {
		return cols
	}
	out := append([]string{}, cols[:edgeColumns]...)
	out = append(out, "...")
	return append(out, cols[len(cols)-edgeColumns:]...)
}

func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NaN"
	case float64:
		return fmt.Sprintf("%.4f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
