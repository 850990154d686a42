// Package chart builds the HTML chart documents of a run.
package chart

import (
	"fmt"
	"io"

	"covid-pipeline/internal/model"
	"covid-pipeline/pkg/utils"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	dateLayout = "2006-01-02"
	width      = "1200px"
	height     = "600px"
	barColor   = "#d62728"
)

// Renderer is anything that can write itself as an HTML document.
type Renderer interface {
	Render(w io.Writer) error
}

// GlobalChart plots the worldwide daily total with its peak marked.
func GlobalChart(s model.Series) *charts.Line {
	return seriesChart(s, "Global Confirmed COVID-19 Cases Over Time", "Total Confirmed Cases")
}

// CountryChart plots one country's cumulative cases with its peak marked.
func CountryChart(s model.Series) *charts.Line {
	return seriesChart(s, fmt.Sprintf("Confirmed COVID-19 Cases in %s Over Time", s.Name), "Confirmed Cases")
}

func seriesChart(s model.Series, title, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: width, Height: height}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: peakLabel(s.Peak)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	dates := make([]string, len(s.Points))
	data := make([]opts.LineData, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date.Format(dateLayout)
		data[i] = opts.LineData{Value: p.Cases}
	}

	line.SetXAxis(dates).AddSeries(s.Name, data,
		charts.WithMarkPointNameTypeItemOpts(opts.MarkPointNameTypeItem{Name: "Peak", Type: "max"}),
		charts.WithMarkPointStyleOpts(opts.MarkPointStyle{
			Label: &opts.Label{Show: true, Formatter: peakLabel(s.Peak)},
		}),
	)
	return line
}

// TopCountriesChart draws one bar per country, labeled with its abbreviated maximum.
func TopCountriesChart(values []model.CountryValue) *charts.Bar {
	title := fmt.Sprintf("Top %d Countries by Maximum Confirmed COVID-19 Cases", len(values))

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: width, Height: height}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Country",
			AxisLabel: &opts.AxisLabel{Show: true, Rotate: 45, Interval: "0"},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Maximum Confirmed Cases"}),
	)

	names := make([]string, len(values))
	data := make([]opts.BarData, len(values))
	for i, cv := range values {
		names[i] = cv.Country
		data[i] = opts.BarData{
			Name:      cv.Country,
			Value:     cv.Cases,
			ItemStyle: &opts.ItemStyle{Color: barColor},
			Label: &opts.Label{
				Show:      true,
				Position:  "top",
				Formatter: utils.FormatMagnitude(cv.Cases),
			},
		}
	}

	bar.SetXAxis(names).AddSeries("Maximum Confirmed Cases", data)
	return bar
}

func peakLabel(p model.DatePoint) string {
	return fmt.Sprintf("Peak: %s on %s", utils.FormatMagnitude(p.Cases), p.Date.Format(dateLayout))
}
