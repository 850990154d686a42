package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"covid-pipeline/internal/model"
)

// ErrCountryNotFound is returned when the focus country has no observations.
var ErrCountryNotFound = errors.New("country not found")

// ErrNoObservations is returned when there is nothing to analyze.
var ErrNoObservations = errors.New("no observations")

// Analyze derives every statistic the charts and the console report need.
// The focus series is computed here so that a missing country fails the run
// before any output is produced.
func Analyze(obs []model.Observation, focus string, topN int) (*model.Summary, error) {
	if len(obs) == 0 {
		return nil, ErrNoObservations
	}

	focusSeries, err := CountrySeries(obs, focus)
	if err != nil {
		return nil, err
	}

	maxima := CountryMaxima(obs)
	daily := DailyTotals(obs)

	return &model.Summary{
		GlobalMax:    GlobalMax(obs),
		TopCountries: TopN(maxima, topN),
		GlobalDaily:  daily,
		Focus:        focusSeries,
		Countries:    len(maxima),
		Dates:        len(daily.Points),
		Observations: len(obs),
	}, nil
}

// GlobalMax returns the largest single country-day value. It is not the
// peak of the worldwide daily total plotted by DailyTotals.
func GlobalMax(obs []model.Observation) int64 {
	var max int64
	for i, o := range obs {
		if i == 0 || o.Cases > max {
			max = o.Cases
		}
	}
	return max
}

// CountryMaxima returns each country's largest value, in order of first appearance.
func CountryMaxima(obs []model.Observation) []model.CountryValue {
	index := make(map[string]int)
	var out []model.CountryValue
	for _, o := range obs {
		i, ok := index[o.Country]
		if !ok {
			index[o.Country] = len(out)
			out = append(out, model.CountryValue{Country: o.Country, Cases: o.Cases})
			continue
		}
		if o.Cases > out[i].Cases {
			out[i].Cases = o.Cases
		}
	}
	return out
}

// TopN returns the n largest values in descending order. Ties keep their input order.
func TopN(values []model.CountryValue, n int) []model.CountryValue {
	sorted := make([]model.CountryValue, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cases > sorted[j].Cases
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// DailyTotals sums all countries per date, ordered by date.
func DailyTotals(obs []model.Observation) model.Series {
	totals := make(map[time.Time]int64)
	for _, o := range obs {
		totals[o.Date] += o.Cases
	}

	points := make([]model.DatePoint, 0, len(totals))
	for d, c := range totals {
		points = append(points, model.DatePoint{Date: d, Cases: c})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return model.Series{Name: "Global", Points: points, Peak: peak(points)}
}

// CountrySeries returns the observations of one country in table order.
func CountrySeries(obs []model.Observation, country string) (model.Series, error) {
	var points []model.DatePoint
	for _, o := range obs {
		if o.Country == country {
			points = append(points, model.DatePoint{Date: o.Date, Cases: o.Cases})
		}
	}
	if len(points) == 0 {
		return model.Series{}, fmt.Errorf("%q: %w", country, ErrCountryNotFound)
	}
	return model.Series{Name: country, Points: points, Peak: peak(points)}, nil
}

// peak returns the first point holding the maximum value.
func peak(points []model.DatePoint) model.DatePoint {
	var best model.DatePoint
	for i, p := range points {
		if i == 0 || p.Cases > best.Cases {
			best = p
		}
	}
	return best
}
