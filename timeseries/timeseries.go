// Package timeseries converts sparse dated observations into a dense,
// day-indexed series and runs sliding local regressions over it.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/epifit/caserate/regression"
)

var (
	ErrNoObservations = errors.New("no observations above the minimum value")
	ErrInvalidWindow  = errors.New("window size must be at least three days")
)

// Observation is a single dated numeric report.
type Observation struct {
	Date  time.Time
	Value float64
}

// TimeSeries owns a dense array of samples, one per calendar day, spanning
// the full range of the input observations. Days without a report carry the
// most recent known value forward; this is deliberate last-observation-
// carried-forward and not interpolation. The series is immutable once built.
type TimeSeries struct {
	label   string
	start   time.Time
	samples []float64
}

// New builds a time series from dated observations. Observations below
// minValue are dropped before the date span is determined. Duplicate dates
// must already be aggregated by the caller; the input does not need to be
// sorted.
func New(label string, obs []Observation, minValue float64) (*TimeSeries, error) {
	kept := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Value >= minValue {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%d observations with minimum value %f, %w", len(obs), minValue, ErrNoObservations)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Date.Before(kept[j].Date)
	})

	start := dayOf(kept[0].Date)
	end := dayOf(kept[len(kept)-1].Date)
	duration := dayIndex(start, end) + 1

	samples := make([]float64, duration)
	prevIndex := 0
	for _, o := range kept {
		index := dayIndex(start, dayOf(o.Date))
		// back-fill a reporting gap with the previous day's stored value
		for j := prevIndex + 1; j < index; j++ {
			samples[j] = samples[prevIndex]
		}
		samples[index] = o.Value
		prevIndex = index
	}

	return &TimeSeries{
		label:   label,
		start:   start,
		samples: samples,
	}, nil
}

// Label returns the description of the series.
func (ts *TimeSeries) Label() string {
	return ts.label
}

// Len returns the number of days spanned by the series.
func (ts *TimeSeries) Len() int {
	return len(ts.samples)
}

// At returns the sample at the given day index.
func (ts *TimeSeries) At(i int) float64 {
	return ts.samples[i]
}

// Values returns a copy of the dense sample array.
func (ts *TimeSeries) Values() []float64 {
	v := make([]float64, len(ts.samples))
	copy(v, ts.samples)
	return v
}

// StartDate returns the calendar date of the first sample.
func (ts *TimeSeries) StartDate() time.Time {
	return ts.start
}

// Dates returns the calendar date for every sample index.
func (ts *TimeSeries) Dates() []time.Time {
	dates := make([]time.Time, len(ts.samples))
	for i := range ts.samples {
		dates[i] = ts.start.AddDate(0, 0, i)
	}
	return dates
}

// DailyChange returns the first finite difference of the series, left-padded
// with a zero so the result has the same length as the series.
func (ts *TimeSeries) DailyChange() []float64 {
	dc := make([]float64, len(ts.samples))
	for i := 1; i < len(ts.samples); i++ {
		dc[i] = ts.samples[i] - ts.samples[i-1]
	}
	return dc
}

// DailyGrowth returns the ratio of consecutive daily changes,
// dailyChange[n]/dailyChange[n-1]. The ratio is only well defined when the
// previous day's change is positive; a positive change following a
// sub-unity previous change is reported as NaN, and everything else
// defaults to one. The result is left-padded with a one.
func (ts *TimeSeries) DailyGrowth() []float64 {
	dc := ts.DailyChange()
	growth := make([]float64, len(dc))
	growth[0] = 1.0
	for n := 1; n < len(dc); n++ {
		cur, prev := dc[n], dc[n-1]
		val := 1.0
		if prev > 0 {
			val = cur / prev
		}
		if cur > 0 && prev < 1 {
			val = math.NaN()
		}
		growth[n] = val
	}
	return growth
}

// LocalRegression fits one polynomial regression per series index over a
// sliding window of the given size. Windows are clipped at the series
// boundary rather than padded, so edge fits cover fewer samples. With
// logDomain set the fits run over the log of the samples.
func (ts *TimeSeries) LocalRegression(window int, logDomain bool, order int) ([]*regression.LeastSquares, error) {
	if window < 3 {
		return nil, fmt.Errorf("got window of %d days, %w", window, ErrInvalidWindow)
	}

	x := ts.samples
	if logDomain {
		x = make([]float64, len(ts.samples))
		for i, v := range ts.samples {
			x[i] = math.Log(v)
		}
	}

	n := len(x)
	fits := make([]*regression.LeastSquares, 0, n)
	for i := 0; i < n; i++ {
		iMin := max(0, i-window/2)
		iMax := min(n-1, i+window/2) + 1

		times := make([]float64, 0, iMax-iMin)
		for j := iMin; j < iMax; j++ {
			times = append(times, float64(j))
		}

		ls, err := regression.NewLeastSquares(times, x[iMin:iMax], order)
		if err != nil {
			return nil, fmt.Errorf("window at index %d, %w", i, err)
		}
		fits = append(fits, ls)
	}
	return fits, nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayIndex(start, t time.Time) int {
	return int(t.Sub(start).Hours() / 24.0)
}
