// Package analysis computes the derived epidemic metrics over a time series:
// smoothed level, slope, day-over-day percent change, growth factor, and a
// short-horizon forecast of future case counts.
package analysis

import (
	"fmt"
	"math"

	"github.com/epifit/caserate/regression"
	"github.com/epifit/caserate/timeseries"
	"gonum.org/v1/gonum/floats"
)

const (
	// growthFactorOrder is the polynomial order of the log-domain fit used
	// to estimate the exponential growth base within each window.
	growthFactorOrder = 1

	// growthFactorConfidence is the confidence level on the growth factor
	// bounds.
	growthFactorConfidence = 0.95

	// logEpsilon keeps log arguments strictly positive when a window holds
	// zero daily changes.
	logEpsilon = 1e-10
)

// Smooth evaluates each index's local regression at its own time coordinate,
// producing a denoised version of the series. With logDomain set the fits run
// in log-space and the result is exponentiated back out.
func Smooth(ts *timeseries.TimeSeries, window int, logDomain bool, order int) ([]float64, error) {
	fits, err := ts.LocalRegression(window, logDomain, order)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(fits))
	for i, ls := range fits {
		out[i] = ls.ValueAt(float64(i))
		if logDomain {
			out[i] = math.Exp(out[i])
		}
	}
	return out, nil
}

// EstimateSlope computes the first derivative of the series at every index
// along with its confidence bounds. The bounds come from evaluating the
// derivative of the weight vector shifted by the per-weight confidence
// half-widths.
func EstimateSlope(ts *timeseries.TimeSeries, window, order int, confidence float64) ([]Band, error) {
	fits, err := ts.LocalRegression(window, false, order)
	if err != nil {
		return nil, err
	}
	return slopeBands(fits, confidence, false)
}

// PercentChange computes the fractional day-over-day change at every index
// with confidence bounds. The slope is estimated in the log domain and
// transformed through exp(x)-1, so 0.05 means five percent daily growth.
func PercentChange(ts *timeseries.TimeSeries, window, order int, confidence float64) ([]Band, error) {
	fits, err := ts.LocalRegression(window, true, order)
	if err != nil {
		return nil, err
	}
	return slopeBands(fits, confidence, true)
}

func slopeBands(fits []*regression.LeastSquares, confidence float64, expTransform bool) ([]Band, error) {
	out := make([]Band, len(fits))
	for i, ls := range fits {
		cv, err := ls.Confidence(confidence)
		if err != nil {
			return nil, err
		}

		upperW := ls.Weights()
		lowerW := ls.Weights()
		floats.Add(upperW, cv)
		floats.Sub(lowerW, cv)

		t0 := []float64{float64(i)}
		b := Band{
			Estimate: ls.SlopeAt(float64(i)),
			Upper:    regression.EvalPoly(regression.Derivative(upperW), t0)[0],
			Lower:    regression.EvalPoly(regression.Derivative(lowerW), t0)[0],
		}
		if expTransform {
			b.Estimate = math.Exp(b.Estimate) - 1.0
			b.Upper = math.Exp(b.Upper) - 1.0
			b.Lower = math.Exp(b.Lower) - 1.0
		}
		out[i] = b
	}
	return out, nil
}

// GrowthFactor estimates the day-over-day multiplicative growth of new cases
// at every index, i.e. the base a in x[n] = x[0]*a^n, by regressing the log
// of the windowed daily changes. Windows with no activity report a growth
// factor of zero; windows with only negative changes (reporting corrections)
// or too few valid points are undefined and report NaN. The bound columns of
// each row are re-sorted so the upper bound is always the larger; the bounds
// come from shifting the log-domain slope by its confidence half-width and
// are a compatibility behavior, not a coherent confidence region.
func GrowthFactor(ts *timeseries.TimeSeries, window int) ([]Band, error) {
	if window < 3 {
		return nil, fmt.Errorf("got window of %d days, %w", window, timeseries.ErrInvalidWindow)
	}

	dc := ts.DailyChange()
	n := len(dc)
	out := make([]Band, n)
	for i := 0; i < n; i++ {
		iMin := max(0, i-window/2)
		iMax := min(n-1, i+window/2) + 1

		b, err := windowGrowth(dc[iMin:iMax])
		if err != nil {
			return nil, fmt.Errorf("window at index %d, %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

func windowGrowth(deltas []float64) (Band, error) {
	allZero := true
	allNegative := true
	for _, v := range deltas {
		if v != 0 {
			allZero = false
		}
		if v >= 0 {
			allNegative = false
		}
	}
	if allZero {
		return Band{}, nil
	}
	if allNegative {
		return nanBand(), nil
	}

	// negative daily changes are reporting corrections, not signal
	times := make([]float64, 0, len(deltas))
	logs := make([]float64, 0, len(deltas))
	for j, v := range deltas {
		if v < 0 {
			continue
		}
		times = append(times, float64(j))
		logs = append(logs, math.Log(v+logEpsilon))
	}
	if len(logs) < growthFactorOrder+2 {
		return nanBand(), nil
	}

	ls, err := regression.NewLeastSquares(times, logs, growthFactorOrder)
	if err != nil {
		return Band{}, err
	}
	cv, err := ls.Confidence(growthFactorConfidence)
	if err != nil {
		return Band{}, err
	}

	w := ls.Weights()
	b := Band{
		Estimate: math.Exp(w[1]),
		Upper:    math.Exp(w[1] + cv[1]),
		Lower:    math.Exp(w[1] - cv[1]),
	}
	if b.Upper < b.Lower {
		b.Upper, b.Lower = b.Lower, b.Upper
	}
	return b, nil
}
