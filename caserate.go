// Package caserate turns sparse daily epidemic case reports into a
// continuous, uncertainty-quantified view of the outbreak: smoothed level,
// new cases per day, percent day-over-day change, and an exponential growth
// factor, each with confidence bands, plus a short-horizon forecast.
package caserate

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/epifit/caserate/analysis"
	"github.com/epifit/caserate/record"
	"github.com/epifit/caserate/stats"
	"github.com/epifit/caserate/timeseries"
)

var ErrNoRecords = errors.New("no case records to analyze")

// Analyzer runs the full metric pipeline over case records for one or more
// regions.
type Analyzer struct {
	opt *Options
}

// New creates an Analyzer with the given options. If none are provided a
// default is used.
func New(opt *Options) *Analyzer {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &Analyzer{opt: opt}
}

// Analyze computes every derived metric for one region's records. Records
// are summed by date first, so the input may hold multiple reports per day
// from different provinces. A series too short to train the growth model
// still produces the per-day metrics, just no forecast.
func (a *Analyzer) Analyze(label string, records []record.Cases) (*Results, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	summed, err := record.SumByDate(records, record.CombineCases)
	if err != nil {
		return nil, fmt.Errorf("unable to aggregate records by date, %w", err)
	}

	obs := make([]timeseries.Observation, 0, len(summed))
	for _, c := range summed {
		v, err := a.opt.Field.valueOf(c)
		if err != nil {
			return nil, err
		}
		obs = append(obs, timeseries.Observation{Date: c.Date, Value: v})
	}

	ts, err := timeseries.New(label, obs, a.opt.MinValue)
	if err != nil {
		return nil, fmt.Errorf("unable to build time series, %w", err)
	}

	smoothed, err := analysis.Smooth(ts, a.opt.Window, false, a.opt.Order)
	if err != nil {
		return nil, fmt.Errorf("unable to smooth series, %w", err)
	}
	slope, err := analysis.EstimateSlope(ts, a.opt.Window, a.opt.Order, a.opt.Confidence)
	if err != nil {
		return nil, fmt.Errorf("unable to estimate slope, %w", err)
	}
	percentChange, err := analysis.PercentChange(ts, a.opt.Window, a.opt.Order, a.opt.Confidence)
	if err != nil {
		return nil, fmt.Errorf("unable to estimate percent change, %w", err)
	}
	growthFactor, err := analysis.GrowthFactor(ts, a.opt.Window)
	if err != nil {
		return nil, fmt.Errorf("unable to estimate growth factor, %w", err)
	}

	res := &Results{
		Label:         ts.Label(),
		Dates:         ts.Dates(),
		Reported:      ts.Values(),
		DailyChange:   ts.DailyChange(),
		DailyGrowth:   ts.DailyGrowth(),
		Smoothed:      smoothed,
		Slope:         slope,
		PercentChange: percentChange,
		GrowthFactor:  growthFactor,
	}

	if a.opt.OutlierOptions != nil {
		res.SuspectDays = stats.DetectOutliers(
			ts.DailyChange(),
			a.opt.OutlierOptions.LowerPercentile,
			a.opt.OutlierOptions.UpperPercentile,
			a.opt.OutlierOptions.TukeyFactor,
		)
	}

	dates := ts.Dates()
	for _, ev := range a.opt.Events {
		if err := ev.Valid(); err != nil {
			return nil, fmt.Errorf("event %q, %w", ev.Name, err)
		}
		if first, last, ok := ev.Overlap(dates); ok {
			res.Events = append(res.Events, EventSpan{
				Name:       ev.Name,
				StartIndex: first,
				EndIndex:   last,
			})
		}
	}

	if err := a.forecast(ts, res); err != nil {
		return nil, err
	}

	return res, nil
}

// forecast trains the growth predictor and attaches the projection. Too
// little history or too little defined growth signal leaves the forecast
// empty rather than failing the run.
func (a *Analyzer) forecast(ts *timeseries.TimeSeries, res *Results) error {
	if a.opt.ForecastDays < 1 {
		return nil
	}

	p := analysis.NewGrowthPredictor(a.opt.Predictor)
	trainingErr, validationErr, err := p.Train(ts)
	switch {
	case errors.Is(err, analysis.ErrInsufficientHistory),
		errors.Is(err, analysis.ErrInsufficientGrowthData):
		return nil
	case err != nil:
		return fmt.Errorf("unable to train growth model, %w", err)
	}

	// anchor the projection on the last reliably reported daily count so
	// the first reporting-lag entries overlap the validation window
	_, trainingEnd := p.TrainingWindow()
	current := ts.DailyChange()[trainingEnd-1]

	forecast, err := p.Predict(current, a.opt.ForecastDays, a.opt.Confidence)
	if err != nil {
		return fmt.Errorf("unable to project case counts, %w", err)
	}

	res.Forecast = forecast
	res.TrainingError = trainingErr
	res.ValidationError = validationErr
	return nil
}

// AnalyzeAll runs Analyze concurrently across regions. Each region's
// pipeline is independent, so they fan out to goroutines and the results are
// collected per region label. Any region failing fails the whole call with
// its label attached.
func (a *Analyzer) AnalyzeAll(regions map[string][]record.Cases) (map[string]*Results, error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]*Results, len(regions))
		errs    []error
	)

	for label, records := range regions {
		wg.Add(1)
		go func(label string, records []record.Cases) {
			defer wg.Done()

			res, err := a.Analyze(label, records)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("region %q, %w", label, err))
				return
			}
			results[label] = res
		}(label, records)
	}
	wg.Wait()

	if len(errs) > 0 {
		// deterministic error ordering regardless of goroutine scheduling
		sort.Slice(errs, func(i, j int) bool {
			return errs[i].Error() < errs[j].Error()
		})
		return nil, errors.Join(errs...)
	}
	return results, nil
}
