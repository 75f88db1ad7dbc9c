package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/epifit/caserate/regression"
	"github.com/epifit/caserate/timeseries"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrModelNotTrained        = errors.New("growth model has not been trained")
	ErrInsufficientHistory    = errors.New("series is shorter than the analysis window plus the reporting lag")
	ErrInsufficientGrowthData = errors.New("not enough defined growth factor samples in the analysis window")
	ErrInvalidHorizon         = errors.New("prediction horizon must be at least one day")
)

// PredictorOptions configures the trailing window used to model the growth
// factor.
type PredictorOptions struct {
	// AnalysisWindow is the number of days used to model the local growth
	// factor trend.
	AnalysisWindow int `json:"analysis_window"`

	// ReportingLag is the number of most recent days excluded from training
	// since their counts are expected to be revised; they are used for
	// validation instead.
	ReportingLag int `json:"reporting_lag"`

	// ModelOrder is the polynomial order of the growth trend fit.
	ModelOrder int `json:"model_order"`

	// FilterWindow is the sliding window size used to compute the smoothed
	// growth factor series the model trains on.
	FilterWindow int `json:"filter_window"`
}

// NewDefaultPredictorOptions returns the default predictor configuration: a
// two week analysis window with a three day reporting lag, a linear growth
// trend, and an eleven day growth factor filter.
func NewDefaultPredictorOptions() *PredictorOptions {
	return &PredictorOptions{
		AnalysisWindow: 14,
		ReportingLag:   3,
		ModelOrder:     1,
		FilterWindow:   11,
	}
}

// GrowthPredictor forecasts future case counts by modelling how the growth
// factor changes over a trailing window of the series. The predictor is
// created untrained; Train fits the growth model and Predict propagates it
// forward recursively. Re-training replaces the model.
type GrowthPredictor struct {
	opt *PredictorOptions

	model           *regression.LeastSquares
	trainingStart   int
	trainingEnd     int // exclusive
	trainingSamples []float64
}

// NewGrowthPredictor returns an untrained predictor. If no options are
// provided a default is used.
func NewGrowthPredictor(opt *PredictorOptions) *GrowthPredictor {
	if opt == nil {
		opt = NewDefaultPredictorOptions()
	}
	return &GrowthPredictor{opt: opt}
}

// IsTrained reports whether Train has completed successfully.
func (p *GrowthPredictor) IsTrained() bool {
	return p.model != nil
}

// TrainingWindow returns the series index range, end exclusive, used for the
// last training run.
func (p *GrowthPredictor) TrainingWindow() (int, int) {
	return p.trainingStart, p.trainingEnd
}

// ValidationWindow returns the series index range, end exclusive, covered by
// the reporting lag and used for validation.
func (p *GrowthPredictor) ValidationWindow() (int, int) {
	return p.trainingEnd, p.trainingEnd + p.opt.ReportingLag
}

// TrainingSamples returns a copy of the growth factor samples the model was
// fit against.
func (p *GrowthPredictor) TrainingSamples() []float64 {
	s := make([]float64, len(p.trainingSamples))
	copy(s, p.trainingSamples)
	return s
}

// Parameters returns the fitted growth model weights.
func (p *GrowthPredictor) Parameters() ([]float64, error) {
	if p.model == nil {
		return nil, ErrModelNotTrained
	}
	return p.model.Weights(), nil
}

// GrowthModel evaluates the fitted growth trend over the given number of
// days from the start of the training window. Days of zero or less uses the
// analysis window length.
func (p *GrowthPredictor) GrowthModel(days int) ([]float64, error) {
	if p.model == nil {
		return nil, ErrModelNotTrained
	}
	if days <= 0 {
		days = p.opt.AnalysisWindow
	}
	offsets := make([]float64, days)
	for i := range offsets {
		offsets[i] = float64(i)
	}
	return p.model.Value(offsets), nil
}

// Train fits the growth model on the trailing analysis window of the series,
// offset so it ends a reporting lag before the last day. It returns the
// standard error of the growth regression and the RMS error between a
// reconstructed case trajectory and the actual counts in the lag window, a
// self-check that the model explains recent history.
func (p *GrowthPredictor) Train(ts *timeseries.TimeSeries) (float64, float64, error) {
	n := ts.Len()
	trainingStart := n - p.opt.AnalysisWindow - p.opt.ReportingLag
	if trainingStart < 0 {
		return 0, 0, fmt.Errorf("series has %d days but needs %d, %w",
			n, p.opt.AnalysisWindow+p.opt.ReportingLag, ErrInsufficientHistory)
	}
	trainingEnd := n - p.opt.ReportingLag

	growth, err := GrowthFactor(ts, p.opt.FilterWindow)
	if err != nil {
		return 0, 0, err
	}

	// offsets are zero-based within the training window so predictions are
	// always relative to the end of the series
	offsets := make([]float64, 0, p.opt.AnalysisWindow)
	samples := make([]float64, 0, p.opt.AnalysisWindow)
	for j := trainingStart; j < trainingEnd; j++ {
		if !growth[j].Defined() {
			continue
		}
		offsets = append(offsets, float64(j-trainingStart))
		samples = append(samples, growth[j].Estimate)
	}
	if len(samples) < p.opt.ModelOrder+2 {
		return 0, 0, fmt.Errorf("%d defined growth samples in window of %d, %w",
			len(samples), p.opt.AnalysisWindow, ErrInsufficientGrowthData)
	}

	model, err := regression.NewLeastSquares(offsets, samples, p.opt.ModelOrder)
	if err != nil {
		return 0, 0, err
	}

	p.model = model
	p.trainingStart = trainingStart
	p.trainingEnd = trainingEnd
	p.trainingSamples = samples

	// reconstruct the lag window from its first daily count and compare
	// against what was actually reported
	dailyCases := ts.DailyChange()[n-p.opt.ReportingLag-1:]
	predicted := p.project(dailyCases[0], p.opt.ReportingLag)

	validationError := floats.Distance(predicted, dailyCases, 2) / math.Sqrt(float64(len(dailyCases)))

	return model.StandardError(), validationError, nil
}

// Forecast is the output of a prediction: the projected daily case counts
// with their upper and lower envelopes, and the series index each entry
// corresponds to. The first reportingLag entries cover the validation
// window, so they land in the past relative to the series end.
type Forecast struct {
	Cases   []float64 `json:"cases"`
	Upper   []float64 `json:"upper"`
	Lower   []float64 `json:"lower"`
	Indices []int     `json:"indices"`
}

// Predict projects the daily case count numDays forward from the current
// count by recursively multiplying with the modelled growth factor,
// cases[n+1] = growth[n]*cases[n]. The same recursion runs separately along
// the upper and lower confidence curves of the growth model to produce the
// forecast envelope. The predictor must be trained first.
func (p *GrowthPredictor) Predict(currentCount float64, numDays int, alpha float64) (*Forecast, error) {
	if p.model == nil {
		return nil, ErrModelNotTrained
	}
	if numDays < 1 {
		return nil, fmt.Errorf("got %d days, %w", numDays, ErrInvalidHorizon)
	}

	offsets := p.horizonOffsets(numDays)
	growth := p.model.Value(offsets)
	ci, err := p.model.ConfidenceFit(offsets, alpha)
	if err != nil {
		return nil, err
	}

	upperGrowth := make([]float64, numDays)
	lowerGrowth := make([]float64, numDays)
	for i := 0; i < numDays; i++ {
		upperGrowth[i] = growth[i] + ci[i]
		lowerGrowth[i] = growth[i] - ci[i]
	}

	indices := make([]int, numDays+1)
	for i := range indices {
		indices[i] = p.trainingEnd - 1 + i
	}

	return &Forecast{
		Cases:   propagate(currentCount, growth),
		Upper:   propagate(currentCount, upperGrowth),
		Lower:   propagate(currentCount, lowerGrowth),
		Indices: indices,
	}, nil
}

// project runs the estimate-only recursion, used for validation during
// training.
func (p *GrowthPredictor) project(currentCount float64, numDays int) []float64 {
	return propagate(currentCount, p.model.Value(p.horizonOffsets(numDays)))
}

func (p *GrowthPredictor) horizonOffsets(numDays int) []float64 {
	offsets := make([]float64, numDays)
	for i := range offsets {
		offsets[i] = float64(p.opt.AnalysisWindow - 1 + i)
	}
	return offsets
}

func propagate(initial float64, growth []float64) []float64 {
	cases := make([]float64, len(growth)+1)
	cases[0] = initial
	for n := range growth {
		cases[n+1] = growth[n] * cases[n]
	}
	return cases
}
