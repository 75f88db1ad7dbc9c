package caserate

import (
	"errors"
	"fmt"

	"github.com/epifit/caserate/analysis"
	"github.com/epifit/caserate/event"
	"github.com/epifit/caserate/record"
)

var ErrUnknownField = errors.New("unknown case record field")

// Field selects which count of a case record feeds the time series.
type Field string

const (
	FieldConfirmed Field = "confirmed"
	FieldDeceased  Field = "deceased"
	FieldResolved  Field = "resolved"
)

func (f Field) valueOf(c record.Cases) (float64, error) {
	switch f {
	case FieldConfirmed:
		return float64(c.Confirmed), nil
	case FieldDeceased:
		return float64(c.Deceased), nil
	case FieldResolved:
		return float64(c.Resolved), nil
	}
	return 0, fmt.Errorf("got %q, %w", string(f), ErrUnknownField)
}

// OutlierOptions configures the Tukey fences used to flag suspect daily
// changes. A nil value disables the check.
type OutlierOptions struct {
	LowerPercentile float64 `json:"lower_percentile"`
	UpperPercentile float64 `json:"upper_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

// NewDefaultOutlierOptions flags values outside three times the interquartile
// range.
func NewDefaultOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		LowerPercentile: 0.25,
		UpperPercentile: 0.75,
		TukeyFactor:     3.0,
	}
}

// Options configures a full analysis run.
type Options struct {
	// Field is the case record count the series is built from.
	Field Field `json:"field"`

	// MinValue drops records whose selected count is below this threshold
	// before the series span is determined.
	MinValue float64 `json:"min_value"`

	// Window is the sliding window size in days for the local regressions.
	// Must be at least three.
	Window int `json:"window"`

	// Order is the polynomial order of the local regressions.
	Order int `json:"order"`

	// Confidence is the two-sided confidence level on the metric bounds.
	Confidence float64 `json:"confidence"`

	// ForecastDays is the forecast horizon. The first reporting-lag days of
	// the forecast overlap the validation window.
	ForecastDays int `json:"forecast_days"`

	Predictor      *analysis.PredictorOptions `json:"predictor"`
	OutlierOptions *OutlierOptions            `json:"outlier_options,omitempty"`

	// Events are annotated onto the results wherever they overlap the
	// series span.
	Events []event.Event `json:"events,omitempty"`
}

// NewDefaultOptions analyzes confirmed counts with an eleven day window,
// linear local fits, 95% confidence, and a two week forecast.
func NewDefaultOptions() *Options {
	return &Options{
		Field:          FieldConfirmed,
		MinValue:       0,
		Window:         11,
		Order:          1,
		Confidence:     0.95,
		ForecastDays:   14,
		Predictor:      analysis.NewDefaultPredictorOptions(),
		OutlierOptions: NewDefaultOutlierOptions(),
	}
}
