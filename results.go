package caserate

import (
	"math"
	"time"

	"github.com/epifit/caserate/analysis"
	"github.com/goccy/go-json"
)

// EventSpan is an event annotated with the series index range it covers,
// end inclusive.
type EventSpan struct {
	Name       string `json:"name"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// Results bundles every per-day metric for one analyzed region. All arrays
// are aligned with Dates; band entries hold NaN where the metric is
// undefined for that day and marshal to null.
type Results struct {
	Label string      `json:"label"`
	Dates []time.Time `json:"dates"`

	Reported    []float64      `json:"reported"`
	DailyChange []float64      `json:"daily_change"`
	DailyGrowth NullableFloats `json:"daily_growth"`
	Smoothed    []float64      `json:"smoothed"`

	Slope         []analysis.Band `json:"slope"`
	PercentChange []analysis.Band `json:"percent_change"`
	GrowthFactor  []analysis.Band `json:"growth_factor"`

	// SuspectDays are indices whose daily change fell outside the outlier
	// fences, typically batch uploads or corrections.
	SuspectDays []int `json:"suspect_days,omitempty"`

	Events []EventSpan `json:"events,omitempty"`

	// Forecast is nil when the series is too short to train the growth
	// model.
	Forecast        *analysis.Forecast `json:"forecast,omitempty"`
	TrainingError   float64            `json:"training_error"`
	ValidationError float64            `json:"validation_error"`
}

// JSON renders the results as an indented JSON document for the report
// layer.
func (r *Results) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// NullableFloats is a float slice whose NaN entries encode as null, since
// JSON has no NaN.
type NullableFloats []float64

func (n NullableFloats) MarshalJSON() ([]byte, error) {
	vals := make([]*float64, len(n))
	for i, v := range n {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		v := v
		vals[i] = &v
	}
	return json.Marshal(vals)
}

func (n *NullableFloats) UnmarshalJSON(data []byte) error {
	var vals []*float64
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	out := make(NullableFloats, len(vals))
	for i, v := range vals {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*n = out
	return nil
}
