package analysis

import (
	"math"

	"github.com/goccy/go-json"
)

// Band is a per-day metric estimate with its upper and lower confidence
// bounds. Days where the metric is undefined hold NaN in all three fields.
type Band struct {
	Estimate float64
	Upper    float64
	Lower    float64
}

func nanBand() Band {
	return Band{
		Estimate: math.NaN(),
		Upper:    math.NaN(),
		Lower:    math.NaN(),
	}
}

// Defined reports whether the metric was computable for this day.
func (b Band) Defined() bool {
	return !math.IsNaN(b.Estimate)
}

type jsonBand struct {
	Estimate *float64 `json:"estimate"`
	Upper    *float64 `json:"upper"`
	Lower    *float64 `json:"lower"`
}

// MarshalJSON encodes undefined values as null since JSON has no NaN.
func (b Band) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonBand{
		Estimate: finiteOrNil(b.Estimate),
		Upper:    finiteOrNil(b.Upper),
		Lower:    finiteOrNil(b.Lower),
	})
}

// UnmarshalJSON decodes null back into NaN.
func (b *Band) UnmarshalJSON(data []byte) error {
	var jb jsonBand
	if err := json.Unmarshal(data, &jb); err != nil {
		return err
	}
	b.Estimate = nanIfNil(jb.Estimate)
	b.Upper = nanIfNil(jb.Upper)
	b.Lower = nanIfNil(jb.Lower)
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nanIfNil(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
