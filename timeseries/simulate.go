package timeseries

import (
	"math"
	"math/rand/v2"
	"time"
)

// GenerateDates returns n consecutive calendar days starting at the given
// date, normalized to UTC midnight.
func GenerateDates(start time.Time, n int) []time.Time {
	y, m, d := start.Date()
	ct := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, ct.AddDate(0, 0, i))
	}
	return dates
}

// Counts is a cumulative count series used to assemble simulated outbreaks.
type Counts []float64

// GenerateExponential produces cumulative counts that double every
// doublingDays days starting from the initial count.
func GenerateExponential(n int, initial, doublingDays float64) Counts {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, initial*math.Pow(2.0, float64(i)/doublingDays))
	}
	return Counts(y)
}

// GenerateLogistic produces cumulative counts following a logistic wave with
// the given carrying capacity, growth rate, and midpoint day.
func GenerateLogistic(n int, capacity, rate, midpoint float64) Counts {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, capacity/(1.0+math.Exp(-rate*(float64(i)-midpoint))))
	}
	return Counts(y)
}

// AddNoise perturbs each cumulative count with gaussian noise proportional to
// the count, then restores monotonicity since cumulative reports never
// decrease.
func (c Counts) AddNoise(scale float64) Counts {
	for i := range c {
		c[i] += rand.NormFloat64() * scale * c[i]
	}
	for i := 1; i < len(c); i++ {
		if c[i] < c[i-1] {
			c[i] = c[i-1]
		}
	}
	return c
}

// Observations pairs the counts with consecutive dates, rounding to whole
// reported cases.
func (c Counts) Observations(start time.Time) []Observation {
	dates := GenerateDates(start, len(c))
	obs := make([]Observation, 0, len(c))
	for i, v := range c {
		obs = append(obs, Observation{Date: dates[i], Value: math.Round(v)})
	}
	return obs
}

// DropWeekends removes Saturday and Sunday reports, simulating sources that
// do not publish on weekends and exercising the gap-fill path.
func DropWeekends(obs []Observation) []Observation {
	kept := make([]Observation, 0, len(obs))
	for _, o := range obs {
		switch o.Date.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			kept = append(kept, o)
		}
	}
	return kept
}

// DropDays removes the reports at the given day offsets, simulating
// irregular reporting.
func DropDays(obs []Observation, days ...int) []Observation {
	skip := make(map[int]struct{}, len(days))
	for _, d := range days {
		skip[d] = struct{}{}
	}
	kept := make([]Observation, 0, len(obs))
	for i, o := range obs {
		if _, exists := skip[i]; exists {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}
