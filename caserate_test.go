package caserate

import (
	"math"
	"testing"
	"time"

	"github.com/epifit/caserate/analysis"
	"github.com/epifit/caserate/event"
	"github.com/epifit/caserate/record"
	"github.com/epifit/caserate/timeseries"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateCases(country string, start time.Time, n int, initial, doublingDays float64) []record.Cases {
	counts := timeseries.GenerateExponential(n, initial, doublingDays)
	dates := timeseries.GenerateDates(start, n)

	records := make([]record.Cases, 0, n)
	for i, v := range counts {
		records = append(records, record.Cases{
			Date:      dates[i],
			Country:   country,
			Confirmed: int(math.Round(v)),
			Resolved:  -1,
		})
	}
	return records
}

func TestAnalyze(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	records := generateCases("CA", start, 45, 100, 5)

	res, err := New(nil).Analyze("Canada", records)
	require.Nil(t, err)

	assert.Equal(t, "Canada", res.Label)
	require.Equal(t, 45, len(res.Dates))
	assert.Equal(t, start, res.Dates[0])
	assert.Equal(t, 45, len(res.Reported))
	assert.Equal(t, 45, len(res.DailyChange))
	assert.Equal(t, 45, len(res.Smoothed))
	assert.Equal(t, 45, len(res.Slope))
	assert.Equal(t, 45, len(res.PercentChange))
	assert.Equal(t, 45, len(res.GrowthFactor))

	// doubling every 5 days means new cases grow by 2^(1/5) per day
	dailyBase := math.Pow(2, 0.2)
	gf := res.GrowthFactor[22]
	require.True(t, gf.Defined())
	assert.InDelta(t, dailyBase, gf.Estimate, 0.02)
	assert.GreaterOrEqual(t, gf.Upper, gf.Estimate)
	assert.LessOrEqual(t, gf.Lower, gf.Estimate)

	pc := res.PercentChange[22]
	require.True(t, pc.Defined())
	assert.InDelta(t, dailyBase-1, pc.Estimate, 0.03)

	require.NotNil(t, res.Forecast)
	require.Equal(t, 15, len(res.Forecast.Cases))
	assert.Equal(t, 15, len(res.Forecast.Upper))
	assert.Equal(t, 15, len(res.Forecast.Lower))
	require.Equal(t, 15, len(res.Forecast.Indices))

	// default reporting lag of 3 anchors the forecast at index n-lag-1
	assert.Equal(t, 41, res.Forecast.Indices[0])
	assert.Equal(t, 55, res.Forecast.Indices[14])

	for i := range res.Forecast.Cases {
		assert.GreaterOrEqual(t, res.Forecast.Upper[i], res.Forecast.Cases[i], "day %d", i)
		assert.LessOrEqual(t, res.Forecast.Lower[i], res.Forecast.Cases[i], "day %d", i)
	}
	for i := 1; i < len(res.Forecast.Cases); i++ {
		assert.InDelta(t, dailyBase, res.Forecast.Cases[i]/res.Forecast.Cases[i-1], 0.05)
	}

	assert.Greater(t, res.TrainingError, 0.0)
	assert.Greater(t, res.ValidationError, 0.0)
}

func TestAnalyzeErrors(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	records := generateCases("CA", start, 30, 100, 5)

	testData := map[string]struct {
		opt     *Options
		records []record.Cases
		err     error
	}{
		"no records": {
			opt: NewDefaultOptions(),
			err: ErrNoRecords,
		},
		"unknown field": {
			opt: func() *Options {
				opt := NewDefaultOptions()
				opt.Field = "hospitalized"
				return opt
			}(),
			records: records,
			err:     ErrUnknownField,
		},
		"window too small": {
			opt: func() *Options {
				opt := NewDefaultOptions()
				opt.Window = 2
				return opt
			}(),
			records: records,
			err:     timeseries.ErrInvalidWindow,
		},
		"invalid event": {
			opt: func() *Options {
				opt := NewDefaultOptions()
				opt.Events = []event.Event{{Name: "lockdown"}}
				return opt
			}(),
			records: records,
			err:     event.ErrUnsetTime,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := New(td.opt).Analyze("Canada", td.records)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestAnalyzeShortSeries(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	records := generateCases("CA", start, 10, 100, 5)

	res, err := New(nil).Analyze("Canada", records)
	require.Nil(t, err)

	assert.Equal(t, 10, len(res.Dates))
	assert.Equal(t, 10, len(res.Smoothed))
	assert.Nil(t, res.Forecast)
	assert.Equal(t, 0.0, res.TrainingError)
	assert.Equal(t, 0.0, res.ValidationError)
}

func TestAnalyzeSumsProvinces(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	dates := timeseries.GenerateDates(start, 12)

	records := make([]record.Cases, 0, 2*len(dates))
	for i, d := range dates {
		records = append(records,
			record.Cases{Date: d, Province: "ON", Country: "CA", Confirmed: 100 + 10*i, Resolved: -1},
			record.Cases{Date: d, Province: "BC", Country: "CA", Confirmed: 50 + 5*i, Resolved: -1},
		)
	}

	res, err := New(nil).Analyze("Canada", records)
	require.Nil(t, err)

	require.Equal(t, 12, len(res.Reported))
	assert.Equal(t, 150.0, res.Reported[0])
	assert.Equal(t, 165.0, res.Reported[1])
	assert.Equal(t, 15.0, res.DailyChange[3])
}

func TestAnalyzeEvents(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	records := generateCases("CA", start, 30, 100, 5)

	opt := NewDefaultOptions()
	opt.Events = []event.Event{
		event.New("lockdown",
			time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)),
		event.New("next wave",
			time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)),
	}

	res, err := New(opt).Analyze("Canada", records)
	require.Nil(t, err)

	require.Equal(t, 1, len(res.Events))
	assert.Equal(t, "lockdown", res.Events[0].Name)
	assert.Equal(t, 9, res.Events[0].StartIndex)
	assert.Equal(t, 14, res.Events[0].EndIndex)
}

func TestAnalyzeAll(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	regions := map[string][]record.Cases{
		"Canada":  generateCases("CA", start, 45, 100, 5),
		"Iceland": generateCases("IS", start, 45, 40, 9),
	}

	a := New(nil)
	results, err := a.AnalyzeAll(regions)
	require.Nil(t, err)
	require.Equal(t, 2, len(results))

	for label := range regions {
		require.Contains(t, results, label)
		assert.Equal(t, label, results[label].Label)
	}

	single, err := a.Analyze("Canada", regions["Canada"])
	require.Nil(t, err)
	assert.Equal(t, single.Reported, results["Canada"].Reported)
	assert.Equal(t, single.GrowthFactor, results["Canada"].GrowthFactor)
}

func TestAnalyzeAllPropagatesRegion(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	regions := map[string][]record.Cases{
		"Canada":  generateCases("CA", start, 45, 100, 5),
		"Nowhere": nil,
	}

	_, err := New(nil).AnalyzeAll(regions)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrNoRecords)
	assert.Contains(t, err.Error(), "Nowhere")
}

func TestResultsJSON(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	records := generateCases("CA", start, 45, 100, 5)

	res, err := New(nil).Analyze("Canada", records)
	require.Nil(t, err)

	bytes, err := res.JSON()
	require.Nil(t, err)

	var decoded Results
	require.Nil(t, json.Unmarshal(bytes, &decoded))

	assert.Equal(t, res.Label, decoded.Label)
	assert.Equal(t, res.Reported, decoded.Reported)
	require.Equal(t, len(res.GrowthFactor), len(decoded.GrowthFactor))
	for i := range res.GrowthFactor {
		if !res.GrowthFactor[i].Defined() {
			assert.False(t, decoded.GrowthFactor[i].Defined())
			continue
		}
		assert.InDelta(t, res.GrowthFactor[i].Estimate, decoded.GrowthFactor[i].Estimate, 1e-9)
	}
	require.NotNil(t, decoded.Forecast)
	assert.Equal(t, res.Forecast.Indices, decoded.Forecast.Indices)
}

func TestResultsJSONUndefinedBands(t *testing.T) {
	res := &Results{
		Label: "empty",
		GrowthFactor: []analysis.Band{
			{Estimate: math.NaN(), Upper: math.NaN(), Lower: math.NaN()},
		},
	}

	bytes, err := res.JSON()
	require.Nil(t, err)
	assert.Contains(t, string(bytes), `"estimate": null`)
}
