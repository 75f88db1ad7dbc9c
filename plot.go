package caserate

import (
	"io"
	"math"
	"os"
	"time"

	"github.com/epifit/caserate/analysis"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineTSeries generates an echart multi-line chart for some arbitrary
// time/value combination. Each series in y must have the same length as the
// input time slice. NaN entries show up as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	lineData := make([][]opts.LineData, len(y))
	for i := 0; i < len(y); i++ {
		lineData[i] = make([]opts.LineData, 0, len(y[i]))
		for j := 0; j < len(y[i]); j++ {
			if math.IsNaN(y[i][j]) {
				lineData[i] = append(lineData[i], opts.LineData{Value: nil})
				continue
			}
			lineData[i] = append(lineData[i], opts.LineData{Value: y[i][j]})
		}
	}

	line = line.SetXAxis(t)
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData[i])
	}

	return line
}

// LineBands generates an echart line chart for a banded metric plotting the
// estimate along with its upper and lower bounds. Undefined days show up as
// gaps.
func LineBands(title string, t []time.Time, bands []analysis.Band) *charts.Line {
	estimate := make([]float64, len(bands))
	upper := make([]float64, len(bands))
	lower := make([]float64, len(bands))
	for i, b := range bands {
		estimate[i] = b.Estimate
		upper[i] = b.Upper
		lower[i] = b.Lower
	}
	return LineTSeries(title, []string{"Estimate", "Upper", "Lower"}, t,
		[][]float64{estimate, upper, lower})
}

// LineForecast generates an echart line chart overlaying the reported daily
// changes with the forecast trajectory and its envelope. Forecast entries
// past the series end get extrapolated dates.
func LineForecast(r *Results) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Daily Case Forecast",
			},
		),
	)

	if r.Forecast == nil || len(r.Dates) == 0 {
		return line
	}

	n := len(r.Dates)
	horizon := r.Forecast.Indices[len(r.Forecast.Indices)-1] + 1

	t := make([]time.Time, horizon)
	copy(t, r.Dates)
	for i := n; i < horizon; i++ {
		t[i] = r.Dates[0].AddDate(0, 0, i)
	}

	lineDataActual := make([]opts.LineData, horizon)
	for i := range lineDataActual {
		if i < n {
			lineDataActual[i] = opts.LineData{Value: r.DailyChange[i]}
			continue
		}
		lineDataActual[i] = opts.LineData{Value: nil}
	}

	lineDataForecast := make([]opts.LineData, horizon)
	lineDataUpper := make([]opts.LineData, horizon)
	lineDataLower := make([]opts.LineData, horizon)
	for i := range lineDataForecast {
		lineDataForecast[i] = opts.LineData{Value: nil}
		lineDataUpper[i] = opts.LineData{Value: nil}
		lineDataLower[i] = opts.LineData{Value: nil}
	}
	for i, idx := range r.Forecast.Indices {
		lineDataForecast[idx] = opts.LineData{Value: r.Forecast.Cases[i]}
		lineDataUpper[idx] = opts.LineData{Value: r.Forecast.Upper[i]}
		lineDataLower[idx] = opts.LineData{Value: r.Forecast.Lower[i]}
	}

	line.SetXAxis(t).
		AddSeries("Actual", lineDataActual).
		AddSeries("Forecast", lineDataForecast).
		AddSeries("Upper", lineDataUpper).
		AddSeries("Lower", lineDataLower)
	return line
}

// Plot renders every metric of the results as an html page of line charts to
// the given writer.
func (r *Results) Plot(w io.Writer) error {
	page := components.NewPage()
	page.AddCharts(
		LineTSeries(
			r.Label+" Reported Cases",
			[]string{"Reported", "Smoothed"},
			r.Dates,
			[][]float64{r.Reported, r.Smoothed},
		),
		LineForecast(r),
		LineBands(r.Label+" Daily Change Slope", r.Dates, r.Slope),
		LineBands(r.Label+" Percent Change", r.Dates, r.PercentChange),
		LineBands(r.Label+" Growth Factor", r.Dates, r.GrowthFactor),
	)
	return page.Render(w)
}

// PlotToFile renders the results charts to an html file at the given path.
func (r *Results) PlotToFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return r.Plot(file)
}
