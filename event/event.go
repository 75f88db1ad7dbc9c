// Package event describes named time spans that affect how a case series
// should be read, such as policy interventions or holiday periods where
// reporting is known to dip.
package event

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var (
	ErrStartAfterEnd = errors.New("event start time is after end time")
	ErrUnsetTime     = errors.New("unset event start or end time")
	ErrNoEventName   = errors.New("no event name")
)

// Event is a named time span annotated onto an analyzed series.
type Event struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New creates an event covering the span from start to end inclusive.
func New(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

// Valid checks that the event has a name and a well-ordered time span.
func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Overlap returns the index range of the dates covered by the event, end
// inclusive. The dates are expected to be consecutive calendar days, as
// returned by a time series. Reports false when the event does not intersect
// the dates at all.
func (e *Event) Overlap(dates []time.Time) (int, int, bool) {
	first, last := -1, -1
	for i, d := range dates {
		if d.Before(e.Start) || d.After(e.End) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return 0, 0, false
	}
	return first, last, true
}

// ReportingGap builds one event per observed occurrence of the holiday
// within the span, each padded by the given durations. Case counts around
// holidays routinely dip and rebound as reporting offices close, so these
// spans mark days whose counts should be read with suspicion.
func ReportingGap(hol *cal.Holiday, start, end time.Time, durBefore, durAfter time.Duration) []Event {
	startLoc := start.Location()

	events := []Event{}
	for year := start.Year(); year <= end.Year(); year++ {
		_, observed := hol.Calc(year)
		_, offset := observed.Zone()
		_, startOffset := start.Zone()

		observed = observed.Add(time.Duration(offset) * time.Second).In(startLoc).Add(time.Duration(-startOffset) * time.Second)

		if (observed.After(start) || observed.Equal(start)) && (observed.Before(end) || observed.Equal(end)) {
			events = append(events, Event{
				Name:  strings.ReplaceAll(fmt.Sprintf("%s_%d", hol.Name, year), " ", "_"),
				Start: observed.Add(-durBefore),
				End:   observed.Add(24 * time.Hour).Add(durAfter),
			})
		}
	}
	return events
}

// Christmas returns reporting-gap events around each Christmas Day in the
// span.
func Christmas(start, end time.Time, durBefore, durAfter time.Duration) []Event {
	return ReportingGap(us.ChristmasDay, start, end, durBefore, durAfter)
}

// NewYear returns reporting-gap events around each New Year's Day in the
// span.
func NewYear(start, end time.Time, durBefore, durAfter time.Duration) []Event {
	return ReportingGap(us.NewYear, start, end, durBefore, durAfter)
}
