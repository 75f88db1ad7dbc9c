package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventValid(t *testing.T) {
	testData := map[string]struct {
		event Event
		err   error
	}{
		"valid": {
			event: New("lockdown",
				time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)),
		},
		"unset times": {
			event: Event{Name: "lockdown"},
			err:   ErrUnsetTime,
		},
		"start after end": {
			event: New("lockdown",
				time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)),
			err: ErrStartAfterEnd,
		},
		"no name": {
			event: New("",
				time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)),
			err: ErrNoEventName,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := td.event.Valid()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.Nil(t, err)
		})
	}
}

func TestEventOverlap(t *testing.T) {
	dates := make([]time.Time, 10)
	for i := range dates {
		dates[i] = time.Date(2020, 3, 1+i, 0, 0, 0, 0, time.UTC)
	}

	testData := map[string]struct {
		event    Event
		first    int
		last     int
		overlaps bool
	}{
		"inside": {
			event: New("lockdown",
				time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 3, 6, 0, 0, 0, 0, time.UTC)),
			first:    3,
			last:     5,
			overlaps: true,
		},
		"clipped at series start": {
			event: New("lockdown",
				time.Date(2020, 2, 20, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC)),
			first:    0,
			last:     1,
			overlaps: true,
		},
		"clipped at series end": {
			event: New("lockdown",
				time.Date(2020, 3, 9, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 3, 20, 0, 0, 0, 0, time.UTC)),
			first:    8,
			last:     9,
			overlaps: true,
		},
		"outside": {
			event: New("lockdown",
				time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 4, 10, 0, 0, 0, 0, time.UTC)),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			first, last, ok := td.event.Overlap(dates)
			assert.Equal(t, td.overlaps, ok)
			if !td.overlaps {
				return
			}
			assert.Equal(t, td.first, first)
			assert.Equal(t, td.last, last)
		})
	}
}

func TestChristmas(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC)

	events := Christmas(start, end, 24*time.Hour, 48*time.Hour)
	require.Len(t, events, 1)

	assert.Equal(t, "Christmas_Day_2020", events[0].Name)
	assert.True(t, events[0].Start.Before(events[0].End))
	require.Nil(t, events[0].Valid())

	first, last, ok := events[0].Overlap([]time.Time{
		time.Date(2020, 12, 24, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 12, 25, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 12, 26, 0, 0, 0, 0, time.UTC),
	})
	assert.True(t, ok)
	assert.Equal(t, 0, first)
	assert.Equal(t, 2, last)
}
