// Package record holds the dated case and testing reports consumed by the
// analysis pipeline along with the filters used to prepare them.
package record

import (
	"errors"
	"time"
)

var (
	ErrDateMismatch = errors.New("cannot combine records for different dates")
)

// aggregateRegion is the placeholder region name used when records from
// different provinces or countries are combined.
const aggregateRegion = "aggr"

// Cases reports the cumulative case counts for a region at some date. A
// negative Resolved count means the value is unknown for that region.
type Cases struct {
	Date      time.Time
	Province  string
	Country   string
	Confirmed int
	Deceased  int
	Resolved  int
}

// ReportDate returns the date the cases were reported on.
func (c Cases) ReportDate() time.Time {
	return c.Date
}

// CaseTesting reports the testing levels for a region at some date.
type CaseTesting struct {
	Date               time.Time
	Province           string
	Country            string
	Tested             int
	UnderInvestigation int
}

// ReportDate returns the date the testing status was reported on.
func (c CaseTesting) ReportDate() time.Time {
	return c.Date
}

// Record is any dated report that can be filtered and grouped by date.
type Record interface {
	ReportDate() time.Time
}

// CombineCases sums two case reports for the same date. Resolved counts are
// only summed when both sides are known; a negative count on either side
// leaves the left-hand value untouched since no information is available.
func CombineCases(a, b Cases) (Cases, error) {
	if !sameDay(a.Date, b.Date) {
		return Cases{}, ErrDateMismatch
	}

	resolved := a.Resolved
	if a.Resolved >= 0 && b.Resolved >= 0 {
		resolved = a.Resolved + b.Resolved
	}

	return Cases{
		Date:      a.Date,
		Province:  combineRegion(a.Province, b.Province),
		Country:   combineRegion(a.Country, b.Country),
		Confirmed: a.Confirmed + b.Confirmed,
		Deceased:  a.Deceased + b.Deceased,
		Resolved:  resolved,
	}, nil
}

// CombineTesting sums two testing reports for the same date.
func CombineTesting(a, b CaseTesting) (CaseTesting, error) {
	if !sameDay(a.Date, b.Date) {
		return CaseTesting{}, ErrDateMismatch
	}

	return CaseTesting{
		Date:               a.Date,
		Province:           combineRegion(a.Province, b.Province),
		Country:            combineRegion(a.Country, b.Country),
		Tested:             a.Tested + b.Tested,
		UnderInvestigation: a.UnderInvestigation + b.UnderInvestigation,
	}, nil
}

func combineRegion(a, b string) string {
	if a == b {
		return a
	}
	return aggregateRegion
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
