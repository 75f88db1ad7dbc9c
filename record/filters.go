package record

import (
	"sort"
	"time"
)

// Select filters records with the provided predicate and returns the matches
// sorted by report date.
func Select[T Record](records []T, fn func(T) bool) []T {
	selected := make([]T, 0, len(records))
	for _, r := range records {
		if fn(r) {
			selected = append(selected, r)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].ReportDate().Before(selected[j].ReportDate())
	})
	return selected
}

// SelectByCountry filters case records down to a single country, sorted by
// report date.
func SelectByCountry(records []Cases, country string) []Cases {
	return Select(records, func(c Cases) bool {
		return c.Country == country
	})
}

// SumByDate combines all records sharing a calendar date into one record per
// date using the provided combine function. The result is sorted by date.
// Region labels are lost when records from multiple regions are merged.
func SumByDate[T Record](records []T, combine func(T, T) (T, error)) ([]T, error) {
	summed := make(map[time.Time]T)
	for _, r := range records {
		day := dayOf(r.ReportDate())
		existing, ok := summed[day]
		if !ok {
			summed[day] = r
			continue
		}
		merged, err := combine(existing, r)
		if err != nil {
			return nil, err
		}
		summed[day] = merged
	}

	days := make([]time.Time, 0, len(summed))
	for day := range summed {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})

	res := make([]T, 0, len(days))
	for _, day := range days {
		res = append(res, summed[day])
	}
	return res, nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
