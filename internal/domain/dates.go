package domain

import (
	"fmt"
	"time"
)

// DateRange is a closed interval of calendar days, both endpoints included.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange parses two ISO dates into a validated range.
func NewDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse end date %q: %w", end, err)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s precedes start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// Days returns every calendar day in the range, ascending. The result has
// (End-Start).Days()+1 elements; processing order everywhere in the pipeline
// follows this ordering.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
