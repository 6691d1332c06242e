// Package timerange resolves dashboard filter selections into concrete
// date ranges in the restaurant's reference timezone. Everything here is
// pure given "now"; callers pass time.Now().
package timerange

import (
	"errors"
	"fmt"
	"time"

	"github.com/elfogon/api/internal/enum"
)

// Location is the fixed reference timezone for trading-day boundaries.
// Day boundaries are never computed in the server's local timezone.
var Location *time.Location

func init() {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		loc = time.FixedZone("CST", -6*60*60)
	}
	Location = loc
}

var (
	ErrUnknownFilter = errors.New("unknown range filter")
	ErrCustomBounds  = errors.New("custom range requires start and end dates")
	ErrInverted      = errors.New("start date is after end date")
)

// Range is an inclusive pair of dates, both at midnight in the reference
// timezone.
type Range struct {
	Start time.Time
	End   time.Time
}

// Bounds returns the half-open timestamp window [Start, End+1d) used by
// created_at >= $1 AND created_at < $2 queries.
func (r Range) Bounds() (time.Time, time.Time) {
	return r.Start, r.End.AddDate(0, 0, 1)
}

// Resolve computes the inclusive date range for a filter selector.
// custom is only consulted for the "custom" filter.
func Resolve(filter string, now time.Time, custom *Range) (Range, error) {
	today := midnight(now.In(Location))

	switch filter {
	case enum.RangeToday:
		return Range{Start: today, End: today}, nil

	case enum.RangeWeek:
		// ISO week: Monday through Sunday containing today.
		weekday := int(today.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := today.AddDate(0, 0, -(weekday - 1))
		return Range{Start: start, End: start.AddDate(0, 0, 6)}, nil

	case enum.RangeMonth:
		// Full calendar month, symmetric with the week filter.
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, Location)
		return Range{Start: start, End: start.AddDate(0, 1, -1)}, nil

	case enum.RangeCustom:
		if custom == nil || custom.Start.IsZero() || custom.End.IsZero() {
			return Range{}, ErrCustomBounds
		}
		start := midnight(custom.Start.In(Location))
		end := midnight(custom.End.In(Location))
		if start.After(end) {
			return Range{}, ErrInverted
		}
		return Range{Start: start, End: end}, nil
	}

	return Range{}, fmt.Errorf("%w: %q", ErrUnknownFilter, filter)
}

// TradingDay returns the trading day containing now. Used for kanban
// sequence numbers and arqueo system totals.
func TradingDay(now time.Time) Range {
	today := midnight(now.In(Location))
	return Range{Start: today, End: today}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}
