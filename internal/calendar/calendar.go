// Package calendar decides which days are working days and does
// working-day arithmetic on top of that decision.
package calendar

import (
	"sort"

	"github.com/twiced-technology-gmbh/backplan/internal/date"
)

// Holidays maps a country code to the set of its public holidays.
type Holidays map[string]map[date.Date]struct{}

// Add records d as a holiday of code.
func (h Holidays) Add(code string, d date.Date) {
	set, ok := h[code]
	if !ok {
		set = make(map[date.Date]struct{})
		h[code] = set
	}
	set[d] = struct{}{}
}

// Has reports whether d is a holiday of code.
func (h Holidays) Has(code string, d date.Date) bool {
	_, ok := h[code][d]
	return ok
}

// Dates returns the holidays of code in ascending order.
func (h Holidays) Dates(code string) []date.Date {
	out := make([]date.Date, 0, len(h[code]))
	for d := range h[code] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Merge copies every holiday of other into h.
func (h Holidays) Merge(other Holidays) {
	for code, set := range other {
		for d := range set {
			h.Add(code, d)
		}
	}
}

// IsNonWorkingDay reports whether d is a Saturday, a Sunday, or a holiday of
// any of the active codes. Codes without data contribute no holidays.
func IsNonWorkingDay(d date.Date, codes []string, holidays Holidays) bool {
	if d.IsWeekend() {
		return true
	}
	for _, code := range codes {
		if holidays.Has(code, d) {
			return true
		}
	}
	return false
}

// Calendar is a holiday data set with a selection of active country codes.
type Calendar struct {
	Holidays Holidays
	Codes    []string
}

// New returns a calendar with the given holiday data and active codes.
func New(holidays Holidays, codes ...string) Calendar {
	if holidays == nil {
		holidays = Holidays{}
	}
	return Calendar{Holidays: holidays, Codes: codes}
}

// WeekendsOnly returns a calendar where only Saturdays and Sundays are off.
func WeekendsOnly() Calendar {
	return New(nil)
}

// IsNonWorkingDay reports whether d is off under this calendar.
func (c Calendar) IsNonWorkingDay(d date.Date) bool {
	return IsNonWorkingDay(d, c.Codes, c.Holidays)
}

// IsWorkingDay is the negation of IsNonWorkingDay.
func (c Calendar) IsWorkingDay(d date.Date) bool {
	return !c.IsNonWorkingDay(d)
}
