package calendar

import (
	"errors"
	"fmt"

	"github.com/twiced-technology-gmbh/backplan/internal/date"
)

// MaxNonWorkingRun bounds how many consecutive non-working days a scan
// crosses before giving up.
const MaxNonWorkingRun = 400

var (
	// ErrNoWorkingDays is returned when no working day is found within
	// MaxNonWorkingRun calendar days.
	ErrNoWorkingDays = errors.New("no working day within scan limit")
	// ErrNegativeCount is returned for a negative working-day count.
	ErrNegativeCount = errors.New("working-day count must not be negative")
)

// SubtractWorkingDays moves backwards from d one calendar day at a time and
// stops once n working days have been stepped onto. n == 0 returns d as is,
// even when d is a non-working day.
func (c Calendar) SubtractWorkingDays(d date.Date, n int) (date.Date, error) {
	return c.step(d, n, -1)
}

// AddWorkingDays is SubtractWorkingDays in the forward direction.
func (c Calendar) AddWorkingDays(d date.Date, n int) (date.Date, error) {
	return c.step(d, n, 1)
}

func (c Calendar) step(d date.Date, n, dir int) (date.Date, error) {
	if n < 0 {
		return d, fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}
	cur := d
	run := 0
	for n > 0 {
		cur = cur.AddDays(dir)
		if c.IsNonWorkingDay(cur) {
			run++
			if run > MaxNonWorkingRun {
				return d, fmt.Errorf("%w: from %s", ErrNoWorkingDays, d)
			}
			continue
		}
		run = 0
		n--
	}
	return cur, nil
}

// PreviousWorkingDay returns d if it is a working day, otherwise the closest
// working day before it.
func (c Calendar) PreviousWorkingDay(d date.Date) (date.Date, error) {
	cur := d
	for i := 0; c.IsNonWorkingDay(cur); i++ {
		if i >= MaxNonWorkingRun {
			return d, fmt.Errorf("%w: from %s", ErrNoWorkingDays, d)
		}
		cur = cur.AddDays(-1)
	}
	return cur, nil
}

// CountWorkingDays counts working days in the inclusive range [from, to].
// It returns 0 when to is before from.
func (c Calendar) CountWorkingDays(from, to date.Date) int {
	count := 0
	for cur := from; !cur.After(to); cur = cur.AddDays(1) {
		if c.IsWorkingDay(cur) {
			count++
		}
	}
	return count
}
