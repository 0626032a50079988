package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/backplan/internal/date"
)

func d(s string) date.Date {
	parsed, err := date.Parse(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func usHolidays() Holidays {
	h := Holidays{}
	h.Add("usa", d("2024-07-04"))
	h.Add("usa", d("2024-12-25"))
	return h
}

func TestIsNonWorkingDay(t *testing.T) {
	h := usHolidays()
	tests := []struct {
		name  string
		day   string
		codes []string
		want  bool
	}{
		{"weekday", "2024-06-14", []string{"usa"}, false},
		{"saturday", "2024-06-15", nil, true},
		{"sunday", "2024-06-16", nil, true},
		{"active holiday", "2024-07-04", []string{"usa"}, true},
		{"inactive holiday", "2024-07-04", []string{"japan"}, false},
		{"any active code", "2024-07-04", []string{"japan", "usa"}, true},
		{"unknown code", "2024-07-04", []string{"atlantis"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNonWorkingDay(d(tt.day), tt.codes, h))
		})
	}
}

func TestSubtractWorkingDays(t *testing.T) {
	cal := New(usHolidays(), "usa")

	got, err := cal.SubtractWorkingDays(d("2024-06-17"), 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-14", got.String(), "monday minus one skips the weekend")

	got, err = cal.SubtractWorkingDays(d("2024-07-05"), 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-03", got.String(), "skips independence day")

	got, err = cal.SubtractWorkingDays(d("2024-06-21"), 4)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-17", got.String())
}

func TestSubtractZeroIsIdentity(t *testing.T) {
	cal := WeekendsOnly()
	sat := d("2024-06-15")
	got, err := cal.SubtractWorkingDays(sat, 0)
	require.NoError(t, err)
	assert.True(t, got.Equal(sat))
}

func TestNegativeCountRejected(t *testing.T) {
	_, err := WeekendsOnly().SubtractWorkingDays(d("2024-06-14"), -1)
	assert.ErrorIs(t, err, ErrNegativeCount)
	_, err = WeekendsOnly().AddWorkingDays(d("2024-06-14"), -2)
	assert.ErrorIs(t, err, ErrNegativeCount)
}

func TestAddWorkingDays(t *testing.T) {
	cal := New(usHolidays(), "usa")
	got, err := cal.AddWorkingDays(d("2024-06-14"), 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-17", got.String())

	got, err = cal.AddWorkingDays(d("2024-07-03"), 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-05", got.String())
}

func TestNoWorkingDaysBounded(t *testing.T) {
	h := Holidays{}
	start := d("2024-01-01")
	for i := 0; i < MaxNonWorkingRun+10; i++ {
		h.Add("closed", start.AddDays(-i))
	}
	cal := New(h, "closed")
	_, err := cal.SubtractWorkingDays(start.AddDays(1), 1)
	assert.ErrorIs(t, err, ErrNoWorkingDays)

	_, err = cal.PreviousWorkingDay(start)
	assert.ErrorIs(t, err, ErrNoWorkingDays)
}

func TestPreviousWorkingDay(t *testing.T) {
	cal := WeekendsOnly()
	got, err := cal.PreviousWorkingDay(d("2024-06-16"))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-14", got.String())

	got, err = cal.PreviousWorkingDay(d("2024-06-12"))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-12", got.String())
}

func TestCountWorkingDays(t *testing.T) {
	cal := New(usHolidays(), "usa")
	assert.Equal(t, 5, cal.CountWorkingDays(d("2024-06-10"), d("2024-06-16")))
	assert.Equal(t, 4, cal.CountWorkingDays(d("2024-07-01"), d("2024-07-05")))
	assert.Equal(t, 0, cal.CountWorkingDays(d("2024-06-14"), d("2024-06-10")))
}

func TestHolidaysDatesSorted(t *testing.T) {
	h := usHolidays()
	h.Add("usa", d("2024-01-01"))
	dates := h.Dates("usa")
	require.Len(t, dates, 3)
	assert.Equal(t, "2024-01-01", dates[0].String())
	assert.Equal(t, "2024-12-25", dates[2].String())

	other := Holidays{}
	other.Merge(h)
	assert.True(t, other.Has("usa", d("2024-07-04")))
}
