package timeutil

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthRange(t *testing.T) {
	r, err := MonthRange(2024, time.February)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), r.End)
	assert.True(t, r.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(r.End))

	_, err = MonthRange(2024, 13)
	assert.Error(t, err)
	_, err = MonthRange(0, time.May)
	assert.Error(t, err)
}

func TestPreviousMonthCrossesYear(t *testing.T) {
	now := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	r := PreviousMonth(now)

	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), r.End)
}

func TestParseDayRange(t *testing.T) {
	r, err := ParseDayRange("2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), r.End)

	_, err = ParseDayRange("2025-03-31", "2025-03-01")
	assert.Error(t, err)
	_, err = ParseDayRange("03/01/2025", "2025-03-01")
	assert.Error(t, err)
}

func TestProperty_MonthsTileTheYear(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("consecutive months share a boundary and stay inside the year", prop.ForAll(
		func(year int, month int) bool {
			r, err := MonthRange(year, time.Month(month))
			if err != nil {
				return false
			}
			whole, _ := YearRange(year)
			next := PreviousMonth(r.End)
			return next == r && !r.Start.Before(whole.Start) && !r.End.After(whole.End)
		},
		gen.IntRange(1970, 2100),
		gen.IntRange(1, 12),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
