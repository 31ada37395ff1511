package eventqueries_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
)

func Test_NewCalendarDate(t *testing.T) {
	tests := []struct {
		name        string
		year        int
		month       time.Month
		day         int
		expectedErr error
	}{
		{name: "regular date", year: 2025, month: time.January, day: 10},
		{name: "leap day", year: 2024, month: time.February, day: 29},
		{name: "february 30", year: 2025, month: time.February, day: 30, expectedErr: eventqueries.ErrInvalidCalendarDate},
		{name: "month 13", year: 2025, month: 13, day: 1, expectedErr: eventqueries.ErrInvalidCalendarDate},
		{name: "day zero", year: 2025, month: time.March, day: 0, expectedErr: eventqueries.ErrInvalidCalendarDate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			d, err := eventqueries.NewCalendarDate(tc.year, tc.month, tc.day)

			// assert
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.True(t, d.IsZero())

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.year, d.Year)
			assert.Equal(t, tc.month, d.Month)
			assert.Equal(t, tc.day, d.Day)
		})
	}
}

func Test_ParseCalendarDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected eventqueries.CalendarDate
	}{
		{name: "plain date", input: "2025-01-05", expected: eventqueries.CalendarDate{Year: 2025, Month: time.January, Day: 5}},
		{name: "date with midnight", input: "2025-01-05 00:00:00", expected: eventqueries.CalendarDate{Year: 2025, Month: time.January, Day: 5}},
		{name: "rfc3339 with zulu", input: "2025-01-05T00:00:00Z", expected: eventqueries.CalendarDate{Year: 2025, Month: time.January, Day: 5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			d, err := eventqueries.ParseCalendarDate(tc.input)

			// assert
			require.NoError(t, err)
			assert.Equal(t, tc.expected, d)
		})
	}

	t.Run("garbage", func(t *testing.T) {
		_, err := eventqueries.ParseCalendarDate("yesterday")
		assert.ErrorIs(t, err, eventqueries.ErrInvalidCalendarDate)
	})
}

func Test_CalendarDate_Scan(t *testing.T) {
	expected := eventqueries.CalendarDate{Year: 2025, Month: time.February, Day: 1}

	sources := map[string]any{
		"time.Time": time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		"string":    "2025-02-01",
		"bytes":     []byte("2025-02-01"),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			// arrange
			var d eventqueries.CalendarDate

			// act
			err := d.Scan(src)

			// assert
			require.NoError(t, err)
			assert.Equal(t, expected, d)
		})
	}

	t.Run("NULL", func(t *testing.T) {
		var d eventqueries.CalendarDate
		assert.ErrorIs(t, d.Scan(nil), eventqueries.ErrInvalidCalendarDate)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var d eventqueries.CalendarDate
		assert.ErrorIs(t, d.Scan(3.14), eventqueries.ErrInvalidCalendarDate)
	})
}

func Test_TimeOfDay_ParseAndString(t *testing.T) {
	tests := []struct {
		input    string
		expected eventqueries.TimeOfDay
		rendered string
	}{
		{input: "09:00", expected: eventqueries.TimeOfDay{Hour: 9}, rendered: "09:00:00"},
		{input: "14:00:00", expected: eventqueries.TimeOfDay{Hour: 14}, rendered: "14:00:00"},
		{input: "10:30:15.000250", expected: eventqueries.TimeOfDay{Hour: 10, Minute: 30, Second: 15, Microsecond: 250}, rendered: "10:30:15.000250"},
		{input: "0000-01-01 23:59:59", expected: eventqueries.TimeOfDay{Hour: 23, Minute: 59, Second: 59}, rendered: "23:59:59"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			// act
			tod, err := eventqueries.ParseTimeOfDay(tc.input)

			// assert
			require.NoError(t, err)
			assert.Equal(t, tc.expected, tod)
			assert.Equal(t, tc.rendered, tod.String())
		})
	}
}

func Test_TimeOfDay_Validation(t *testing.T) {
	_, err := eventqueries.NewTimeOfDay(24, 0, 0, 0)
	assert.ErrorIs(t, err, eventqueries.ErrInvalidTimeOfDay)

	_, err = eventqueries.NewTimeOfDay(12, 0, 0, 1_000_000)
	assert.ErrorIs(t, err, eventqueries.ErrInvalidTimeOfDay)

	tod, err := eventqueries.NewTimeOfDay(12, 30, 0, 999_999)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour+30*time.Minute+999_999*time.Microsecond, tod.SinceMidnight())
}

func Test_TimeOfDay_Scan(t *testing.T) {
	expected := eventqueries.TimeOfDay{Hour: 14, Minute: 5, Second: 1, Microsecond: 42}

	sources := map[string]any{
		"time.Time":    time.Date(0, 1, 1, 14, 5, 1, 42_000, time.UTC),
		"string":       "14:05:01.000042",
		"bytes":        []byte("14:05:01.000042"),
		"microseconds": int64(expected.SinceMidnight() / time.Microsecond),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			// arrange
			var tod eventqueries.TimeOfDay

			// act
			err := tod.Scan(src)

			// assert
			require.NoError(t, err)
			assert.Equal(t, expected, tod)
		})
	}

	t.Run("microseconds out of range", func(t *testing.T) {
		var tod eventqueries.TimeOfDay
		assert.ErrorIs(t, tod.Scan(int64(-1)), eventqueries.ErrInvalidTimeOfDay)
	})
}

func Test_ToDateTime_RoundTripsOnDecomposition(t *testing.T) {
	dates := []eventqueries.CalendarDate{
		{Year: 2025, Month: time.January, Day: 10},
		{Year: 2024, Month: time.February, Day: 29},
		{Year: 1999, Month: time.December, Day: 31},
	}
	times := []eventqueries.TimeOfDay{
		{},
		{Hour: 9},
		{Hour: 23, Minute: 59, Second: 59, Microsecond: 999_999},
		{Hour: 14, Minute: 0, Second: 0, Microsecond: 1},
	}

	for _, d := range dates {
		for _, tod := range times {
			// act
			combined := d.ToDateTime(tod)

			// assert
			assert.Equal(t, time.UTC, combined.Location())
			assert.Equal(t, d, eventqueries.CalendarDateOf(combined))
			assert.Equal(t, tod, eventqueries.TimeOfDayOf(combined))
		}
	}
}

func Test_CalendarDate_Before(t *testing.T) {
	earlier := eventqueries.CalendarDate{Year: 2025, Month: time.January, Day: 5}
	later := eventqueries.CalendarDate{Year: 2025, Month: time.January, Day: 10}

	assert.True(t, earlier.Before(later))
	assert.False(t, later.Before(earlier))
	assert.False(t, earlier.Before(earlier))
}

func Test_ParseLocalDateTime_KeepsWallClock(t *testing.T) {
	tests := map[string]time.Time{
		"2025-01-10 09:00:00":           time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC),
		"2025-01-10 09:00:00.000123":    time.Date(2025, time.January, 10, 9, 0, 0, 123_000, time.UTC),
		"2025-01-10T09:00:00Z":          time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC),
		"2025-01-10T09:00:00+02:00":     time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC),
		"2025-01-10 09:00:00.5":         time.Date(2025, time.January, 10, 9, 0, 0, 500_000_000, time.UTC),
	}

	for input, expected := range tests {
		t.Run(input, func(t *testing.T) {
			actual, err := eventqueries.ParseLocalDateTime(input)

			require.NoError(t, err)
			assert.Equal(t, expected, actual)
		})
	}
}
