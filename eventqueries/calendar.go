package eventqueries

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	calendarDateLayout  = "2006-01-02"
	timeOfDayLayout     = "15:04:05"
	timeOfDayWireLayout = "15:04:05.000000"
)

// localDateTimeLayouts are the wall-clock renderings the supported drivers produce for dates, times,
// and combined date-time values when they hand out text instead of time.Time.
var localDateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	calendarDateLayout,
}

var timeOfDayLayouts = []string{
	"15:04:05.999999999",
	"15:04",
}

// CalendarDate is a date without a time component and without a time zone.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCalendarDate validates the parts and returns the CalendarDate.
// Invalid combinations like February 30 fail with ErrInvalidCalendarDate.
func NewCalendarDate(year int, month time.Month, day int) (CalendarDate, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return CalendarDate{}, errors.Join(
			ErrInvalidCalendarDate,
			fmt.Errorf("%04d-%02d-%02d does not exist", year, month, day),
		)
	}

	return CalendarDate{Year: year, Month: month, Day: day}, nil
}

// ParseCalendarDate parses "2006-01-02". Values carrying a clock part are accepted, the clock is dropped.
func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := ParseLocalDateTime(s)
	if err != nil {
		return CalendarDate{}, errors.Join(ErrInvalidCalendarDate, err)
	}

	return CalendarDateOf(t), nil
}

// CalendarDateOf returns the date part of t as seen in t's location.
func CalendarDateOf(t time.Time) CalendarDate {
	year, month, day := t.Date()

	return CalendarDate{Year: year, Month: month, Day: day}
}

// IsZero reports whether d is the zero value, which is not a valid date.
func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// Before reports whether d lies before other.
func (d CalendarDate) Before(other CalendarDate) bool {
	return d.midnight().Before(other.midnight())
}

// ToDateTime combines the date with a time of day into a single instant in UTC.
func (d CalendarDate) ToDateTime(t TimeOfDay) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, t.Microsecond*1000, time.UTC)
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *CalendarDate) UnmarshalText(text []byte) error {
	parsed, err := ParseCalendarDate(string(text))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// Value implements driver.Valuer so a CalendarDate can be bound as a statement argument.
func (d CalendarDate) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner. Drivers hand out dates as time.Time, string, or []byte.
func (d *CalendarDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = CalendarDateOf(v)
		return nil

	case string:
		return d.UnmarshalText([]byte(v))

	case []byte:
		return d.UnmarshalText(v)

	case nil:
		return errors.Join(ErrInvalidCalendarDate, errors.New("NULL cannot be scanned into a calendar date"))

	default:
		return errors.Join(ErrInvalidCalendarDate, fmt.Errorf("unsupported source type %T", src))
	}
}

func (d CalendarDate) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// TimeOfDay is a clock time with microsecond precision, without a date and without a time zone.
type TimeOfDay struct {
	Hour        int
	Minute      int
	Second      int
	Microsecond int
}

// NewTimeOfDay validates the parts and returns the TimeOfDay.
func NewTimeOfDay(hour, minute, second, microsecond int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 ||
		minute < 0 || minute > 59 ||
		second < 0 || second > 59 ||
		microsecond < 0 || microsecond > 999_999 {

		return TimeOfDay{}, errors.Join(
			ErrInvalidTimeOfDay,
			fmt.Errorf("%02d:%02d:%02d.%06d is out of range", hour, minute, second, microsecond),
		)
	}

	return TimeOfDay{Hour: hour, Minute: minute, Second: second, Microsecond: microsecond}, nil
}

// ParseTimeOfDay parses "15:04", "15:04:05" or "15:04:05.999999".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)

	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}

	// some drivers render a TIME column with a zero date in front of it
	if t, err := ParseLocalDateTime(s); err == nil {
		return TimeOfDayOf(t), nil
	}

	return TimeOfDay{}, errors.Join(ErrInvalidTimeOfDay, fmt.Errorf("cannot parse %q", s))
}

// TimeOfDayOf returns the clock part of t, truncated to microseconds.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Microsecond: t.Nanosecond() / 1000,
	}
}

// SinceMidnight returns the time of day as an offset from midnight.
func (t TimeOfDay) SinceMidnight() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Microsecond)*time.Microsecond
}

// String renders "15:04:05", with a six digit fraction only when the microseconds are not zero.
func (t TimeOfDay) String() string {
	if t.Microsecond == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}

	return fmt.Sprintf("%02d:%02d:%02d.%06d", t.Hour, t.Minute, t.Second, t.Microsecond)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// Value implements driver.Valuer, always with the full microsecond fraction.
func (t TimeOfDay) Value() (driver.Value, error) {
	return time.Date(0, 1, 1, t.Hour, t.Minute, t.Second, t.Microsecond*1000, time.UTC).Format(timeOfDayWireLayout), nil
}

// Scan implements sql.Scanner. Besides time.Time and text, an int64 is read as microseconds since midnight.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = TimeOfDayOf(v)
		return nil

	case string:
		return t.UnmarshalText([]byte(v))

	case []byte:
		return t.UnmarshalText(v)

	case int64:
		if v < 0 || v >= int64(24*time.Hour/time.Microsecond) {
			return errors.Join(ErrInvalidTimeOfDay, fmt.Errorf("%d microseconds is out of range", v))
		}

		*t = TimeOfDayOf(time.Time{}.Add(time.Duration(v) * time.Microsecond))

		return nil

	case nil:
		return errors.Join(ErrInvalidTimeOfDay, errors.New("NULL cannot be scanned into a time of day"))

	default:
		return errors.Join(ErrInvalidTimeOfDay, fmt.Errorf("unsupported source type %T", src))
	}
}

// ParseLocalDateTime parses the wall-clock renderings drivers produce for date and date-time values.
// The result always carries time.UTC; a zone offset in the input is ignored, the wall clock is kept.
func ParseLocalDateTime(s string) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")

	for _, layout := range localDateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return WallClockUTC(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse %q as a date or date-time", s)
}

// WallClockUTC keeps the wall clock of t and replaces its location with time.UTC.
func WallClockUTC(t time.Time) time.Time {
	year, month, day := t.Date()

	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
