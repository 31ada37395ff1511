package sqlengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine/internal/adapters"
)

const (
	operationPing          = "ping"
	operationList          = "list_events"
	operationAttendees     = "load_attendees"
	operationDateTime      = "select_city_date_time"
	operationAttendeeCount = "select_city_attendee_count"
	operationDates         = "select_dates"
	operationMinDate       = "min_date"
	operationMaxDate       = "max_date"
)

// ToList returns the matching events, each with its attendees in insertion order.
func (q EventQuery) ToList(ctx context.Context) ([]eventqueries.Event, error) {
	events := make([]eventqueries.Event, 0)

	if q.err != nil {
		return events, q.err
	}

	if q.isEmptyByLimit() {
		return events, nil
	}

	stmt, err := q.c.toStatement(ctx, operationList, q.eventsDataset())
	if err != nil {
		return events, err
	}

	_, err = q.c.execute(ctx, operationList, stmt, func(rows adapters.DBRows) error {
		event := eventqueries.Event{Attendees: make([]eventqueries.Attendee, 0)}
		if scanErr := rows.Scan(&event.ID, &event.City, &event.EventDate, &event.EventTime); scanErr != nil {
			return scanErr
		}

		events = append(events, event)

		return nil
	})
	if err != nil {
		return make([]eventqueries.Event, 0), err
	}

	if err = q.loadAttendees(ctx, events); err != nil {
		return make([]eventqueries.Event, 0), err
	}

	return events, nil
}

// FirstOrDefault returns the first matching event, or nil if there is none.
func (q EventQuery) FirstOrDefault(ctx context.Context) (*eventqueries.Event, error) {
	events, err := q.Take(1).ToList(ctx)
	if err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return nil, nil //nolint:nilnil
	}

	return &events[0], nil
}

// SelectCityAndDateTime projects each event onto its city and the combination of its date and time.
// The combination is computed by the store.
func (q EventQuery) SelectCityAndDateTime(ctx context.Context) ([]eventqueries.CityDateTime, error) {
	results := make([]eventqueries.CityDateTime, 0)

	if q.err != nil {
		return results, q.err
	}

	if q.isEmptyByLimit() {
		return results, nil
	}

	stmt, err := q.c.toStatement(ctx, operationDateTime, q.dateTimeDataset())
	if err != nil {
		return results, err
	}

	_, err = q.c.execute(ctx, operationDateTime, stmt, func(rows adapters.DBRows) error {
		var city string
		var combined localDateTime

		if scanErr := rows.Scan(&city, &combined); scanErr != nil {
			return scanErr
		}

		results = append(results, eventqueries.CityDateTime{City: city, EventDateTime: combined.value})

		return nil
	})
	if err != nil {
		return make([]eventqueries.CityDateTime, 0), err
	}

	return results, nil
}

// SelectCityAndAttendeeCount projects each event onto its city and the number of its attendees.
// The count is computed by the store; attendees are not loaded.
func (q EventQuery) SelectCityAndAttendeeCount(ctx context.Context) ([]eventqueries.CityAttendeeCount, error) {
	results := make([]eventqueries.CityAttendeeCount, 0)

	if q.err != nil {
		return results, q.err
	}

	if q.isEmptyByLimit() {
		return results, nil
	}

	stmt, err := q.c.toStatement(ctx, operationAttendeeCount, q.attendeeCountDataset())
	if err != nil {
		return results, err
	}

	_, err = q.c.execute(ctx, operationAttendeeCount, stmt, func(rows adapters.DBRows) error {
		var result eventqueries.CityAttendeeCount
		if scanErr := rows.Scan(&result.City, &result.AttendeeCount); scanErr != nil {
			return scanErr
		}

		results = append(results, result)

		return nil
	})
	if err != nil {
		return make([]eventqueries.CityAttendeeCount, 0), err
	}

	return results, nil
}

// loadAttendees fills the owned attendee collections of events with one additional statement.
func (q EventQuery) loadAttendees(ctx context.Context, events []eventqueries.Event) error {
	if len(events) == 0 {
		return nil
	}

	eventIDs := make([]int64, 0, len(events))
	positions := make(map[int64]int, len(events))

	for i, event := range events {
		eventIDs = append(eventIDs, event.ID)
		positions[event.ID] = i
	}

	stmt, err := q.c.toStatement(ctx, operationAttendees, q.attendeesDataset(eventIDs))
	if err != nil {
		return err
	}

	_, err = q.c.execute(ctx, operationAttendees, stmt, func(rows adapters.DBRows) error {
		var eventID int64
		var attendee eventqueries.Attendee

		if scanErr := rows.Scan(&eventID, &attendee.Name, &attendee.Email); scanErr != nil {
			return scanErr
		}

		pos, ok := positions[eventID]
		if !ok {
			return fmt.Errorf("attendee row for unknown event %d", eventID)
		}

		events[pos].Attendees = append(events[pos].Attendees, attendee)

		return nil
	})

	return err
}

// ToList returns the projected dates in store order, or ordered when the underlying query is.
func (q DateQuery) ToList(ctx context.Context) ([]eventqueries.CalendarDate, error) {
	dates := make([]eventqueries.CalendarDate, 0)

	if q.events.err != nil {
		return dates, q.events.err
	}

	if q.events.isEmptyByLimit() {
		return dates, nil
	}

	stmt, err := q.events.c.toStatement(ctx, operationDates, q.datesDataset())
	if err != nil {
		return dates, err
	}

	_, err = q.events.c.execute(ctx, operationDates, stmt, func(rows adapters.DBRows) error {
		var date eventqueries.CalendarDate
		if scanErr := rows.Scan(&date); scanErr != nil {
			return scanErr
		}

		dates = append(dates, date)

		return nil
	})
	if err != nil {
		return make([]eventqueries.CalendarDate, 0), err
	}

	return dates, nil
}

// Min returns the earliest date. It fails with ErrEmptySet when there are no events to aggregate,
// a zero date is never returned.
func (q DateQuery) Min(ctx context.Context) (eventqueries.CalendarDate, error) {
	return q.aggregate(ctx, operationMinDate, goqu.MIN(colEventDate))
}

// Max returns the latest date. It fails with ErrEmptySet when there are no events to aggregate.
func (q DateQuery) Max(ctx context.Context) (eventqueries.CalendarDate, error) {
	return q.aggregate(ctx, operationMaxDate, goqu.MAX(colEventDate))
}

func (q DateQuery) aggregate(ctx context.Context, operation string, aggregate any) (eventqueries.CalendarDate, error) {
	if q.events.err != nil {
		return eventqueries.CalendarDate{}, q.events.err
	}

	if q.events.isEmptyByLimit() {
		return eventqueries.CalendarDate{}, errors.Join(eventqueries.ErrEmptySet, errors.New(operation+" over Take(0)"))
	}

	stmt, err := q.events.c.toStatement(ctx, operation, q.aggregateDataset(aggregate))
	if err != nil {
		return eventqueries.CalendarDate{}, err
	}

	var result nullCalendarDate

	_, err = q.events.c.execute(ctx, operation, stmt, func(rows adapters.DBRows) error {
		return rows.Scan(&result)
	})
	if err != nil {
		return eventqueries.CalendarDate{}, err
	}

	if !result.valid {
		return eventqueries.CalendarDate{}, errors.Join(eventqueries.ErrEmptySet, errors.New(operation+" over zero rows"))
	}

	return result.date, nil
}

// nullCalendarDate scans an aggregate that is NULL over zero rows.
type nullCalendarDate struct {
	date  eventqueries.CalendarDate
	valid bool
}

func (n *nullCalendarDate) Scan(src any) error {
	if src == nil {
		n.date, n.valid = eventqueries.CalendarDate{}, false
		return nil
	}

	if err := n.date.Scan(src); err != nil {
		return err
	}

	n.valid = true

	return nil
}

// localDateTime scans a zone-less date-time. Drivers that return time.Time keep their wall clock,
// the location is replaced by time.UTC.
type localDateTime struct {
	value time.Time
}

func (l *localDateTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		l.value = eventqueries.WallClockUTC(v)
		return nil

	case string:
		return l.parse(v)

	case []byte:
		return l.parse(string(v))

	default:
		return fmt.Errorf("cannot scan %T into a date-time", src)
	}
}

func (l *localDateTime) parse(s string) error {
	t, err := eventqueries.ParseLocalDateTime(s)
	if err != nil {
		return err
	}

	l.value = t

	return nil
}
