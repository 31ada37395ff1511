package eventsdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine"
)

// Seed inserts events with their attendees and returns them with the IDs the store assigned.
// The ID field of the input is ignored.
func Seed(ctx context.Context, db *sql.DB, dialect string, events ...eventqueries.Event) ([]eventqueries.Event, error) {
	builder := goqu.Dialect(dialect)
	seeded := make([]eventqueries.Event, 0, len(events))

	for _, event := range events {
		id, err := insertEvent(ctx, db, builder, dialect, event)
		if err != nil {
			return nil, err
		}

		for ordinal, attendee := range event.Attendees {
			insert := builder.Insert("event_attendees").Prepared(true).Rows(goqu.Record{
				"event_id": id,
				"ordinal":  ordinal,
				"name":     attendee.Name,
				"email":    attendee.Email,
			})

			query, args, err := insert.ToSQL()
			if err != nil {
				return nil, err
			}

			if _, err = db.ExecContext(ctx, query, args...); err != nil {
				return nil, fmt.Errorf("inserting attendee %q: %w", attendee.Email, err)
			}
		}

		event.ID = id
		if event.Attendees == nil {
			event.Attendees = make([]eventqueries.Attendee, 0)
		}

		seeded = append(seeded, event)
	}

	return seeded, nil
}

func insertEvent(
	ctx context.Context,
	db *sql.DB,
	builder goqu.DialectWrapper,
	dialect string,
	event eventqueries.Event,
) (int64, error) {

	insert := builder.Insert("events").Prepared(true).Rows(goqu.Record{
		"city":       event.City,
		"event_date": event.EventDate,
		"event_time": event.EventTime,
	})

	if dialect == sqlengine.DialectPostgres {
		query, args, err := insert.Returning("id").ToSQL()
		if err != nil {
			return 0, err
		}

		var id int64
		if err = db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("inserting event in %s: %w", event.City, err)
		}

		return id, nil
	}

	query, args, err := insert.ToSQL()
	if err != nil {
		return 0, err
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting event in %s: %w", event.City, err)
	}

	return result.LastInsertId()
}

// Fixture builds an event from a date like "2025-01-10" and a time like "09:00".
// It panics on malformed input, which only ever comes from test code.
func Fixture(city, date, clock string, attendees ...eventqueries.Attendee) eventqueries.Event {
	d, err := eventqueries.ParseCalendarDate(date)
	if err != nil {
		panic(err)
	}

	t, err := eventqueries.ParseTimeOfDay(clock)
	if err != nil {
		panic(err)
	}

	if attendees == nil {
		attendees = make([]eventqueries.Attendee, 0)
	}

	return eventqueries.Event{City: city, EventDate: d, EventTime: t, Attendees: attendees}
}

// MadridAndParis returns the three events used throughout the tests: two in Madrid and one in Paris.
// The earliest one is the Madrid event on 2025-01-05 at 14:00; the Paris event has no attendees.
func MadridAndParis() []eventqueries.Event {
	return []eventqueries.Event{
		Fixture("Madrid", "2025-01-10", "09:00",
			eventqueries.Attendee{Name: "Ana", Email: "ana@example.com"},
			eventqueries.Attendee{Name: "Luis", Email: "luis@example.com"},
		),
		Fixture("Madrid", "2025-01-05", "14:00",
			eventqueries.Attendee{Name: "Marta", Email: "marta@example.com"},
		),
		Fixture("Paris", "2025-02-01", "10:00"),
	}
}

// SeedMadridAndParis seeds MadridAndParis.
func SeedMadridAndParis(ctx context.Context, db *sql.DB, dialect string) ([]eventqueries.Event, error) {
	return Seed(ctx, db, dialect, MadridAndParis()...)
}
