package scenarios

import (
	"context"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine"
)

// Scenario names in their fixed order.
const (
	CombinedDateTime     = "combined-date-time"
	BoundedTopOne        = "bounded-top-one"
	AttendeeCount        = "attendee-count"
	EarliestDistinctDate = "earliest-distinct-date"
	EventsInCity         = "events-in-city"
)

// DefaultCity is the parameter of the events-in-city scenario when none is given.
const DefaultCity = "Madrid"

// EventSource exposes the query surface over events. sqlengine.Context implements it.
type EventSource interface {
	Events() sqlengine.EventQuery
}

// Scenario is one named, read-only query against the event source.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, events sqlengine.EventQuery) (any, error)
}

// All returns the demonstration scenarios in their fixed order. city parameterizes events-in-city.
func All(city string) []Scenario {
	return []Scenario{
		{
			Name:        CombinedDateTime,
			Description: "event date combined with event time by the store",
			Run: func(ctx context.Context, events sqlengine.EventQuery) (any, error) {
				return events.SelectCityAndDateTime(ctx)
			},
		},
		{
			Name:        BoundedTopOne,
			Description: "earliest event through Take(2) followed by Take(1)",
			Run: func(ctx context.Context, events sqlengine.EventQuery) (any, error) {
				return events.OrderByDate().Take(2).Take(1).FirstOrDefault(ctx)
			},
		},
		{
			Name:        AttendeeCount,
			Description: "number of attendees per event counted by the store",
			Run: func(ctx context.Context, events sqlengine.EventQuery) (any, error) {
				return events.SelectCityAndAttendeeCount(ctx)
			},
		},
		{
			Name:        EarliestDistinctDate,
			Description: "minimum over the distinct event dates",
			Run: func(ctx context.Context, events sqlengine.EventQuery) (any, error) {
				return events.SelectDate().Distinct().Min(ctx)
			},
		},
		{
			Name:        EventsInCity,
			Description: "events whose city equals " + city,
			Run: func(ctx context.Context, events sqlengine.EventQuery) (any, error) {
				return events.WhereCity(city).ToList(ctx)
			},
		},
	}
}
