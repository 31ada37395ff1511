// Package eventqueries provides the entity model and the common abstractions for querying
// events and their attendees from a relational store.
//
// An Event carries a calendar date and a time of day as separate values, and owns a
// collection of Attendee values that have no identity of their own.
//
// Key types:
//   - Event, Attendee: the entity model
//   - CalendarDate, TimeOfDay: zone-less date and clock values that scan from and bind to SQL columns
//   - CityDateTime, CityAttendeeCount: projections produced by the query engine
//   - Logger, ContextualLogger, MetricsCollector, TracingCollector: dependency-free observability hooks
//
// The SQL engine lives in the sqlengine subpackage:
//
//	ctx, err := sqlengine.NewContextFromPGXPool(pool, sqlengine.WithLogger(logger))
//	if err != nil {
//		// handle error
//	}
//
//	earliest, err := ctx.Events().SelectDate().Distinct().Min(context.Background())
//	if errors.Is(err, eventqueries.ErrEmptySet) {
//		// no events stored
//	}
package eventqueries
