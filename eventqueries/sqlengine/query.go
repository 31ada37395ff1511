package sqlengine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
)

const (
	colID            = "id"
	colCity          = "city"
	colEventDate     = "event_date"
	colEventTime     = "event_time"
	colEventID       = "event_id"
	colOrdinal       = "ordinal"
	colName          = "name"
	colEmail         = "email"
	aliasDateTime    = "event_date_time"
	aliasCount       = "attendee_count"
	aliasLimitedRows = "limited_events"
)

type dateOrder int

const (
	unordered dateOrder = iota
	ascending
	descending
)

// EventQuery is an immutable query over events. Every builder method returns a modified copy;
// the store is only touched by the terminal methods, which take a context.Context.
//
// Ordering always applies before the row limit, the same way it does in SQL.
type EventQuery struct {
	c      Context
	cities []string
	order  dateOrder
	limit  *uint
	err    error
}

// WhereCity keeps the events taking place in city. The value is always sent as a bound parameter.
// Calling it more than once requires all the given cities to match.
func (q EventQuery) WhereCity(city string) EventQuery {
	q.cities = append(slices.Clone(q.cities), city)

	return q
}

// OrderByDate orders the events by date, earliest first.
func (q EventQuery) OrderByDate() EventQuery {
	q.order = ascending

	return q
}

// OrderByDateDescending orders the events by date, latest first.
func (q EventQuery) OrderByDateDescending() EventQuery {
	q.order = descending

	return q
}

// Take limits the result to at most n events. Consecutive limits collapse into the smaller one,
// so Take(2).Take(1) emits a single LIMIT 1. A negative n fails the terminal call with ErrInvalidLimit.
func (q EventQuery) Take(n int) EventQuery {
	if n < 0 {
		q.err = errors.Join(eventqueries.ErrInvalidLimit, fmt.Errorf("Take(%d)", n))

		return q
	}

	bound := uint(n)
	if q.limit == nil || bound < *q.limit {
		q.limit = &bound
	}

	return q
}

// SelectDate projects every event onto its date.
func (q EventQuery) SelectDate() DateQuery {
	return DateQuery{events: q}
}

// ToSQL renders the statement ToList issues for the events themselves.
func (q EventQuery) ToSQL() (string, []any, error) {
	return q.render(q.eventsDataset())
}

// DateTimeSQL renders the statement SelectCityAndDateTime issues.
func (q EventQuery) DateTimeSQL() (string, []any, error) {
	return q.render(q.dateTimeDataset())
}

// AttendeeCountSQL renders the statement SelectCityAndAttendeeCount issues.
func (q EventQuery) AttendeeCountSQL() (string, []any, error) {
	return q.render(q.attendeeCountDataset())
}

func (q EventQuery) render(ds *goqu.SelectDataset) (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}

	sqlQuery, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, errors.Join(eventqueries.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

// isEmptyByLimit reports whether Take(0) makes any statement pointless.
// goqu treats LIMIT 0 as no limit at all, so such queries are answered without the store.
func (q EventQuery) isEmptyByLimit() bool {
	return q.limit != nil && *q.limit == 0
}

// filtered applies the city filter, the order, and the limit to ds.
func (q EventQuery) filtered(ds *goqu.SelectDataset) *goqu.SelectDataset {
	for _, city := range q.cities {
		ds = ds.Where(goqu.C(colCity).Eq(city))
	}

	if len(q.cities) > 0 {
		ds = ds.Prepared(true)
	}

	switch q.order {
	case ascending:
		ds = ds.Order(goqu.C(colEventDate).Asc())
	case descending:
		ds = ds.Order(goqu.C(colEventDate).Desc())
	case unordered:
	}

	if q.limit != nil {
		ds = ds.Limit(*q.limit)
	}

	return ds
}

func (q EventQuery) eventsDataset() *goqu.SelectDataset {
	ds := q.c.builder.
		From(q.c.eventsTableName).
		Select(goqu.C(colID), goqu.C(colCity), goqu.C(colEventDate), goqu.C(colEventTime))

	return q.filtered(ds)
}

func (q EventQuery) dateTimeDataset() *goqu.SelectDataset {
	ds := q.c.builder.
		From(q.c.eventsTableName).
		Select(
			goqu.C(colCity),
			dateTimeColumn(q.c.dialect, goqu.C(colEventDate), goqu.C(colEventTime), aliasDateTime),
		)

	return q.filtered(ds)
}

// attendeeCountDataset counts the owned attendees with a correlated subquery per event.
func (q EventQuery) attendeeCountDataset() *goqu.SelectDataset {
	attendees := goqu.T(q.c.attendeesTableName)
	events := goqu.T(q.c.eventsTableName)

	count := q.c.builder.
		From(attendees).
		Select(goqu.COUNT(goqu.Star())).
		Where(attendees.Col(colEventID).Eq(events.Col(colID))).
		As(aliasCount)

	ds := q.c.builder.
		From(q.c.eventsTableName).
		Select(goqu.C(colCity), count)

	return q.filtered(ds)
}

func (q EventQuery) attendeesDataset(eventIDs []int64) *goqu.SelectDataset {
	return q.c.builder.
		From(q.c.attendeesTableName).
		Select(goqu.C(colEventID), goqu.C(colName), goqu.C(colEmail)).
		Where(goqu.C(colEventID).In(eventIDs)).
		Order(goqu.C(colEventID).Asc(), goqu.C(colOrdinal).Asc())
}

// DateQuery is the projection of an EventQuery onto the event dates.
type DateQuery struct {
	events   EventQuery
	distinct bool
}

// Distinct removes duplicate dates.
func (q DateQuery) Distinct() DateQuery {
	q.distinct = true

	return q
}

// ToSQL renders the statement ToList issues.
func (q DateQuery) ToSQL() (string, []any, error) {
	return q.events.render(q.datesDataset())
}

// MinSQL renders the statement Min issues.
func (q DateQuery) MinSQL() (string, []any, error) {
	return q.events.render(q.aggregateDataset(goqu.MIN(colEventDate)))
}

// MaxSQL renders the statement Max issues.
func (q DateQuery) MaxSQL() (string, []any, error) {
	return q.events.render(q.aggregateDataset(goqu.MAX(colEventDate)))
}

func (q DateQuery) datesDataset() *goqu.SelectDataset {
	ds := q.events.c.builder.
		From(q.events.c.eventsTableName).
		Select(goqu.C(colEventDate))

	if q.distinct {
		ds = ds.Distinct()
	}

	return q.events.filtered(ds)
}

// aggregateDataset applies an aggregate to the dates. DISTINCT is dropped because it never changes
// MIN or MAX; a row limit has to be applied first, so limited queries aggregate over a subquery.
func (q DateQuery) aggregateDataset(aggregate any) *goqu.SelectDataset {
	builder := q.events.c.builder

	if q.events.limit != nil {
		limited := q.events.filtered(
			builder.From(q.events.c.eventsTableName).Select(goqu.C(colEventDate)),
		)

		ds := builder.From(limited.As(aliasLimitedRows)).Select(aggregate)
		if len(q.events.cities) > 0 {
			ds = ds.Prepared(true)
		}

		return ds
	}

	withoutOrder := q.events
	withoutOrder.order = unordered

	return withoutOrder.filtered(builder.From(q.events.c.eventsTableName).Select(aggregate))
}
