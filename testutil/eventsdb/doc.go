// Package eventsdb provides test databases for the query engine: per-dialect schema DDL,
// seeding of events with their owned attendees, throwaway sqlite files, and an optional
// postgres database selected through EVENTQUERIES_TEST_POSTGRES_DSN.
package eventsdb
