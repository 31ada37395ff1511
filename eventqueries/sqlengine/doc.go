// Package sqlengine translates queries over events into SQL and materializes the results.
//
// A Context is created over an already opened database handle: pgxpool.Pool, sql.DB, or sqlx.DB.
// Statements are rendered with goqu for the postgres (default), mysql, or sqlite3 dialect.
//
// Query surface:
//   - Events(): all events, narrowed with WhereCity, ordered with OrderByDate, limited with Take
//   - ToList / FirstOrDefault: materialize events including their owned attendees
//   - SelectCityAndDateTime: date and time of day combined by the store
//   - SelectCityAndAttendeeCount: attendee count computed by the store
//   - SelectDate().Distinct().Min() / Max(): aggregates that fail with eventqueries.ErrEmptySet on zero rows
//
// Observability:
//   - WithLogger / WithContextualLogger: every emitted statement at debug level, summaries at info level
//   - WithMetrics: query durations, returned row counts, database errors
//   - WithTracing: one span per query operation
//
// Example:
//
//	events, err := sqlengine.NewContextFromSQLDB(db, sqlengine.WithDialect(sqlengine.DialectSQLite3))
//	if err != nil {
//		// handle error
//	}
//
//	first, err := events.Events().OrderByDate().Take(2).Take(1).FirstOrDefault(ctx)
package sqlengine
