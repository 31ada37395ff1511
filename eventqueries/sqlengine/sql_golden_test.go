package sqlengine_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine"
)

// renderingContext returns a Context that is only used to render statements, never to execute them.
func renderingContext(t *testing.T, dialect string) sqlengine.Context {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c, err := sqlengine.NewContextFromSQLDB(db, sqlengine.WithDialect(dialect))
	require.NoError(t, err)

	return c
}

func Test_EmittedSQL_MatchesGoldenFiles(t *testing.T) {
	tests := []struct {
		dialect      string
		name         string
		render       func(c sqlengine.Context) (string, []any, error)
		expectedArgs []any
	}{
		{
			dialect: sqlengine.DialectPostgres,
			name:    "combined_date_time",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().DateTimeSQL()
			},
		},
		{
			dialect: sqlengine.DialectPostgres,
			name:    "bounded_top_one",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().OrderByDate().Take(2).Take(1).ToSQL()
			},
		},
		{
			dialect: sqlengine.DialectPostgres,
			name:    "attendee_count",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().AttendeeCountSQL()
			},
		},
		{
			dialect: sqlengine.DialectPostgres,
			name:    "earliest_distinct_date",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().SelectDate().Distinct().MinSQL()
			},
		},
		{
			dialect: sqlengine.DialectPostgres,
			name:    "latest_distinct_date",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().SelectDate().Distinct().MaxSQL()
			},
		},
		{
			dialect: sqlengine.DialectPostgres,
			name:    "distinct_dates",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().SelectDate().Distinct().ToSQL()
			},
		},
		{
			dialect: sqlengine.DialectPostgres,
			name:    "events_in_city",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().WhereCity("Madrid").ToSQL()
			},
			expectedArgs: []any{"Madrid"},
		},
		{
			dialect: sqlengine.DialectPostgres,
			name:    "earliest_of_first_three",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().OrderByDate().Take(3).SelectDate().MinSQL()
			},
		},
		{
			dialect: sqlengine.DialectMySQL,
			name:    "combined_date_time",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().DateTimeSQL()
			},
		},
		{
			dialect: sqlengine.DialectMySQL,
			name:    "events_in_city",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().WhereCity("Paris").ToSQL()
			},
			expectedArgs: []any{"Paris"},
		},
		{
			dialect: sqlengine.DialectSQLite3,
			name:    "combined_date_time",
			render: func(c sqlengine.Context) (string, []any, error) {
				return c.Events().DateTimeSQL()
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tc := range tests {
		t.Run(tc.dialect+"_"+tc.name, func(t *testing.T) {
			// arrange
			c := renderingContext(t, tc.dialect)

			// act
			sqlQuery, args, err := tc.render(c)

			// assert
			require.NoError(t, err)
			g.Assert(t, tc.dialect+"_"+tc.name, []byte(sqlQuery+"\n"))

			if tc.expectedArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tc.expectedArgs, args)
			}
		})
	}
}

func Test_Take_CollapsesToTheSmallerLimit(t *testing.T) {
	c := renderingContext(t, sqlengine.DialectPostgres)

	takeOneThenTwo, _, err := c.Events().OrderByDate().Take(1).Take(2).ToSQL()
	require.NoError(t, err)

	takeOne, _, err := c.Events().OrderByDate().Take(1).ToSQL()
	require.NoError(t, err)

	assert.Equal(t, takeOne, takeOneThenTwo)
	assert.Contains(t, takeOne, "LIMIT 1")
	assert.NotContains(t, takeOne, "LIMIT 2")
}

func Test_BuilderMethods_DoNotMutateTheReceiver(t *testing.T) {
	c := renderingContext(t, sqlengine.DialectPostgres)

	// arrange
	base := c.Events().WhereCity("Madrid")
	_ = base.WhereCity("Paris").OrderByDate().Take(1)

	// act
	sqlQuery, args, err := base.ToSQL()

	// assert
	require.NoError(t, err)
	assert.Equal(t, []any{"Madrid"}, args)
	assert.NotContains(t, sqlQuery, "ORDER BY")
	assert.NotContains(t, sqlQuery, "LIMIT")
}
