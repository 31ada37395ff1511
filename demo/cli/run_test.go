package cli_test

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/eventqueries-go/demo/cli"
	"github.com/AntonStoeckl/eventqueries-go/demo/config"
	"github.com/AntonStoeckl/eventqueries-go/demo/reporter"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine"
	"github.com/AntonStoeckl/eventqueries-go/testutil/eventsdb"
)

type commandOutput struct {
	stdout string
	stderr string
}

// execute runs the root command with args and an isolated environment.
func execute(t *testing.T, args ...string) (commandOutput, error) {
	t.Helper()

	for _, key := range []string{config.DefaultConnectionEnv, config.DriverEnv} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), ".env")))

	err := cmd.ExecuteContext(context.Background())

	return commandOutput{stdout: stdout.String(), stderr: stderr.String()}, err
}

// seededSQLiteDSN returns the DSN of a sqlite file that holds the example events.
func seededSQLiteDSN(t *testing.T, seed bool) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.db")
	db, err := sql.Open("sqlite3", "file:"+path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, eventsdb.CreateSchema(context.Background(), db, sqlengine.DialectSQLite3))
	if seed {
		_, err = eventsdb.SeedMadridAndParis(context.Background(), db, sqlengine.DialectSQLite3)
		require.NoError(t, err)
	}

	return "file:" + path
}

func Test_Run_PrintsTheCompletionLine(t *testing.T) {
	// arrange
	dsn := seededSQLiteDSN(t, true)

	// act
	output, err := execute(t, "run", "--dsn", dsn)

	// assert
	require.NoError(t, err)
	assert.Equal(t, reporter.CompletionMessage+"\n", output.stdout)
	assert.Contains(t, output.stderr, "run_id=")
	assert.Contains(t, output.stderr, "scenario completed")
}

func Test_Run_WithLogSQL_StreamsStatementsBeforeTheCompletionLine(t *testing.T) {
	dsn := seededSQLiteDSN(t, true)

	output, err := execute(t, "run", "--dsn", dsn, "--driver", config.DriverSQLite3, "--log-sql", "--city", "Paris")

	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(output.stdout, "\n"), "\n")
	require.Len(t, lines, 8)
	for _, line := range lines[:7] {
		assert.True(t, strings.HasPrefix(line, "SELECT "), line)
	}
	assert.Equal(t, reporter.CompletionMessage, lines[7])
	assert.NotContains(t, output.stderr, "SELECT ")
}

func Test_Run_Concurrently_WithTextResults(t *testing.T) {
	dsn := seededSQLiteDSN(t, true)

	output, err := execute(t, "run", "--dsn", dsn, "--concurrent", "--format", "text")

	require.NoError(t, err)
	assert.Contains(t, output.stdout, "bounded-top-one: ")
	assert.Contains(t, output.stdout, "Madrid 2025-01-05 14:00:00 (1 attendees)")
	assert.True(t, strings.HasSuffix(output.stdout, reporter.CompletionMessage+"\n"))
}

func Test_Run_WithOpenTelemetry_LogsASummary(t *testing.T) {
	dsn := seededSQLiteDSN(t, true)

	output, err := execute(t, "run", "--dsn", dsn, "--otel")

	require.NoError(t, err)
	assert.Equal(t, reporter.CompletionMessage+"\n", output.stdout)
	assert.Contains(t, output.stderr, "telemetry span")
	assert.Contains(t, output.stderr, "span=eventqueries.query")
	assert.Contains(t, output.stderr, "metric=eventqueries_query_duration_seconds")
}

func Test_Run_Failures(t *testing.T) {
	tests := []struct {
		name             string
		args             func(t *testing.T) []string
		expectedCode     int
		expectedErr      error
		expectedErrorMsg string
	}{
		{
			name:             "no connection string",
			args:             func(*testing.T) []string { return []string{"run"} },
			expectedCode:     cli.ExitCommandError,
			expectedErr:      eventqueries.ErrConnection,
			expectedErrorMsg: "invalid connection",
		},
		{
			name: "incomplete postgres connection string",
			args: func(*testing.T) []string {
				return []string{"run", "--dsn", "postgres://demo@localhost:5432/events"}
			},
			expectedCode:     cli.ExitCommandError,
			expectedErr:      eventqueries.ErrConnection,
			expectedErrorMsg: "missing required fields",
		},
		{
			name: "empty store",
			args: func(t *testing.T) []string {
				return []string{"run", "--dsn", seededSQLiteDSN(t, false)}
			},
			expectedCode:     cli.ExitFailure,
			expectedErr:      eventqueries.ErrEmptySet,
			expectedErrorMsg: `scenario "earliest-distinct-date" failed: `,
		},
		{
			name:             "unknown format",
			args:             func(*testing.T) []string { return []string{"run", "--format", "xml"} },
			expectedCode:     cli.ExitCommandError,
			expectedErrorMsg: "invalid flags",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			output, err := execute(t, tc.args(t)...)

			// assert
			require.Error(t, err)
			assert.Equal(t, tc.expectedCode, cli.ExitCode(err))
			assert.ErrorContains(t, err, tc.expectedErrorMsg)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			}
			assert.NotContains(t, output.stdout, reporter.CompletionMessage)
		})
	}
}

func Test_ExitCode(t *testing.T) {
	assert.Equal(t, cli.ExitSuccess, cli.ExitCode(nil))
	assert.Equal(t, cli.ExitFailure, cli.ExitCode(assert.AnError))
	assert.Equal(t, cli.ExitCommandError, cli.ExitCode(&cli.ExitError{Code: cli.ExitCommandError, Message: "x"}))
}
