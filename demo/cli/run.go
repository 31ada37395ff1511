package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/eventqueries-go/demo/config"
	"github.com/AntonStoeckl/eventqueries-go/demo/reporter"
	"github.com/AntonStoeckl/eventqueries-go/demo/scenarios"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine"
)

// RunOptions holds the flags of the run command.
type RunOptions struct {
	ConfigFile string
	EnvFile    string
	DSN        string
	Driver     string
	City       string
	Format     string
	Timeout    time.Duration
	LogSQL     bool
	Concurrent bool
	OTel       bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all event query demonstrations",
		Long: `Connects to the configured store, runs every demonstration in order,
and prints "` + reporter.CompletionMessage + `" when all of them succeeded.

The connection string is taken from --dsn, else from EVENTQUERIES_DEFAULT_CONNECTION
(also read from --env-file), else from connectionStrings.defaultConnection in --config.

Example:
  eventqueries run --dsn "file:events.db" --log-sql
  eventqueries run --config eventqueries.yaml --format json --concurrent`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemonstrations(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "path to a .env file, ignored if missing")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "connection string, overrides the configuration")
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "pgx | postgres | sqlx | mysql | sqlite3, inferred from the connection string if empty")
	cmd.Flags().StringVar(&opts.City, "city", scenarios.DefaultCity, "city of the events-in-city demonstration")
	cmd.Flags().StringVar(&opts.Format, "format", string(reporter.FormatNone), "result output format (none|text|json)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-statement timeout, overrides the configuration")
	cmd.Flags().BoolVar(&opts.LogSQL, "log-sql", false, "write every emitted SQL statement to stdout")
	cmd.Flags().BoolVar(&opts.Concurrent, "concurrent", false, "run the demonstrations concurrently")
	cmd.Flags().BoolVar(&opts.OTel, "otel", false, "record OpenTelemetry spans and metrics and log a summary")

	return cmd
}

func runDemonstrations(cmd *cobra.Command, opts *RunOptions) error {
	format, err := reporter.ParseFormat(opts.Format)
	if err != nil {
		return wrapExitError(ExitCommandError, "invalid flags", err)
	}

	if opts.Timeout < 0 {
		return wrapExitError(ExitCommandError, "invalid flags", errors.New("--timeout must not be negative"))
	}

	cfg, err := config.Load(opts.ConfigFile, opts.EnvFile)
	if err != nil {
		return wrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	if opts.DSN != "" {
		cfg.ConnectionStrings.DefaultConnection = opts.DSN
	}
	if opts.Driver != "" {
		cfg.Driver = opts.Driver
	}
	if opts.Timeout > 0 {
		cfg.QueryTimeout = opts.Timeout
	}

	info, err := cfg.Connection()
	if err != nil {
		return wrapExitError(ExitCommandError, "invalid connection", err)
	}

	handler := slog.Handler(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelInfo}))
	if opts.LogSQL {
		handler = reporter.NewQueryLogHandler(cmd.OutOrStdout(), handler)
	}

	runID := uuid.Must(uuid.NewV7()).String()
	logger := slog.New(handler).With("run_id", runID)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	queryOptions := []sqlengine.Option{
		sqlengine.WithLogger(logger),
		sqlengine.WithQueryTimeout(cfg.QueryTimeout),
	}

	var tel *telemetry
	if opts.OTel {
		tel = newTelemetry(logger.Handler())
		defer tel.shutdown(context.WithoutCancel(ctx))
		queryOptions = append(queryOptions, tel.options()...)
	}

	logger.Info("connecting", "target", info.Redacted())

	store, err := config.Open(ctx, info, queryOptions...)
	if err != nil {
		return wrapExitError(ExitCommandError, "failed to connect", err)
	}
	defer store.Close()

	runnerOptions := []scenarios.RunnerOption{scenarios.WithLogger(logger)}
	if opts.Concurrent {
		runnerOptions = append(runnerOptions, scenarios.Concurrently())
	}

	results, err := scenarios.NewRunner(store.Queries, runnerOptions...).Run(ctx, scenarios.All(opts.City))
	if tel != nil {
		tel.summarize(ctx, logger)
	}
	if err != nil {
		if errors.Is(err, eventqueries.ErrConnection) {
			return wrapExitError(ExitCommandError, "demonstrations aborted", err)
		}

		return wrapExitError(ExitFailure, "demonstrations failed", err)
	}

	if err = reporter.New(cmd.OutOrStdout(), format).Report(results); err != nil {
		return wrapExitError(ExitFailure, "failed to write the report", err)
	}

	return nil
}
