package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the eventqueries command with its subcommands.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eventqueries",
		Short: "Event query demonstrations against a relational store",
		Long: `Runs a fixed set of event queries against a PostgreSQL, MySQL, or SQLite store
and shows how each one is translated into SQL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewRunCommand())

	return cmd
}
