// Package cli implements the eventqueries command line: flag parsing, configuration, connection,
// scenario execution, and reporting for one run.
package cli
