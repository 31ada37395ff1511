// Package reporter writes the outcome of a demonstration run: optional scenario results as text or JSON,
// the completion line, and in diagnostic mode every emitted SQL statement.
package reporter
