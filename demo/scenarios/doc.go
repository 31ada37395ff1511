// Package scenarios defines the fixed, ordered list of event query demonstrations and runs them
// sequentially or concurrently against one query context.
package scenarios
