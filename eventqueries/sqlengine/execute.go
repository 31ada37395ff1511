package sqlengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine/internal/adapters"
)

// statement is a rendered SQL string with its bound arguments; args is empty for inlined statements.
type statement struct {
	sql  string
	args []any
}

// toStatement renders a dataset. Failures are logged and counted as build errors.
func (c Context) toStatement(ctx context.Context, operation string, ds *goqu.SelectDataset) (statement, error) {
	sqlQuery, args, err := ds.ToSQL()
	if err != nil {
		c.logError(ctx, logMsgBuildQueryFailed, err, logAttrOperation, operation)
		c.recordErrorMetrics(ctx, operation, errorTypeBuildQuery)

		return statement{}, errors.Join(eventqueries.ErrBuildingQueryFailed, err)
	}

	return statement{sql: sqlQuery, args: args}, nil
}

// execute runs one statement under the query timeout and hands every row to scanRow.
// It returns the number of rows scanned.
func (c Context) execute(
	ctx context.Context,
	operation string,
	stmt statement,
	scanRow func(rows adapters.DBRows) error,
) (int, error) {

	ctx, cancel := c.withQueryTimeout(ctx)
	defer cancel()

	observer, ctx := c.observeQuery(ctx, operation)

	start := time.Now()
	rows, queryErr := c.db.Query(ctx, stmt.sql, stmt.args...)
	c.logQueryWithDuration(ctx, stmt, operation, time.Since(start))

	if queryErr != nil {
		c.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrOperation, operation, logAttrQuery, stmt.sql)

		return 0, c.queryFailure(ctx, observer, queryErr, time.Since(start))
	}
	defer c.closeRows(ctx, rows)

	rowCount := 0
	for rows.Next() {
		if scanErr := scanRow(rows); scanErr != nil {
			c.logError(ctx, logMsgScanRowFailed, scanErr, logAttrOperation, operation)
			observer.failure(errorTypeRowScan, time.Since(start))

			return 0, errors.Join(eventqueries.ErrScanningRowFailed, scanErr)
		}

		rowCount++
	}

	if iterErr := rows.Err(); iterErr != nil {
		c.logError(ctx, logMsgIterateFailed, iterErr, logAttrOperation, operation)

		return 0, c.queryFailure(ctx, observer, iterErr, time.Since(start))
	}

	duration := time.Since(start)
	observer.success(rowCount, duration)
	c.logOperation(
		ctx,
		logMsgQueryCompleted,
		logAttrOperation, operation,
		logAttrRowCount, rowCount,
		logAttrDurationMS, toMilliseconds(duration),
	)

	return rowCount, nil
}

// queryFailure classifies a failed statement, reports it, and wraps it with the matching sentinels.
func (c Context) queryFailure(ctx context.Context, observer *queryObserver, err error, duration time.Duration) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		observer.failure(errorTypeTimeout, duration)
		return errors.Join(eventqueries.ErrQueryingFailed, context.DeadlineExceeded, err)

	case isConnectionError(err):
		observer.failure(errorTypeConnection, duration)
		return errors.Join(eventqueries.ErrQueryingFailed, eventqueries.ErrConnection, err)

	default:
		observer.failure(errorTypeDatabaseQuery, duration)
		return errors.Join(eventqueries.ErrQueryingFailed, err)
	}
}

// closeRows closes database rows and logs any errors.
func (c Context) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		c.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}
