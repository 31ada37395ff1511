package eventqueries

import "errors"

// ErrConnection is returned when the store is unreachable, rejects the credentials, or the connection
// configuration is incomplete.
var ErrConnection = errors.New("database connection failed")

// ErrEmptySet is returned when an aggregate like Min or Max is evaluated over zero rows.
var ErrEmptySet = errors.New("sequence contains no elements")

// ErrTranslation is returned when a query construct cannot be translated into SQL for the selected dialect.
var ErrTranslation = errors.New("query could not be translated to sql")

var ErrNilDatabaseConnection = errors.New("database connection is nil")
var ErrEmptyTableName = errors.New("empty table name supplied")
var ErrInvalidLimit = errors.New("limit must not be negative")
var ErrBuildingQueryFailed = errors.New("building the sql query failed")
var ErrQueryingFailed = errors.New("querying the database failed")
var ErrScanningRowFailed = errors.New("scanning a database row failed")
var ErrInvalidCalendarDate = errors.New("invalid calendar date")
var ErrInvalidTimeOfDay = errors.New("invalid time of day")
