package sqlengine

import (
	"database/sql/driver"
	"errors"
	"net"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"   // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite3  = "sqlite3"
)

// IsSupportedDialect reports whether statements can be rendered for the dialect.
func IsSupportedDialect(dialect string) bool {
	switch dialect {
	case DialectPostgres, DialectMySQL, DialectSQLite3:
		return true
	default:
		return false
	}
}

// dateTimeColumn combines a DATE column and a TIME column into one aliased date-time column.
// postgres adds them, mysql has TIMESTAMP(date, time), and sqlite3 stores both as text,
// so joining them with a blank yields a parseable date-time.
func dateTimeColumn(dialect string, date, clock exp.IdentifierExpression, alias string) exp.AliasedExpression {
	switch dialect {
	case DialectMySQL:
		return goqu.Func("TIMESTAMP", date, clock).As(alias)
	case DialectSQLite3:
		return goqu.L("? || ' ' || ?", date, clock).As(alias)
	default:
		return goqu.L("? + ?", date, clock).As(alias)
	}
}

// isConnectionError reports whether err means the store could not be reached at all,
// as opposed to a statement the store rejected.
func isConnectionError(err error) bool {
	var connectErr *pgconn.ConnectError
	var netErr *net.OpError

	return errors.As(err, &connectErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn)
}
