package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/eventqueries-go/eventqueries"
	"github.com/AntonStoeckl/eventqueries-go/eventqueries/sqlengine"
)

// Supported drivers.
const (
	DriverPGX      = "pgx"      // postgres through a pgxpool.Pool
	DriverPostgres = "postgres" // postgres through database/sql and lib/pq
	DriverSQLX     = "sqlx"     // postgres through sqlx and lib/pq
	DriverMySQL    = "mysql"
	DriverSQLite3  = "sqlite3"
)

// ConnectionInfo is a validated connection string with the fields that were extracted from it.
type ConnectionInfo struct {
	Driver   string
	Dialect  string
	DSN      string
	Host     string
	Port     int
	Database string
	User     string
	Secure   bool
	Path     string
}

// Redacted describes the target without credentials, for log records.
func (i ConnectionInfo) Redacted() string {
	if i.Dialect == sqlengine.DialectSQLite3 {
		return i.Driver + " " + i.Path
	}

	return fmt.Sprintf("%s %s@%s:%d/%s", i.Driver, i.User, i.Host, i.Port, i.Database)
}

// InferDriver guesses the driver from the shape of dsn. Postgres URLs and key/value strings map to pgx.
func InferDriver(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return DriverPGX
	case strings.Contains(dsn, "@tcp("), strings.Contains(dsn, "@unix("):
		return DriverMySQL
	default:
		return DriverSQLite3
	}
}

// ValidateConnectionString parses dsn for driver. A network store needs host, port, database, user,
// password, and an explicit transport security setting (sslmode for postgres, tls for mysql).
// sqlite3 only needs a path. Failures are reported as eventqueries.ErrConnection.
func ValidateConnectionString(driver, dsn string) (ConnectionInfo, error) {
	switch driver {
	case DriverPGX, DriverPostgres, DriverSQLX:
		return validatePostgres(driver, dsn)
	case DriverMySQL:
		return validateMySQL(dsn)
	case DriverSQLite3:
		return validateSQLite(dsn)
	default:
		return ConnectionInfo{}, errors.Join(eventqueries.ErrConnection, fmt.Errorf("unsupported driver %q", driver))
	}
}

func validatePostgres(driver, dsn string) (ConnectionInfo, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return ConnectionInfo{}, errors.Join(eventqueries.ErrConnection, fmt.Errorf("invalid postgres connection string: %w", err))
	}

	connConfig := poolConfig.ConnConfig
	info := ConnectionInfo{
		Driver:   driver,
		Dialect:  sqlengine.DialectPostgres,
		DSN:      dsn,
		Host:     connConfig.Host,
		Port:     int(connConfig.Port),
		Database: connConfig.Database,
		User:     connConfig.User,
		Secure:   connConfig.TLSConfig != nil,
	}

	explicit := explicitPostgresFields(dsn)

	missing := make([]string, 0)
	for _, field := range []string{"host", "port"} {
		if !explicit[field] {
			missing = append(missing, field)
		}
	}
	if info.Database == "" {
		missing = append(missing, "database")
	}
	if !explicit["user"] {
		missing = append(missing, "user")
	}
	if connConfig.Password == "" {
		missing = append(missing, "password")
	}
	if !strings.Contains(dsn, "sslmode=") {
		missing = append(missing, "sslmode")
	}

	if err = missingFields(missing); err != nil {
		return ConnectionInfo{}, err
	}

	return info, nil
}

var postgresKeyword = regexp.MustCompile(`(?:^|\s)(host|port|user)\s*=\s*[^\s=]`)

// explicitPostgresFields reports which of host, port, and user the dsn sets itself.
// pgx fills them from libpq defaults otherwise.
func explicitPostgresFields(dsn string) map[string]bool {
	explicit := make(map[string]bool, 3)

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return explicit
		}

		explicit["host"] = u.Hostname() != "" || u.Query().Get("host") != ""
		explicit["port"] = u.Port() != "" || u.Query().Get("port") != ""
		explicit["user"] = (u.User != nil && u.User.Username() != "") || u.Query().Get("user") != ""

		return explicit
	}

	for _, match := range postgresKeyword.FindAllStringSubmatch(dsn, -1) {
		explicit[match[1]] = true
	}

	return explicit
}

func validateMySQL(dsn string) (ConnectionInfo, error) {
	mysqlConfig, err := mysql.ParseDSN(dsn)
	if err != nil {
		return ConnectionInfo{}, errors.Join(eventqueries.ErrConnection, fmt.Errorf("invalid mysql connection string: %w", err))
	}

	info := ConnectionInfo{
		Driver:   DriverMySQL,
		Dialect:  sqlengine.DialectMySQL,
		DSN:      dsn,
		Database: mysqlConfig.DBName,
		User:     mysqlConfig.User,
		Secure:   mysqlConfig.TLSConfig != "" && mysqlConfig.TLSConfig != "false",
	}

	missing := make([]string, 0)

	host, port, splitErr := net.SplitHostPort(mysqlConfig.Addr)
	if splitErr != nil || host == "" {
		missing = append(missing, "host")
	} else {
		info.Host = host
		if info.Port, err = strconv.Atoi(port); err != nil {
			missing = append(missing, "port")
		}
	}

	if info.User == "" {
		missing = append(missing, "user")
	}
	if mysqlConfig.Passwd == "" {
		missing = append(missing, "password")
	}
	if info.Database == "" {
		missing = append(missing, "database")
	}
	if mysqlConfig.TLSConfig == "" {
		missing = append(missing, "tls")
	}

	if err = missingFields(missing); err != nil {
		return ConnectionInfo{}, err
	}

	return info, nil
}

func validateSQLite(dsn string) (ConnectionInfo, error) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	if strings.TrimSpace(path) == "" {
		return ConnectionInfo{}, missingFields([]string{"path"})
	}

	return ConnectionInfo{
		Driver:  DriverSQLite3,
		Dialect: sqlengine.DialectSQLite3,
		DSN:     dsn,
		Path:    path,
	}, nil
}

func missingFields(missing []string) error {
	if len(missing) == 0 {
		return nil
	}

	return errors.Join(
		eventqueries.ErrConnection,
		fmt.Errorf("connection string is missing required fields: %s", strings.Join(missing, ", ")),
	)
}
