package shared

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// sqliteDriverName is the sqlite3 driver with Unicode-aware LOWER installed on every connection.
const sqliteDriverName = "sqlite3_cadence"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

// unicodeLower replaces SQLite's built-in LOWER, which only folds ASCII letters.
func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	default:
		return v
	}
}

// NewDatabase opens a connection for the given driver and data source.
//
// For sqlite3 the source is a file path or ":memory:"; foreign key enforcement is always switched on
// so ON DELETE CASCADE constraints fire. An in-memory database is pinned to a single connection
// because every new connection would otherwise see its own empty database.
//
// For mysql the source is a DSN; times are parsed into UTC [time.Time] values.
func NewDatabase(driver, source string) (*sql.DB, error) {
	dsn, err := datasource(driver, source)
	if err != nil {
		return nil, err
	}

	name := driver
	if driver == DriverSQLite {
		name = sqliteDriverName
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite && isMemory(source) {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrStorageUnavailable, err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
//
// In-memory SQLite databases keep their single connection.
func ConfigureDatabase(db *sql.DB, cfg DatabaseConfig) {
	if cfg.Driver == DriverSQLite && isMemory(cfg.Path) {
		return
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
}

// OpenFromConfig opens and configures the database described by cfg.
func OpenFromConfig(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := NewDatabase(cfg.Driver, cfg.Source())
	if err != nil {
		return nil, err
	}
	ConfigureDatabase(db, cfg)
	return db, nil
}

func datasource(driver, source string) (string, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDSN(source), nil
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(source)
		if err != nil {
			return "", fmt.Errorf("%w: bad mysql dsn: %w", ErrInvalidConfig, err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		cfg.MultiStatements = false
		return cfg.FormatDSN(), nil
	default:
		return "", fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, driver)
	}
}

func sqliteDSN(path string) string {
	params := "_foreign_keys=on&_busy_timeout=5000&_loc=UTC"
	if isMemory(path) {
		return "file::memory:?" + params
	}
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return "file:" + path + "?" + params
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
