package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"ir-chat/internal/config"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// DB wraps the relational store. For sqlite a single connection guarded by
// a mutex avoids writer contention; postgres uses the pool as-is.
type DB struct {
	db     *sql.DB
	driver string
	mutex  sync.Mutex
}

// Open connects to the database described by the configuration.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	var (
		sqlDB  *sql.DB
		driver string
		err    error
	)

	switch cfg.Driver {
	case "sqlite", "sqlite3":
		driver = driverSQLite
		dsn := cfg.Path + "?_journal_mode=WAL&_foreign_keys=on"
		sqlDB, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	case "postgres":
		driver = driverPostgres
		connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		sqlDB, err = sql.Open("postgres", connStr)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{db: sqlDB, driver: driver}, nil
}

// NewSQLite opens a sqlite database at the given path. Used by tests and
// the default single-binary deployment.
func NewSQLite(path string) (*DB, error) {
	return Open(config.DatabaseConfig{Driver: "sqlite", Path: path})
}

// lock serializes access on sqlite; a no-op on postgres.
func (d *DB) lock() func() {
	if d.driver != driverSQLite {
		return func() {}
	}
	d.mutex.Lock()
	return d.mutex.Unlock
}

// WithLock executes a function with exclusive database access
func (d *DB) WithLock(fn func() error) error {
	defer d.lock()()
	return fn()
}

// WithLockResult executes a function with exclusive database access and returns a result
func WithLockResult[T any](d *DB, fn func() (T, error)) (T, error) {
	defer d.lock()()
	return fn()
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres. Queries in this
// package are written with ? and rebound per driver.
func (d *DB) rebind(query string) string {
	if d.driver != driverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertRow runs an INSERT and returns the generated id, papering over the
// drivers' disagreement about LastInsertId.
func (d *DB) insertRow(query string, args ...any) (int64, error) {
	if d.driver == driverPostgres {
		var id int64
		err := d.db.QueryRow(d.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	result, err := d.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// tableExists checks if a table exists in the database
func (d *DB) tableExists(tableName string) (bool, error) {
	return WithLockResult(d, func() (bool, error) {
		var query string
		switch d.driver {
		case driverPostgres:
			query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = $1"
		default:
			query = "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
		}

		var count int
		if err := d.db.QueryRow(query, tableName).Scan(&count); err != nil {
			return false, err
		}
		return count > 0, nil
	})
}
