package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"
)

// ErrNoAuth is returned when no authentication is stored
var ErrNoAuth = errors.New("no authentication stored")

// ErrRideNotFound is returned when a ride doesn't exist
var ErrRideNotFound = errors.New("ride not found")

// ErrSnapshotNotFound is returned when no snapshot exists for a date
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the ride store: rides, fitness snapshots, Strava tokens and sync state
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database, creating the sqlite file if necessary, and runs migrations
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case "", DriverSQLite:
		driver = DriverSQLite
		if dsn != ":memory:" {
			// Ensure directory exists
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite serialises writers; one connection also keeps :memory: databases alive
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting busy timeout: %w", err)
		}
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database driver name
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks the connection, for health endpoints
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// q rebinds a query written with ? placeholders for the active driver
func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// now is the timestamp written to created_at/updated_at columns
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
