// Package audit persists a record of every answered query to SQLite,
// so a running ecosystem has a queryable history without tailing log
// files. Grounded on the teacher's database.DB (WAL-mode sqlite +
// golang-migrate over an embedded iofs source), scaled down to the one
// table this ecosystem actually needs.
package audit

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Log is a SQLite-backed query log.
type Log struct {
	conn *sql.DB
}

// Open opens or creates a SQLite database at path and brings its
// schema up to date.
func Open(path string) (*Log, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}

	l := &Log{conn: conn}
	if err := l.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	return l, nil
}

func (l *Log) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	dbDriver, err := sqlite.WithInstance(l.conn, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", dbDriver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	return l.conn.Close()
}

// Record appends one answered query. Failures are returned to the
// caller rather than swallowed: unlike request handling, audit writes
// are not on the hot path and a caller may want to know its log is
// broken.
func (l *Log) Record(serverKey, requestedName string, rcode int) error {
	_, err := l.conn.Exec(
		`INSERT INTO queries (server_key, requested_name, rcode, observed_at) VALUES (?, ?, ?, ?)`,
		serverKey, requestedName, rcode, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("audit: record: %w", err)
	}
	return nil
}

// CountByName returns how many times name has been recorded, for
// tests and simple diagnostics.
func (l *Log) CountByName(name string) (int, error) {
	var n int
	err := l.conn.QueryRow(`SELECT COUNT(*) FROM queries WHERE requested_name = ?`, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("audit: count: %w", err)
	}
	return n, nil
}
