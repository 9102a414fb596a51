// Package sqlstore keeps the collections in a SQL database: SQLite for local
// development and tests, Postgres for a self-hosted deployment.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/Zachkp/folio/internal/store"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driver() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// sqliteTime is fixed width so that text ordering matches time ordering.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

type DB struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects and pings the database.
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	db, err := sql.Open(dialect.driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// one writer; also keeps a ":memory:" database alive across calls
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return New(db, dialect), nil
}

// New wraps an already opened handle.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect, now: time.Now}
}

func (d *DB) Close() error {
	return d.db.Close()
}

// rebind turns ? placeholders into $n for Postgres.
func (d *DB) rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) timeArg(t time.Time) any {
	t = t.UTC()
	if d.dialect == SQLite {
		return t.Format(sqliteTime)
	}
	return t
}

func (d *DB) schema() []string {
	ts, tech := "TEXT", "TEXT NOT NULL DEFAULT '[]'"
	if d.dialect == Postgres {
		ts, tech = "TIMESTAMPTZ", "JSONB NOT NULL DEFAULT '[]'::jsonb"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			technologies ` + tech + `,
			github TEXT NOT NULL DEFAULT '',
			live_demo TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS projects_created_at_idx ON projects (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS contact_messages (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
	}
}

// Migrate creates both collections. Running it again is a no-op.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range d.schema() {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	log.Printf("[store] %s schema ready", d.dialect)
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	var id string
	err := d.db.QueryRowContext(ctx, `SELECT id FROM projects LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

func (d *DB) Projects() *ProjectRepo { return &ProjectRepo{d: d} }

func (d *DB) Messages() *MessageRepo { return &MessageRepo{d: d} }

func (d *DB) Backend() *store.Backend {
	return store.NewBackend(string(d.dialect), d.Projects(), d.Messages(), d, d.Close)
}
