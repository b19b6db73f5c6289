// SPDX-License-Identifier: AGPL-3.0-only

// Package database is the Postgres store for users, their connected accounts
// and scheduled reports.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("record not found")

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Ping reports whether the underlying connection is reachable.
func (q *Queries) Ping(ctx context.Context) error {
	p, ok := q.db.(interface{ PingContext(context.Context) error })
	if !ok {
		return nil
	}
	return p.PingContext(ctx)
}

// Open connects to dsn, applies pending migrations and returns the queries.
func Open(ctx context.Context, dsn string) (*sql.DB, *Queries, error) {
	if dsn == "" {
		return nil, nil, errors.New("database is not configured")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	version, err := Migrate(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info().Int64("version", version).Msg("Migrations applied")

	return db, New(db), nil
}

// Migrate applies the embedded migrations and returns the schema version.
func Migrate(db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("setting migration dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to get DB version: %w", err)
	}
	return version, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
