package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schemaSQL string

// Uniqueness violations surfaced by the store.
var (
	ErrMatchExists    = errors.New("match id already stored")
	ErrGroupingExists = errors.New("grouping number already stored")
	ErrNameExists     = errors.New("name already belongs to a player")
	ErrHandleExists   = errors.New("handle already linked")
	ErrAliasExists    = errors.New("alias already registered")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every statement that may run either directly on the
// database or inside a transaction.
type queries struct {
	q querier
}

// DB wraps a sql.DB for the stats store.
type DB struct {
	queries
	conn *sql.DB
}

// Tx is an open write transaction. It exposes the same query methods as DB.
type Tx struct {
	queries
	tx *sql.Tx
}

// Open opens (or creates) the SQLite database at the given path and applies the schema.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows one writer; an in-memory database also only exists on
	// the connection that created it.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{queries: queries{q: conn}, conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// WithTx runs fn inside a transaction, committing only if fn returns nil.
// fn must not call methods on db itself: the pool holds a single connection.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{queries: queries{q: sqlTx}, tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// uniqueColumn reports the "table.column" named by a UNIQUE or PRIMARY KEY
// constraint failure.
func uniqueColumn(err error) (string, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return "", false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
	default:
		return "", false
	}
	msg := se.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return "", false
	}
	if i := strings.LastIndex(msg, "failed: "); i >= 0 {
		col := msg[i+len("failed: "):]
		if j := strings.IndexAny(col, " ,)"); j >= 0 {
			col = col[:j]
		}
		return col, true
	}
	return "", false
}

// mapUnique translates a constraint failure into one of the sentinel errors.
func mapUnique(err error) error {
	col, ok := uniqueColumn(err)
	if !ok {
		return err
	}
	switch col {
	case "matches.match_id":
		return fmt.Errorf("%w: %v", ErrMatchExists, err)
	case "matches.grouping_num":
		return fmt.Errorf("%w: %v", ErrGroupingExists, err)
	case "players.name_key":
		return fmt.Errorf("%w: %v", ErrNameExists, err)
	case "players.external_handle":
		return fmt.Errorf("%w: %v", ErrHandleExists, err)
	case "player_aliases.alias_key":
		return fmt.Errorf("%w: %v", ErrAliasExists, err)
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
