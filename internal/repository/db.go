package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the part of *pgxpool.Pool the repositories use.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownCategory = errors.New("unknown category")
)

// Persistence stages reported by PersistenceError.
const (
	StageBegin          = "begin"
	StageInsertDocument = "insert document"
	StageInsertLineItem = "insert line item"
	StageCommit         = "commit"
)

// PersistenceError reports a failed document write. No id is returned with it.
type PersistenceError struct {
	Stage string
	// Index is the line item position for StageInsertLineItem.
	Index int
	Err   error
}

func (e *PersistenceError) Error() string {
	if e.Stage == StageInsertLineItem {
		return fmt.Sprintf("persist document: %s %d: %v", e.Stage, e.Index, e.Err)
	}
	return fmt.Sprintf("persist document: %s: %v", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

const pgForeignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
