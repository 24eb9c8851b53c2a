package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrUnavailable         = errors.New("store unavailable")
)

// Postgres SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Error is a classified store failure. It matches its Kind with errors.Is
// and keeps the driver error reachable through Unwrap.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Kind.Error() + ": " + e.Detail
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Classify maps driver errors from writes and reads onto the store taxonomy.
// Errors it does not recognise are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Kind: ErrNotFound, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &Error{Kind: ErrUniqueViolation, Detail: pgDetail(pgErr), Err: err}
		case pgForeignKeyViolation:
			return &Error{Kind: ErrForeignKeyViolation, Detail: pgDetail(pgErr), Err: err}
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if kind := sqliteKind(liteErr); kind != nil {
			return &Error{Kind: kind, Detail: sqliteDetail(liteErr.Error()), Err: err}
		}
		if code := liteErr.Code(); code&0xff == sqlite3.SQLITE_BUSY || code&0xff == sqlite3.SQLITE_CANTOPEN {
			return &Error{Kind: ErrUnavailable, Err: err}
		}
		return err
	}

	if unavailable(err) {
		return &Error{Kind: ErrUnavailable, Err: err}
	}
	return err
}

// ClassifyDelete is Classify for deletes: a foreign key failure there means
// other rows still reference the target.
func ClassifyDelete(err error) error {
	err = Classify(err)
	var classified *Error
	if errors.As(err, &classified) && classified.Kind == ErrForeignKeyViolation {
		return &Error{Kind: ErrConstraintViolation, Detail: "row is still referenced", Err: classified.Err}
	}
	return err
}

func sqliteKind(e *sqlite.Error) error {
	switch e.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return ErrUniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ErrForeignKeyViolation
	}
	if e.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return nil
	}
	msg := e.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ErrUniqueViolation
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrForeignKeyViolation
	}
	return nil
}

// sqliteDetail extracts "users.email" from "... UNIQUE constraint failed: users.email (2067)".
func sqliteDetail(msg string) string {
	i := strings.LastIndex(msg, "constraint failed")
	if i < 0 {
		return ""
	}
	rest := strings.TrimPrefix(msg[i+len("constraint failed"):], ":")
	if j := strings.LastIndex(rest, " ("); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

func pgDetail(e *pgconn.PgError) string {
	if e.ConstraintName != "" {
		return e.ConstraintName
	}
	return e.Detail
}

func unavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// database/sql does not export its closed-pool error.
	if err.Error() == "sql: database is closed" {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
