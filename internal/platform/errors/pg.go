package errors

// pgx error classification for the layout catalog

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgUndefinedTable      = "42P01"

	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgCannotConnectNow     = "57P03"
	pgAdminShutdown        = "57P01"
)

// PgError returns the root *pgconn.PgError, if any
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether err is a Postgres error with SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := PgError(err)
	return ok && pgErr.Code == code
}

// IsDuplicateKey reports a unique violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, pgUniqueViolation) }

// pgCode maps a SQLSTATE to an ErrorCode
func pgCode(err error) (ErrorCode, bool) {
	pgErr, ok := PgError(err)
	if !ok {
		return ErrorCodeDB, false
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ErrorCodeConflict, true
	case pgForeignKeyViolation, pgNotNullViolation, pgCheckViolation:
		return ErrorCodeInvalidArgument, true
	case pgUndefinedTable:
		return ErrorCodeNotFound, true
	case pgCannotConnectNow, pgAdminShutdown:
		return ErrorCodeUnavailable, true
	default:
		return ErrorCodeDB, true
	}
}

// FromPG wraps a pgx error with a mapped code; nil stays nil
func FromPG(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, _ := pgCode(err)
	e := &Error{code: code, msg: msg, orig: err}
	if pgErr, ok := PgError(err); ok && pgErr.ColumnName != "" {
		e.field = pgErr.ColumnName
	}
	return e
}

// FromPGf is FromPG with formatting
func FromPGf(err error, format string, a ...any) error {
	return FromPG(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports transient contention; caller cancellations never retry
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	root := Root(err)
	if pgErr, ok := PgError(root); ok {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgCannotConnectNow:
			return true
		}
		return false
	}
	s := strings.ToLower(root.Error())
	for _, frag := range []string{
		"commit unexpectedly resulted in rollback",
		"deadlock detected",
		"could not serialize access",
		"terminating connection due to administrator command",
	} {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}
