package store

import (
	"errors"
	"fmt"
)

// Error is the failure type returned by every store operation.
//
// Errors carry a code so callers can branch without string matching:
// ErrCodeIDDoesNotExist maps to not-found semantics upstream,
// ErrCodeColumnParse marks stored data that no longer decodes, and the
// remaining codes wrap database failures from a specific phase of an
// operation. Any error aborts the enclosing transaction; nothing is
// retried internally.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// ID is the missing identifier for ErrCodeIDDoesNotExist.
	ID string

	// Column is the undecodable column for ErrCodeColumnParse.
	Column string

	// Err is the underlying database error for the wrapped codes.
	Err error
}

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeIDDoesNotExist indicates a referenced or targeted id has no row.
	ErrCodeIDDoesNotExist ErrorCode = "ID_DOES_NOT_EXIST"

	// ErrCodeColumnParse indicates a stored column could not be decoded
	// back into its domain value.
	ErrCodeColumnParse ErrorCode = "COLUMN_PARSE"

	// ErrCodeInsertion indicates a bulk insert failed.
	ErrCodeInsertion ErrorCode = "INSERTION_FAILED"

	// ErrCodeUpdate indicates a bulk update failed.
	ErrCodeUpdate ErrorCode = "UPDATE_FAILED"

	// ErrCodeDelete indicates a delete failed.
	ErrCodeDelete ErrorCode = "DELETE_FAILED"

	// ErrCodeFetch indicates a read failed.
	ErrCodeFetch ErrorCode = "FETCH_FAILED"

	// ErrCodeCheckExists indicates the existence validator's query failed.
	ErrCodeCheckExists ErrorCode = "CHECK_EXISTS_FAILED"

	// ErrCodeTransactionStart indicates the transaction could not begin.
	ErrCodeTransactionStart ErrorCode = "TRANSACTION_START_FAILED"

	// ErrCodeTransactionCommit indicates the transaction could not commit.
	ErrCodeTransactionCommit ErrorCode = "TRANSACTION_COMMIT_FAILED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeIDDoesNotExist:
		return fmt.Sprintf("id %s does not exist", e.ID)
	case ErrCodeColumnParse:
		return fmt.Sprintf("unable to parse column %s", e.Column)
	case ErrCodeInsertion:
		return fmt.Sprintf("error inserting new item into data store: %v", e.Err)
	case ErrCodeUpdate:
		return fmt.Sprintf("error updating item: %v", e.Err)
	case ErrCodeDelete:
		return fmt.Sprintf("error deleting item from database: %v", e.Err)
	case ErrCodeFetch:
		return fmt.Sprintf("error fetching item from database: %v", e.Err)
	case ErrCodeCheckExists:
		return fmt.Sprintf("error checking item existence in database: %v", e.Err)
	case ErrCodeTransactionStart:
		return fmt.Sprintf("transaction failed to start: %v", e.Err)
	case ErrCodeTransactionCommit:
		return fmt.Sprintf("transaction failed to commit: %v", e.Err)
	}
	return string(e.Code)
}

// Unwrap returns the underlying database error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsIDDoesNotExist returns true if the error is a missing-id error.
// Uses errors.As to handle wrapped errors.
func IsIDDoesNotExist(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeIDDoesNotExist
	}
	return false
}

// IsColumnParse returns true if the error is a column decode error.
// Uses errors.As to handle wrapped errors.
func IsColumnParse(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeColumnParse
	}
	return false
}

// ErrorCodeOf returns the code of the store Error in err's chain, or the
// empty string when err has no store Error.
func ErrorCodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// NewIDDoesNotExistError creates an Error for a missing id.
func NewIDDoesNotExistError(id string) *Error {
	return &Error{Code: ErrCodeIDDoesNotExist, ID: id}
}

// NewColumnParseError creates an Error for an undecodable column.
func NewColumnParseError(column string) *Error {
	return &Error{Code: ErrCodeColumnParse, Column: column}
}

// NewInsertionError wraps a failed insert.
func NewInsertionError(err error) *Error {
	return &Error{Code: ErrCodeInsertion, Err: err}
}

// NewUpdateError wraps a failed update.
func NewUpdateError(err error) *Error {
	return &Error{Code: ErrCodeUpdate, Err: err}
}

// NewDeleteError wraps a failed delete.
func NewDeleteError(err error) *Error {
	return &Error{Code: ErrCodeDelete, Err: err}
}

// NewFetchError wraps a failed read.
func NewFetchError(err error) *Error {
	return &Error{Code: ErrCodeFetch, Err: err}
}

// NewCheckExistsError wraps a failed existence check.
func NewCheckExistsError(err error) *Error {
	return &Error{Code: ErrCodeCheckExists, Err: err}
}

// NewTransactionStartError wraps a failed transaction begin.
func NewTransactionStartError(err error) *Error {
	return &Error{Code: ErrCodeTransactionStart, Err: err}
}

// NewTransactionCommitError wraps a failed transaction commit.
func NewTransactionCommitError(err error) *Error {
	return &Error{Code: ErrCodeTransactionCommit, Err: err}
}
