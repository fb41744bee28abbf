package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Session protocol
	ErrFrameTooLarge       = fmt.Errorf("message exceeds frame capacity")
	ErrMalformedFrame      = fmt.Errorf("malformed frame")
	ErrConnectionLost      = fmt.Errorf("connection lost")
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrUnexpectedStatus    = fmt.Errorf("unexpected status code")
	ErrUnsupportedCommand  = fmt.Errorf("unsupported command")
	ErrTooManyAuthAttempts = fmt.Errorf("too many authentication attempts")

	// Accounts
	ErrInvalidCredentials = fmt.Errorf("wrong username or password")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrInvalidAccount     = fmt.Errorf("invalid account")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")

	// Filesystem and sandbox
	ErrPathRejected  = fmt.Errorf("path escapes home directory")
	ErrNotFound      = fmt.Errorf("file or directory not found")
	ErrIllegalName   = fmt.Errorf("illegal name")
	ErrAlreadyExists = fmt.Errorf("already exists")
	ErrNotEmpty      = fmt.Errorf("directory not empty")

	// Transfers and ledger
	ErrSizeMismatch       = fmt.Errorf("remote file size differs from recorded size")
	ErrInconsistentLedger = fmt.Errorf("transfer ledger is inconsistent with disk")
	ErrLedgerEntryMissing = fmt.Errorf("no ledger entry for destination")
)

// Is and As forward to the standard library so callers only need this package.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
