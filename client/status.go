package client

import (
	"fmt"
	"ftp-lab/domain"
	"ftp-lab/errors"
)

// StatusError is a server reply that did not report success.
type StatusError struct {
	Status  domain.StatusCode
	Message string
}

func newStatusError(resp domain.Response) *StatusError {
	msg := resp.Message
	switch {
	case !resp.Status.Known():
		msg = fmt.Sprintf("unknown status (%s)", msg)
	case msg == "":
		msg = resp.Status.Message()
	}
	return &StatusError{Status: resp.Status, Message: msg}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// Unwrap maps the status onto the error taxonomy so callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case domain.StatusAuthFailed:
		return errors.ErrInvalidCredentials
	case domain.StatusAuthRequired:
		return errors.ErrNotAuthenticated
	case domain.StatusNotFound, domain.StatusDirNotFound:
		return errors.ErrNotFound
	case domain.StatusPermissionDenied:
		return errors.ErrPathRejected
	case domain.StatusMkdirExists:
		return errors.ErrAlreadyExists
	case domain.StatusMkdirIllegal:
		return errors.ErrIllegalName
	case domain.StatusDeleteFailed:
		return errors.ErrNotEmpty
	case domain.StatusUnsupported:
		return errors.ErrUnsupportedCommand
	default:
		return errors.ErrUnexpectedStatus
	}
}
