// Package errors defines the sentinel errors of the attendance context.
package errors

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrAlreadyClockedIn = errors.New("an open attendance record already exists")
	ErrNotClockedIn     = errors.New("no open attendance record")
	ErrRecordNotFound   = errors.New("attendance record not found")
	ErrDurationTooLong  = errors.New("attendance duration exceeds 24 hours")
	ErrForbidden        = errors.New("operation not permitted")
)
