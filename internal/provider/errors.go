package provider

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// KindTransient covers timeouts, rate limits and 5xx responses. Adapters
	// retry these a bounded number of times before surfacing them.
	KindTransient ErrorKind = "transient"
	// KindPermanent covers auth failures, exhausted quotas and malformed
	// requests. Never retried.
	KindPermanent ErrorKind = "permanent"
)

type Error struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}

	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Transient(providerID string, status int, err error) *Error {
	return &Error{Provider: providerID, Kind: KindTransient, Status: status, Err: err}
}

func Permanent(providerID string, status int, err error) *Error {
	return &Error{Provider: providerID, Kind: KindPermanent, Status: status, Err: err}
}

func IsTransient(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindTransient
}

// transientStatus reports whether an HTTP status is worth retrying.
func transientStatus(status int) bool {
	return status == 408 || status == 429 || (status >= 500 && status <= 599)
}
