package minterr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	KindOutOfRange        Kind = "out_of_range"
	KindNotFound          Kind = "not_found"
	KindMalformedMetadata Kind = "malformed_metadata"
	KindStorage           Kind = "storage_error"
	KindTransientNetwork  Kind = "transient_network_error"
	KindAuth              Kind = "auth_error"
	KindUploadRejected    Kind = "upload_rejected"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindRejectedByLedger  Kind = "rejected_by_ledger"
	KindCapacityExceeded  Kind = "capacity_exceeded"
	KindInvalidConfig     Kind = "invalid_config"
)

// NoID marks an error that is not tied to a specific item.
const NoID = -1

type Error struct {
	Kind Kind
	Op   string
	ID   int
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "mint error"
	}
	var builder strings.Builder
	if e.Op != "" {
		builder.WriteString(e.Op)
	}
	if e.ID >= 0 {
		if builder.Len() > 0 {
			builder.WriteString(" ")
		}
		fmt.Fprintf(&builder, "id=%d", e.ID)
	}
	if builder.Len() > 0 {
		builder.WriteString(": ")
	}
	builder.WriteString(string(e.Kind))
	if e.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Err.Error())
	}
	return builder.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates an error of the given kind that is not tied to an item.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: NoID, Err: err}
}

// Newf creates an error of the given kind with a formatted cause.
func Newf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, ID: NoID, Err: fmt.Errorf(format, args...)}
}

// ForItem creates an error of the given kind for item id.
func ForItem(kind Kind, op string, id int, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}

// WithItem attaches an item id to err while preserving its kind. Errors that
// carry no kind are reported as storage errors.
func WithItem(err error, op string, id int) error {
	if err == nil {
		return nil
	}
	kind, ok := KindOf(err)
	if !ok {
		kind = KindStorage
	}
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	found, ok := KindOf(err)
	return ok && found == kind
}

// IsRetryable reports whether a bounded retry of the failed call may succeed.
func IsRetryable(err error) bool {
	return Is(err, KindTransientNetwork)
}

// FromHTTPStatus maps a non-2xx upload response status onto a kind.
func FromHTTPStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusRequestTimeout,
		status == http.StatusTooEarly,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return KindTransientNetwork
	default:
		return KindUploadRejected
	}
}
