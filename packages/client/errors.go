package client

import (
	"fmt"
)

// Budget names the timeout budget that was exceeded.
type Budget string

const (
	// BudgetConnect bounds connection establishment.
	BudgetConnect Budget = "connect"
	// BudgetInactivity bounds the gap between two received data chunks.
	BudgetInactivity Budget = "inactivity"
	// BudgetTotal bounds the whole call from submission to completion.
	BudgetTotal Budget = "total"
)

// TransportError reports a DNS, connection, or socket failure. It wraps the
// underlying error.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a timeout.
func (e *TransportError) Timeout() bool {
	return false
}

// TimeoutError reports that one of the three timeout budgets was exceeded.
// It unwraps to a TransportError, so errors.As matches both types.
type TimeoutError struct {
	Budget Budget
	cause  *TransportError
}

func newTimeoutError(budget Budget, op, url string, err error) *TimeoutError {
	return &TimeoutError{
		Budget: budget,
		cause:  &TransportError{Op: op, URL: url, Err: err},
	}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timeout exceeded: %v", e.Budget, e.cause)
}

func (e *TimeoutError) Unwrap() error {
	return e.cause
}

func (e *TimeoutError) Timeout() bool {
	return true
}

// StatusError reports an HTTP status the caller chose to treat as failure.
// The core never produces it on its own; see FailOnStatus.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.URL, e.Status)
}
