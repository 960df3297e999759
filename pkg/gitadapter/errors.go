package gitadapter

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNonFastForward = errors.New("non fast-forward")
	ErrRetryExhausted = errors.New("retry exhausted")
	ErrAlreadyExists  = errors.New("already exists")
	ErrUnknownType    = errors.New("unknown adapter type")
	ErrInvalidConfig  = errors.New("invalid adapter configuration")
	ErrMissingContent = errors.New("missing content")
	ErrUnknownTree    = errors.New("unknown tree")
)

// RetryableError is a transient failure (5xx, 429 or a transport error) returned once all
// attempts were used.
type RetryableError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Attempts   int
	Err        error
}

func (e *RetryableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s after %d attempts: %s", e.Method, e.URL, ErrRetryExhausted, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s %s: %s after %d attempts: %d %s: %s",
		e.Method, e.URL, ErrRetryExhausted, e.Attempts, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func (e *RetryableError) Is(target error) bool {
	return target == ErrRetryExhausted
}

// NonRetryableError is a terminal 4xx response other than 429.  Body holds the response text.
type NonRetryableError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func (e *NonRetryableError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// NotFoundError reports a field missing from an otherwise successful response.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, e.What)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NonFastForwardError reports a ref that did not move because its head is not the expected
// parent.
type NonFastForwardError struct {
	Ref      string
	Expected string
	Actual   string
	Body     string
}

func (e *NonFastForwardError) Error() string {
	switch {
	case e.Actual != "":
		return fmt.Sprintf("%s: %s head is %s, expected %s", ErrNonFastForward, e.Ref, e.Actual, e.Expected)
	case e.Body != "":
		return fmt.Sprintf("%s: %s: %s", ErrNonFastForward, e.Ref, e.Body)
	default:
		return fmt.Sprintf("%s: %s", ErrNonFastForward, e.Ref)
	}
}

func (e *NonFastForwardError) Is(target error) bool {
	return target == ErrNonFastForward
}

// AlreadyExistsError carries the provider message rejecting a create.
type AlreadyExistsError struct {
	Name    string
	Message string
}

func (e *AlreadyExistsError) Error() string {
	return e.Message
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// StatusCode returns the HTTP status carried by err, 0 if none.
func StatusCode(err error) int {
	var nonRetryable *NonRetryableError
	if errors.As(err, &nonRetryable) {
		return nonRetryable.StatusCode
	}
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return retryable.StatusCode
	}
	return 0
}
