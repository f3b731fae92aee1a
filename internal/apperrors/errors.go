package apperrors

import "fmt"

// ErrStoreUnavailable is returned when the backing key-value store cannot serve an operation
// (connection refused, timeout, wrong value type, ...). The core never retries it.
type ErrStoreUnavailable struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *ErrStoreUnavailable) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %q failed: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

// Is allows for error checking with errors.Is().
func (e *ErrStoreUnavailable) Is(target error) bool {
	_, ok := target.(*ErrStoreUnavailable)
	return ok
}

// Unwrap returns the backend error.
func (e *ErrStoreUnavailable) Unwrap() error {
	return e.Err
}

// NewStoreUnavailableError creates a new ErrStoreUnavailable.
func NewStoreUnavailableError(op, key string, err error) *ErrStoreUnavailable {
	return &ErrStoreUnavailable{Op: op, Key: key, Err: err}
}

// ErrDecode is returned when a decode function rejects the raw bytes stored under a key.
type ErrDecode struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *ErrDecode) Error() string {
	return fmt.Sprintf("failed to decode value at key %q: %v", e.Key, e.Err)
}

// Is allows for error checking with errors.Is().
func (e *ErrDecode) Is(target error) bool {
	_, ok := target.(*ErrDecode)
	return ok
}

// Unwrap returns the decoder error.
func (e *ErrDecode) Unwrap() error {
	return e.Err
}

// ErrMalformedHistoryEntry is returned by replay when a recorded input entry cannot be
// deserialized back into call arguments.
type ErrMalformedHistoryEntry struct {
	Operation string
	Index     int
	Err       error
}

// Error implements the error interface.
func (e *ErrMalformedHistoryEntry) Error() string {
	return fmt.Sprintf("malformed history entry %d for %s: %v", e.Index, e.Operation, e.Err)
}

// Is allows for error checking with errors.Is().
func (e *ErrMalformedHistoryEntry) Is(target error) bool {
	_, ok := target.(*ErrMalformedHistoryEntry)
	return ok
}

// Unwrap returns the parse error.
func (e *ErrMalformedHistoryEntry) Unwrap() error {
	return e.Err
}

// ErrFetch is returned when the external fetch collaborator fails.
// The collaborator's error stays reachable through errors.Is / errors.As.
type ErrFetch struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *ErrFetch) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

// Is allows for error checking with errors.Is().
func (e *ErrFetch) Is(target error) bool {
	_, ok := target.(*ErrFetch)
	return ok
}

// Unwrap returns the collaborator error.
func (e *ErrFetch) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus is returned when a remote resource answers with a non-2xx status code.
type ErrHTTPStatus struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *ErrHTTPStatus) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Is allows for error checking with errors.Is().
func (e *ErrHTTPStatus) Is(target error) bool {
	_, ok := target.(*ErrHTTPStatus)
	return ok
}

// ErrUnsupportedValue is returned when a value outside the supported scalar types is stored.
type ErrUnsupportedValue struct {
	Type string
}

// Error implements the error interface.
func (e *ErrUnsupportedValue) Error() string {
	return fmt.Sprintf("unsupported value type %s: expected string, []byte, integer or float", e.Type)
}

// Is allows for error checking with errors.Is().
func (e *ErrUnsupportedValue) Is(target error) bool {
	_, ok := target.(*ErrUnsupportedValue)
	return ok
}
