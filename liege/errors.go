package liege

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrConnection matches every ConnectionError via errors.Is
	ErrConnection = errors.New("open data platform connection error")
	// ErrData matches every DataError via errors.Is
	ErrData = errors.New("open data platform data error")
	// ErrClientClosed indicates a request on a client whose session was released
	ErrClientClosed = errors.New("client is closed")
)

const (
	msgTimeout       = "timeout occurred while connecting to the Open Data Platform API"
	msgCommunication = "error occurred while communicating with the Open Data Platform API"
	msgContentType   = "unexpected content type response from the Open Data Platform API"
)

// ConnectionError reports a failure to obtain a successful response: a timeout,
// a transport failure or a non-success HTTP status.
type ConnectionError struct {
	Message    string
	StatusCode int
	Timeout    bool
	Err        error
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrConnection) true for any ConnectionError
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// IsTimeout reports whether the request deadline fired
func (e *ConnectionError) IsTimeout() bool {
	return e.Timeout
}

// DataError reports a response or record that could not be turned into typed data.
type DataError struct {
	Message     string
	ContentType string
	Response    string
	Field       string
	Err         error
}

// Error implements the error interface
func (e *DataError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: field %q", msg, e.Field)
	}
	if e.ContentType != "" {
		msg = fmt.Sprintf("%s (Content-Type: %s)", msg, e.ContentType)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *DataError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrData) true for any DataError
func (e *DataError) Is(target error) bool {
	return target == ErrData
}

func fieldError(field, reason string, err error) *DataError {
	return &DataError{
		Message: reason,
		Field:   field,
		Err:     err,
	}
}
