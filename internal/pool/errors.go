package pool

import (
	"errors"
	"fmt"
)

// ErrPoolNotMapped marks a discovered pool with no entry in an adapter's
// address table. Adapters log it and skip the pool.
var ErrPoolNotMapped = errors.New("pool not mapped")

// ErrorKind classifies why an upstream request failed.
type ErrorKind int

const (
	// SourceUnavailable: upstream unreachable, timed out or returned a bad status.
	SourceUnavailable ErrorKind = iota + 1
	// SourceShapeChanged: expected field, selector or pattern missing.
	SourceShapeChanged
)

func (k ErrorKind) String() string {
	switch k {
	case SourceUnavailable:
		return "source unavailable"
	case SourceShapeChanged:
		return "source shape changed"
	default:
		return "unknown"
	}
}

// RequestError is the single error kind adapters surface to the syncer.
type RequestError struct {
	Exchanger ExchangerType
	URL       string
	Kind      ErrorKind
	Err       error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s (%s): %v", e.Exchanger, e.Kind, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Unavailable wraps a transport-level failure.
func Unavailable(ex ExchangerType, url string, err error) error {
	return &RequestError{Exchanger: ex, URL: url, Kind: SourceUnavailable, Err: err}
}

// ShapeChanged wraps a parse or selector failure.
func ShapeChanged(ex ExchangerType, url string, err error) error {
	return &RequestError{Exchanger: ex, URL: url, Kind: SourceShapeChanged, Err: err}
}

// KindOf returns the RequestError kind found in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
