package httpx

import (
	"errors"
	"fmt"
)

var (
	// ErrResponseStarted is returned by any attempt to mutate the status,
	// headers or declared length, or to register a starting callback, once
	// the status line has been committed to the transport.
	ErrResponseStarted = errors.New("httpx: response has already started")
	// ErrResponseCompleted is returned by writes and registrations that
	// arrive after the exchange finished.
	ErrResponseCompleted = errors.New("httpx: response has already completed")
	// ErrExchangeAborted is returned by writes issued after the exchange
	// faulted (framing violation or transport failure).
	ErrExchangeAborted = errors.New("httpx: exchange aborted")
)

// ContentLengthError reports a mismatch between the declared Content-Length
// and the bytes the handler actually wrote. Over-length mismatches are
// raised at the moment of the overrunning write; under-length ones only
// when the exchange finalizes.
type ContentLengthError struct {
	Declared int64
	Written  int64
	Over     bool
}

func (e *ContentLengthError) Error() string {
	if e.Over {
		return fmt.Sprintf("Response Content-Length mismatch: too many bytes written (%d of %d).", e.Written, e.Declared)
	}
	return fmt.Sprintf("Response Content-Length mismatch: too few bytes written (%d of %d).", e.Written, e.Declared)
}
