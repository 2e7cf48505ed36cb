package httpx

import (
	"bufio"
	"errors"
	"strconv"
	"strings"

	"github.com/PeggyMercyPrescott/KestrelHttpServer/httpx/internal/http1"
	"github.com/PeggyMercyPrescott/KestrelHttpServer/internal/obs"
)

// ResponseWriter is the application-facing response surface. Status,
// headers and declared length stay mutable until the first byte is
// committed; after that every mutator fails with ErrResponseStarted.
//
// OnStarting callbacks run immediately after the status line and headers
// are serialized, before any body byte follows; OnCompleted callbacks run
// when the exchange ends, whether or not the response ever started and
// whether or not the handler failed.
type ResponseWriter interface {
	Header() *Header
	WriteHeader(status int) error
	SetContentLength(n int64) error
	OnStarting(func() error) error
	OnCompleted(func() error) error
	Write([]byte) (int, error)
}

// responseState is the exchange's position in NotStarted -> Started ->
// Completed. An orthogonal faulted flag may be raised in either of the
// first two states.
type responseState int

const (
	stateNotStarted responseState = iota
	stateStarted
	stateCompleted
)

// bodyEncoder is the wire delimiting strategy, chosen once per exchange
// when the response starts.
type bodyEncoder interface {
	writeBody(bw *bufio.Writer, p []byte) (int, error)
	finish(bw *bufio.Writer) error
}

// identityEncoder writes body bytes as-is; the Content-Length header
// delimits the message.
type identityEncoder struct{}

func (identityEncoder) writeBody(bw *bufio.Writer, p []byte) (int, error) { return bw.Write(p) }
func (identityEncoder) finish(*bufio.Writer) error                        { return nil }

// chunkedEncoder frames each write as one chunk and ends the body with the
// zero-length chunk. Chunks are flushed as they are written so clients can
// stream.
type chunkedEncoder struct{}

func (chunkedEncoder) writeBody(bw *bufio.Writer, p []byte) (int, error) {
	n, err := http1.WriteChunk(bw, p)
	if err != nil {
		return n, err
	}
	return n, bw.Flush()
}

func (chunkedEncoder) finish(bw *bufio.Writer) error { return http1.EndChunked(bw) }

// discardEncoder swallows body bytes: HEAD responses and no-body statuses.
type discardEncoder struct{}

func (discardEncoder) writeBody(_ *bufio.Writer, p []byte) (int, error) { return len(p), nil }
func (discardEncoder) finish(*bufio.Writer) error                       { return nil }

// responseWriter drives one exchange's response onto a buffered transport
// writer. It is owned by the single goroutine serving the exchange and is
// not safe for concurrent use.
type responseWriter struct {
	bw        *bufio.Writer
	method    string
	path      string
	keepAlive bool

	status     int
	hdr        *Header
	state      responseState
	faulted    bool
	forceClose bool

	enc    bodyEncoder
	val    lengthValidator
	events lifecycle

	isHead bool

	date   DateSource
	logger obs.Logger
	meter  obs.Meter
}

func newResponseWriter(bw *bufio.Writer, method, path string, keepAlive bool, date DateSource, logger obs.Logger, meter obs.Meter) *responseWriter {
	return &responseWriter{
		bw:        bw,
		method:    method,
		path:      path,
		keepAlive: keepAlive,
		status:    200,
		hdr:       NewHeader(),
		val:       newLengthValidator(),
		isHead:    method == "HEAD",
		date:      date,
		logger:    logger,
		meter:     meter,
	}
}

func (w *responseWriter) Header() *Header { return w.hdr }

// WriteHeader stages the status code. The status line is not committed
// until the first write, flush or finalize, so framing is decided exactly
// once with the application's final declarations in hand.
func (w *responseWriter) WriteHeader(status int) error {
	if w.state != stateNotStarted {
		return ErrResponseStarted
	}
	if status == 0 {
		status = 200
	}
	w.status = status
	return nil
}

// SetContentLength declares the exact body size in bytes.
func (w *responseWriter) SetContentLength(n int64) error {
	if n < 0 {
		return w.hdr.Del("Content-Length")
	}
	return w.hdr.Set("Content-Length", strconv.FormatInt(n, 10))
}

func (w *responseWriter) OnStarting(cb func() error) error {
	if w.state != stateNotStarted {
		return ErrResponseStarted
	}
	return w.events.onStarting(cb)
}

func (w *responseWriter) OnCompleted(cb func() error) error {
	if w.state == stateCompleted {
		return ErrResponseCompleted
	}
	return w.events.onCompleted(cb)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.state == stateCompleted {
		return 0, ErrResponseCompleted
	}
	if w.faulted {
		return 0, ErrExchangeAborted
	}
	if w.state == stateNotStarted {
		w.syncValidator()
	}
	if err := w.val.recordWrite(len(p)); err != nil {
		if !w.isHead {
			// The overrunning write is rejected whole; none of its bytes
			// may reach the transport.
			w.fault(err)
			return 0, err
		}
		// HEAD discards the body anyway; the mismatch is telemetry only.
		w.logViolation(err)
	}
	var cbErr error
	if w.state == stateNotStarted {
		cbErr = w.start()
		if w.faulted {
			return 0, cbErr
		}
	}
	if _, err := w.enc.writeBody(w.bw, p); err != nil {
		w.fault(err)
		return 0, err
	}
	return len(p), cbErr
}

// Flush commits the status line and headers if needed and pushes buffered
// bytes to the transport.
func (w *responseWriter) Flush() error {
	if w.state == stateCompleted {
		return ErrResponseCompleted
	}
	if w.faulted {
		return ErrExchangeAborted
	}
	var cbErr error
	if w.state == stateNotStarted {
		w.syncValidator()
		cbErr = w.start()
		if w.faulted {
			return cbErr
		}
	}
	if err := w.bw.Flush(); err != nil {
		w.fault(err)
		return err
	}
	return cbErr
}

// syncValidator refreshes the validator from the staged headers. It runs on
// every pre-start write so the check always judges against the
// application's latest declaration; start freezes the result.
func (w *responseWriter) syncValidator() {
	w.val.enforce = !headerHasChunked(w.hdr)
	if v := w.hdr.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n >= 0 {
			w.val.declared = n
			return
		}
	}
	w.val.declared = -1
}

// start commits the response: framing is selected, status line and headers
// are serialized into the buffer, then starting callbacks fire. Headers are
// fixed before the callbacks run; a callback mutating them gets
// ErrResponseStarted. The returned error aggregates callback failures
// unless the transport itself failed, in which case the writer is faulted.
func (w *responseWriter) start() error {
	w.hdr.freeze()
	explicitChunked := headerHasChunked(w.hdr)

	switch {
	case http1.NoBodyStatus(w.status):
		// Protocol forbids a body for this status; both framing headers
		// are suppressed no matter what the application set.
		w.hdr.remove("Transfer-Encoding")
		w.hdr.remove("Content-Length")
		w.val.enforce = false
		w.enc = discardEncoder{}
	case w.isHead:
		// Headers go out as computed for the hypothetical body, but a HEAD
		// response never advertises chunked framing and carries no body
		// bytes. The validator keeps counting attempted writes.
		w.hdr.remove("Transfer-Encoding")
		w.enc = discardEncoder{}
	case explicitChunked:
		// Transfer-Encoding wins framing; a Content-Length set alongside
		// it is still emitted verbatim (RFC 7230 3.3.3).
		w.enc = chunkedEncoder{}
	case w.val.declared >= 0:
		w.enc = identityEncoder{}
	default:
		// Total length unknown ahead of time; switch to chunked ourselves.
		w.hdr.put("Transfer-Encoding", "chunked")
		w.enc = chunkedEncoder{}
	}

	if headerRequestsClose(w.hdr) {
		w.keepAlive = false
	}
	w.hdr.remove("Connection")
	if w.keepAlive && !w.forceClose {
		w.hdr.put("Connection", "keep-alive")
	} else {
		w.hdr.put("Connection", "close")
	}
	if !w.hdr.Has("Date") && w.date != nil {
		w.hdr.put("Date", w.date())
	}

	if err := w.emitHeaders(w.status, w.hdr); err != nil {
		w.fault(err)
		return err
	}
	w.state = stateStarted

	if cbErr := w.events.fireStarting(); cbErr != nil {
		w.logf(obs.Error, "starting callback failed on %s: %v", w.path, cbErr)
		return cbErr
	}
	return nil
}

func (w *responseWriter) emitHeaders(status int, hdr *Header) error {
	if err := http1.WriteStatusLine(w.bw, status, ""); err != nil {
		return err
	}
	if err := http1.WriteFields(w.bw, hdr.fields()); err != nil {
		return err
	}
	return http1.EndHeaders(w.bw)
}

// finalize drives the exchange to Completed. The connection loop calls it
// exactly once after the handler returns; handlerErr is non-nil when the
// handler panicked or the transport failed. Completed callbacks run
// unconditionally on every path through here.
func (w *responseWriter) finalize(handlerErr error) {
	if w.state == stateCompleted {
		return
	}
	if handlerErr != nil {
		w.faulted = true
		w.forceClose = true
	}

	if w.state == stateNotStarted {
		w.syncValidator()
		if http1.NoBodyStatus(w.status) {
			// The status forbids a body, so no declared length can be
			// violated; framing selection suppresses the header anyway.
			w.val.enforce = false
		}
		if err := w.val.finalize(); err != nil {
			if w.isHead {
				// With zero attempted body bytes there is nothing to
				// validate against the declared length.
				if w.val.written > 0 {
					w.logViolation(err)
				}
			} else {
				w.fault(err)
			}
		}
		if w.faulted {
			// Nothing has gone out yet: discard the staged response and
			// transmit a clean 500 instead. Starting callbacks never fire
			// on this path.
			w.sendErrorResponse()
		} else {
			if w.val.declared < 0 && !headerHasChunked(w.hdr) && !w.isHead && !http1.NoBodyStatus(w.status) {
				// No bytes, no declared framing: an empty fixed-length
				// body beats an empty chunked one.
				w.hdr.replace("Content-Length", []string{"0"})
				w.val.declared = 0
			}
			_ = w.start()
			if !w.faulted {
				if err := w.enc.finish(w.bw); err != nil {
					w.fault(err)
				}
			}
		}
	} else {
		if err := w.val.finalize(); err != nil {
			if w.isHead {
				// With zero attempted body bytes there is nothing to
				// validate against the declared length.
				if w.val.written > 0 {
					w.logViolation(err)
				}
			} else {
				// The status line is long gone; all that is left is to
				// stop pretending the framing can be trusted.
				w.fault(err)
			}
		}
		if !w.faulted {
			if err := w.enc.finish(w.bw); err != nil {
				w.fault(err)
			}
		}
	}

	if w.isHead && w.val.written > 0 {
		w.logf(obs.Info, "HEAD response body write: path=%s bytes=%d", w.path, w.val.written)
		w.count("httpx_server_head_body_writes_total")
	}

	if cbErr := w.events.fireCompleted(); cbErr != nil {
		w.logf(obs.Error, "completed callback failed on %s: %v", w.path, cbErr)
	}
	w.state = stateCompleted
}

// sendErrorResponse replaces whatever the application staged with a fresh
// 500, zero-length, connection-closing response.
func (w *responseWriter) sendErrorResponse() {
	h := NewHeader()
	h.replace("Content-Length", []string{"0"})
	h.put("Connection", "close")
	if w.date != nil {
		h.put("Date", w.date())
	}
	h.freeze()
	w.hdr = h
	w.status = 500
	w.enc = discardEncoder{}
	w.forceClose = true
	if err := w.emitHeaders(500, h); err != nil {
		w.logf(obs.Warn, "error response write failed on %s: %v", w.path, err)
	}
	w.state = stateStarted
}

// fault marks the exchange unrecoverable and forces the connection closed.
func (w *responseWriter) fault(err error) {
	w.faulted = true
	w.forceClose = true
	var cle *ContentLengthError
	if errors.As(err, &cle) {
		w.logViolation(cle)
	} else {
		w.logf(obs.Warn, "response write failed on %s: %v", w.path, err)
	}
}

func (w *responseWriter) logViolation(err error) {
	var cle *ContentLengthError
	if !errors.As(err, &cle) {
		return
	}
	kind := "under-length"
	if cle.Over {
		kind = "over-length"
	}
	w.logf(obs.Error, "framing violation on %s (kind=%s, declared=%d, written=%d): %v",
		w.path, kind, cle.Declared, cle.Written, err)
	w.count("httpx_server_framing_violations_total", obs.Label{Key: "kind", Value: kind})
}

// shouldKeepAlive reports whether the connection may serve another exchange
// after this one.
func (w *responseWriter) shouldKeepAlive() bool {
	return w.keepAlive && !w.forceClose
}

func (w *responseWriter) logf(level obs.Level, format string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Logf(level, format, args...)
	}
}

func (w *responseWriter) count(name string, labels ...obs.Label) {
	if w.meter != nil {
		w.meter.Counter(name, 1, labels...)
	}
}

func headerHasChunked(h *Header) bool {
	for _, v := range h.Values("Transfer-Encoding") {
		if strings.Contains(strings.ToLower(v), "chunked") {
			return true
		}
	}
	return false
}

// headerRequestsClose scans the Connection value as a token list, so
// "close, upgrade" still requests a close.
func headerRequestsClose(h *Header) bool {
	for _, v := range h.Values("Connection") {
		for _, tok := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(tok), "close") {
				return true
			}
		}
	}
	return false
}
