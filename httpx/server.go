package httpx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/PeggyMercyPrescott/KestrelHttpServer/httpx/internal/http1"
	"github.com/PeggyMercyPrescott/KestrelHttpServer/internal/obs"
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("httpx: server closed")

type Handler interface {
	ServeHTTP(ResponseWriter, *Request)
}

type HandlerFunc func(ResponseWriter, *Request)

func (f HandlerFunc) ServeHTTP(w ResponseWriter, r *Request) {
	f(w, r)
}

type Server struct {
	Addr                string
	Handler             Handler
	ReadTimeout         time.Duration
	ReadHeaderTimeout   time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
	MaxHeaderBytes      int
	MaxTotalHeaderBytes int

	// AcceptLimit, if set, throttles how fast new connections are accepted.
	AcceptLimit *rate.Limiter

	// DateSource supplies the Date header value; defaults to a per-second
	// cached clock shared by all exchanges.
	DateSource DateSource

	Logger obs.Logger
	Meter  obs.Meter

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	active    sync.WaitGroup
	closed    atomic.Bool

	dateOnce sync.Once
	clock    *dateClock
}

func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = ":8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(l net.Listener) error {
	s.trackListener(l, true)
	defer s.trackListener(l, false)
	defer l.Close()
	for {
		if s.AcceptLimit != nil {
			if err := s.AcceptLimit.Wait(context.Background()); err != nil {
				return err
			}
		}
		c, err := l.Accept()
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}
			return err
		}
		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.serveConn(c)
		}()
	}
}

// Shutdown closes the listeners and waits for in-flight connections to
// finish, or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closed.Store(true)
	s.mu.Lock()
	for l := range s.listeners {
		_ = l.Close()
	}
	s.mu.Unlock()
	done := make(chan struct{})
	go func() {
		s.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) trackListener(l net.Listener, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[net.Listener]struct{})
	}
	if add {
		s.listeners[l] = struct{}{}
	} else {
		delete(s.listeners, l)
	}
}

func (s *Server) serveConn(c net.Conn) {
	defer c.Close()
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	for {
		if s.ReadHeaderTimeout > 0 {
			_ = c.SetReadDeadline(time.Now().Add(s.ReadHeaderTimeout))
		}
		rr := &http1.Reader{BR: br, MaxHeaderBytes: s.headerLimit(), MaxTotalHeaderBytes: s.MaxTotalHeaderBytes}
		pr, err := rr.ReadRequest()
		if err != nil {
			if err != io.EOF {
				s.rejectRequest(bw, err)
			}
			return
		}

		ka := keepAliveRequested(pr.Proto, RequestHeader(pr.Header).Get("Connection"))

		var u *url.URL
		if strings.HasPrefix(pr.RequestURI, "http://") || strings.HasPrefix(pr.RequestURI, "https://") {
			u, _ = url.Parse(pr.RequestURI)
		} else {
			u, _ = url.ParseRequestURI(pr.RequestURI)
		}
		r := &Request{
			Method:        pr.Method,
			URL:           u,
			RequestURI:    pr.RequestURI,
			Proto:         pr.Proto,
			Header:        RequestHeader(pr.Header),
			Body:          pr.Body,
			Host:          RequestHeader(pr.Header).Get("Host"),
			ContentLength: pr.ContentLength,
			RequestID:     newExchangeID(),
			CorrelationID: RequestHeader(pr.Header).Get("X-Request-ID"),
		}
		r = WithContext(r, WithRequestID(context.Background(), r.RequestID))
		if r.CorrelationID != "" {
			r = WithContext(r, WithCorrelationID(r.Context(), r.CorrelationID))
		}

		// If Expect: 100-continue is present, send the interim response so
		// the client transmits its body.
		if strings.EqualFold(r.Header.Get("Expect"), "100-continue") {
			_ = http1.WriteContinue(bw)
			_ = bw.Flush()
		}

		w := newResponseWriter(bw, pr.Method, pr.RequestURI, ka, s.dateSource(), s.Logger, s.Meter)
		s.count("httpx_server_requests_total", obs.Label{Key: "method", Value: pr.Method})

		herr := s.invokeHandler(w, r)

		// Drain whatever the handler left of the request body so the next
		// request starts at a clean boundary.
		if r.Body != nil {
			_ = r.Body.Close()
		}

		if s.WriteTimeout > 0 {
			_ = c.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
		}
		w.finalize(herr)
		if err := bw.Flush(); err != nil {
			return
		}
		s.count("httpx_server_responses_total", obs.Label{Key: "status", Value: strconv.Itoa(w.status)})
		s.observe("httpx_server_response_bytes", float64(w.val.written))

		if !w.shouldKeepAlive() || s.closed.Load() {
			return
		}
		if s.IdleTimeout > 0 {
			_ = c.SetReadDeadline(time.Now().Add(s.IdleTimeout))
		} else if s.ReadTimeout > 0 {
			_ = c.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		} else {
			_ = c.SetReadDeadline(time.Time{})
		}
	}
}

// invokeHandler runs the handler, converting a panic into the fault the
// response writer's finalize acts on.
func (s *Server) invokeHandler(w ResponseWriter, r *Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("httpx: handler panic: %v", rec)
			s.logf(obs.Error, "handler panic on %s: %v", r.RequestURI, rec)
		}
	}()
	h := s.Handler
	if h == nil {
		h = HandlerFunc(func(w ResponseWriter, r *Request) {
			_ = w.WriteHeader(404)
			_, _ = w.Write([]byte("not found"))
		})
	}
	h.ServeHTTP(w, r)
	return nil
}

// rejectRequest answers an unparseable request with a best-effort 400.
func (s *Server) rejectRequest(bw *bufio.Writer, err error) {
	status := 400
	if errors.Is(err, http1.ErrHeaderTooLarge) {
		status = 431
	}
	_ = http1.WriteStatusLine(bw, status, "")
	_ = http1.WriteFields(bw, []http1.Field{
		{Name: "Content-Length", Value: "0"},
		{Name: "Connection", Value: "close"},
	})
	_ = http1.EndHeaders(bw)
	_ = bw.Flush()
}

func keepAliveRequested(proto, connection string) bool {
	connection = strings.ToLower(connection)
	if proto == "HTTP/1.1" {
		return connection != "close"
	}
	return connection == "keep-alive"
}

func (s *Server) headerLimit() int {
	if s.MaxHeaderBytes <= 0 {
		return 8 << 10
	}
	return s.MaxHeaderBytes
}

func (s *Server) dateSource() DateSource {
	if s.DateSource != nil {
		return s.DateSource
	}
	s.dateOnce.Do(func() { s.clock = &dateClock{} })
	return s.clock.now
}

func (s *Server) logf(level obs.Level, format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Logf(level, format, args...)
	}
}

func (s *Server) count(name string, labels ...obs.Label) {
	if s.Meter != nil {
		s.Meter.Counter(name, 1, labels...)
	}
}

func (s *Server) observe(name string, v float64, labels ...obs.Label) {
	if s.Meter != nil {
		s.Meter.Histogram(name, v, labels...)
	}
}
