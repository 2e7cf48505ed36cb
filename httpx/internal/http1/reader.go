package http1

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

var (
	ErrMalformedRequest = errors.New("http1: malformed request")
	ErrHeaderTooLarge   = errors.New("http1: header too large")
)

// ParsedRequest is a minimal representation parsed from the wire.
// ContentLength is -1 for a chunked request body.
type ParsedRequest struct {
	Method        string
	RequestURI    string
	Proto         string
	Header        map[string][]string
	ContentLength int64
	Body          io.ReadCloser
}

// Reader parses HTTP/1.x requests from a buffered stream.
// MaxHeaderBytes limits a single line; MaxTotalHeaderBytes limits the whole
// header block. Zero means unlimited.
type Reader struct {
	BR                  *bufio.Reader
	MaxHeaderBytes      int
	MaxTotalHeaderBytes int
}

func (r *Reader) ReadRequest() (*ParsedRequest, error) {
	line, err := readLineLimit(r.BR, r.MaxHeaderBytes)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, ErrMalformedRequest
	}
	method, uri, proto := parts[0], parts[1], parts[2]
	if !ValidTokenName(method) || !strings.HasPrefix(proto, "HTTP/1.") {
		return nil, ErrMalformedRequest
	}
	hdr, err := r.readHeaders()
	if err != nil {
		return nil, err
	}

	chunked := hasChunkedTE(hdr)
	cl, hasCL, err := contentLengthOf(hdr)
	if err != nil {
		return nil, err
	}
	// A request carrying both framings is a smuggling vector; reject it
	// outright rather than picking a winner (RFC 7230 3.3.3).
	if chunked && hasCL {
		return nil, ErrMalformedRequest
	}

	var body io.ReadCloser
	switch {
	case chunked:
		cl = -1
		body = newChunkedBody(r.BR, r.MaxHeaderBytes)
	case hasCL && cl > 0:
		body = &limitedBody{lr: &io.LimitedReader{R: r.BR, N: cl}}
	default:
		cl = 0
		body = io.NopCloser(strings.NewReader(""))
	}
	return &ParsedRequest{
		Method:        method,
		RequestURI:    uri,
		Proto:         proto,
		Header:        hdr,
		ContentLength: cl,
		Body:          body,
	}, nil
}

func (r *Reader) readHeaders() (map[string][]string, error) {
	h := make(map[string][]string)
	total := 0
	for {
		line, err := readLineLimit(r.BR, r.MaxHeaderBytes)
		if err != nil {
			return nil, err
		}
		if line == "" {
			return h, nil
		}
		total += len(line) + 2
		if r.MaxTotalHeaderBytes > 0 && total > r.MaxTotalHeaderBytes {
			return nil, ErrHeaderTooLarge
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, ErrMalformedRequest
		}
		k := strings.TrimSpace(line[:i])
		if !ValidTokenName(k) {
			return nil, ErrMalformedRequest
		}
		v := strings.TrimSpace(line[i+1:])
		hk := canonicalHeaderKey(k)
		h[hk] = append(h[hk], v)
	}
}

// contentLengthOf resolves the request's Content-Length. Repeated values,
// either as separate fields or a comma-joined list, are only valid when
// they all agree.
func contentLengthOf(h map[string][]string) (int64, bool, error) {
	vv, ok := h[canonicalHeaderKey("Content-Length")]
	if !ok || len(vv) == 0 {
		return 0, false, nil
	}
	var cl int64 = -1
	for _, v := range vv {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				return 0, false, ErrMalformedRequest
			}
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil || n < 0 {
				return 0, false, ErrMalformedRequest
			}
			if cl >= 0 && n != cl {
				return 0, false, ErrMalformedRequest
			}
			cl = n
		}
	}
	return cl, true, nil
}

type limitedBody struct {
	lr *io.LimitedReader
}

func (b *limitedBody) Read(p []byte) (int, error) { return b.lr.Read(p) }

// Close drains unread bytes so the next request on the connection starts at
// a clean boundary.
func (b *limitedBody) Close() error {
	buf := make([]byte, 1024)
	for b.lr.N > 0 {
		n := int64(len(buf))
		if n > b.lr.N {
			n = b.lr.N
		}
		if _, err := io.ReadFull(b.lr, buf[:n]); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				break
			}
			return err
		}
	}
	return nil
}

func hasChunkedTE(h map[string][]string) bool {
	for _, v := range h[canonicalHeaderKey("Transfer-Encoding")] {
		if strings.Contains(strings.ToLower(v), "chunked") {
			return true
		}
	}
	return false
}

// Very small canonicalizer to avoid importing textproto here.
func canonicalHeaderKey(s string) string {
	b := []byte(strings.ToLower(s))
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = byte(c - 'a' + 'A')
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}
