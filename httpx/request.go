package httpx

import (
	"context"
	"io"
	"net/textproto"
	"net/url"
)

// RequestHeader is the parsed, canonicalized request header map.
type RequestHeader map[string][]string

func (h RequestHeader) Get(key string) string {
	if h == nil {
		return ""
	}
	if vv := h[textproto.CanonicalMIMEHeaderKey(key)]; len(vv) > 0 {
		return vv[0]
	}
	return ""
}

func (h RequestHeader) Values(key string) []string {
	if h == nil {
		return nil
	}
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

// Request represents an inbound HTTP/1.x request.
//
// Body is an io.ReadCloser; ContentLength is -1 for a chunked request body.
type Request struct {
	Method        string
	URL           *url.URL
	RequestURI    string
	Proto         string
	Header        RequestHeader
	Body          io.ReadCloser
	Host          string
	ContentLength int64
	ctx           context.Context
	// RequestID is the server generated identifier for this exchange.
	RequestID string
	// CorrelationID is a propagated ID from the peer (X-Request-ID).
	CorrelationID string
}

// Context returns the request's context. If nil, returns Background.
func (r *Request) Context() context.Context {
	if r == nil || r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r with its context changed to ctx.
func WithContext(r *Request, ctx context.Context) *Request {
	if r == nil {
		return nil
	}
	r2 := *r
	r2.ctx = ctx
	return &r2
}
