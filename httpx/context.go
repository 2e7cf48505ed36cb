package httpx

import "context"

// The per-exchange identifiers travel together under a single context key:
// the server-generated request ID and the correlation ID propagated from
// the peer's X-Request-ID header.
type exchangeKey struct{}

type exchangeIDs struct {
	requestID     string
	correlationID string
}

func exchangeFrom(ctx context.Context) exchangeIDs {
	ids, _ := ctx.Value(exchangeKey{}).(exchangeIDs)
	return ids
}

// WithRequestID returns a context carrying the exchange's request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	ids := exchangeFrom(ctx)
	ids.requestID = id
	return context.WithValue(ctx, exchangeKey{}, ids)
}

// RequestIDFrom extracts the exchange's request ID from ctx.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id := exchangeFrom(ctx).requestID
	return id, id != ""
}

// WithCorrelationID returns a context carrying the peer-propagated
// correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	ids := exchangeFrom(ctx)
	ids.correlationID = id
	return context.WithValue(ctx, exchangeKey{}, ids)
}

// CorrelationIDFrom extracts the correlation ID from ctx.
func CorrelationIDFrom(ctx context.Context) (string, bool) {
	id := exchangeFrom(ctx).correlationID
	return id, id != ""
}
