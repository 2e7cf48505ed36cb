package httpx

import (
	"context"
	"testing"
)

func TestExchangeContextIDs(t *testing.T) {
	ctx := context.Background()
	if _, ok := RequestIDFrom(ctx); ok {
		t.Fatal("empty context must carry no request ID")
	}
	if _, ok := CorrelationIDFrom(ctx); ok {
		t.Fatal("empty context must carry no correlation ID")
	}

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithCorrelationID(ctx, "corr-9")

	// Both identifiers survive under the shared key.
	if id, ok := RequestIDFrom(ctx); !ok || id != "req-1" {
		t.Fatalf("request ID = %q, %v", id, ok)
	}
	if id, ok := CorrelationIDFrom(ctx); !ok || id != "corr-9" {
		t.Fatalf("correlation ID = %q, %v", id, ok)
	}

	// Re-stamping one ID leaves the other intact.
	ctx = WithRequestID(ctx, "req-2")
	if id, _ := RequestIDFrom(ctx); id != "req-2" {
		t.Fatalf("request ID = %q", id)
	}
	if id, _ := CorrelationIDFrom(ctx); id != "corr-9" {
		t.Fatalf("correlation ID = %q", id)
	}
}
