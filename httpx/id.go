package httpx

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// newExchangeID returns the identifier stamped on each inbound exchange.
func newExchangeID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	// Fallback to a timestamp-based ID if rand fails (unlikely).
	return strconv.FormatInt(time.Now().UnixNano(), 16)
}
