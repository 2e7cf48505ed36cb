package httpx

// Flusher allows a handler to push buffered response bytes to the client
// mid-response, committing the status line and headers if they have not
// been sent yet (useful for streaming and server-sent events).
type Flusher interface {
	Flush() error
}
