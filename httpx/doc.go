// Package httpx is an HTTP/1.1 server built around a strict response
// framing and lifecycle engine.
//
// The engine decides once per exchange how the response body is delimited
// on the wire (Content-Length, chunked Transfer-Encoding, or connection
// close), enforces that a declared Content-Length matches the bytes the
// handler actually writes, and guarantees lifecycle callback ordering on
// every code path, including handler panics and transport failures.
//
// Highlights
//   - Streaming ResponseWriter: status and headers stay mutable until the
//     first byte, framing is selected at that point, chunked encoding is
//     injected automatically when no length is declared.
//   - Content-Length enforcement: an overrunning write fails at the moment
//     of the overrun, before its bytes reach the wire; a short body is
//     reported at finalize and forces connection close.
//   - Lifecycle hooks: OnStarting fires right before the first byte,
//     OnCompleted always fires, once, even when the handler panics.
//   - Fault policy: before the first byte a failing handler turns into a
//     clean 500 with Content-Length: 0; after it, the connection is torn
//     down rather than transmitting untrustworthy framing.
//   - Observability: plug-in Logger and Meter interfaces (internal/obs),
//     with zap and Prometheus adapters.
//
// Quick start:
//
//	s := &httpx.Server{Addr: ":8080"}
//	s.Handler = httpx.HandlerFunc(func(w httpx.ResponseWriter, r *httpx.Request) {
//	    w.Header().Set("Content-Type", "text/plain; charset=utf-8")
//	    w.SetContentLength(5)
//	    w.Write([]byte("hello"))
//	})
//	if err := s.ListenAndServe(); err != nil { log.Fatal(err) }
package httpx
