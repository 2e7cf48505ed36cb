package http1

import (
	"bufio"
	"fmt"
	"strings"
)

// Field is one response header line. Names are canonicalized by the caller;
// values are sanitized here at serialization time.
type Field struct {
	Name  string
	Value string
}

// WriteStatusLine writes "HTTP/1.1 <code> <reason>\r\n". An empty reason is
// filled in from the standard phrase table.
func WriteStatusLine(bw *bufio.Writer, status int, reason string) error {
	if reason == "" {
		reason = ReasonPhrase(status)
	}
	_, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason)
	return err
}

// WriteFields writes one "Name: value" line per field, in order.
func WriteFields(bw *bufio.Writer, fields []Field) error {
	for _, f := range fields {
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", f.Name, SanitizeValue(f.Value)); err != nil {
			return err
		}
	}
	return nil
}

// EndHeaders writes the blank line that terminates the header block.
func EndHeaders(bw *bufio.Writer) error {
	_, err := fmt.Fprint(bw, "\r\n")
	return err
}

// WriteChunk frames p as one chunk: hex length, CRLF, data, CRLF. A
// zero-length write produces no output, since an empty chunk would
// terminate the body.
func WriteChunk(bw *bufio.Writer, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := fmt.Fprintf(bw, "%x\r\n", len(p)); err != nil {
		return 0, err
	}
	if _, err := bw.Write(p); err != nil {
		return 0, err
	}
	if _, err := fmt.Fprint(bw, "\r\n"); err != nil {
		return 0, err
	}
	return len(p), nil
}

// EndChunked writes the terminating zero-length chunk.
func EndChunked(bw *bufio.Writer) error {
	_, err := fmt.Fprint(bw, "0\r\n\r\n")
	return err
}

// WriteContinue writes an interim 100 Continue response.
func WriteContinue(bw *bufio.Writer) error {
	_, err := fmt.Fprint(bw, "HTTP/1.1 100 Continue\r\n\r\n")
	return err
}

// NoBodyStatus reports whether the protocol forbids a response body for the
// status code: informational responses other than 101, 204, 205 and 304.
func NoBodyStatus(code int) bool {
	if code >= 100 && code < 200 {
		return code != 101
	}
	return code == 204 || code == 205 || code == 304
}

// ReasonPhrase returns the standard reason phrase for a status code, or ""
// when none is defined.
func ReasonPhrase(code int) string {
	switch code {
	case 100:
		return "Continue"
	case 101:
		return "Switching Protocols"
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 202:
		return "Accepted"
	case 204:
		return "No Content"
	case 205:
		return "Reset Content"
	case 206:
		return "Partial Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 303:
		return "See Other"
	case 304:
		return "Not Modified"
	case 307:
		return "Temporary Redirect"
	case 308:
		return "Permanent Redirect"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 408:
		return "Request Timeout"
	case 411:
		return "Length Required"
	case 413:
		return "Payload Too Large"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	default:
		return ""
	}
}

// ValidTokenName reports whether k is a valid RFC 7230 token, usable as a
// header field name.
func ValidTokenName(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			continue
		}
		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
			continue
		default:
			return false
		}
	}
	return true
}

// SanitizeValue removes CR/LF and control characters except HTAB.
func SanitizeValue(v string) string {
	clean := true
	for i := 0; i < len(v); i++ {
		if c := v[i]; c == '\r' || c == '\n' || c == 0x7f || (c < 0x20 && c != '\t') {
			clean = false
			break
		}
	}
	if clean {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
