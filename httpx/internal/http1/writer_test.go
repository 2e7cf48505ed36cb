package http1

import (
	"bufio"
	"bytes"
	"testing"
)

func flushString(t *testing.T, bw *bufio.Writer, buf *bytes.Buffer) string {
	t.Helper()
	if err := bw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return buf.String()
}

func TestWriteStatusLine(t *testing.T) {
	cases := []struct {
		status int
		reason string
		want   string
	}{
		{200, "", "HTTP/1.1 200 OK\r\n"},
		{500, "", "HTTP/1.1 500 Internal Server Error\r\n"},
		{404, "Gone Fishing", "HTTP/1.1 404 Gone Fishing\r\n"},
		{299, "", "HTTP/1.1 299 \r\n"},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		bw := bufio.NewWriter(&buf)
		if err := WriteStatusLine(bw, c.status, c.reason); err != nil {
			t.Fatalf("WriteStatusLine(%d): %v", c.status, err)
		}
		if got := flushString(t, bw, &buf); got != c.want {
			t.Errorf("WriteStatusLine(%d, %q) = %q, want %q", c.status, c.reason, got, c.want)
		}
	}
}

func TestWriteFieldsSanitizes(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	err := WriteFields(bw, []Field{
		{Name: "X-Plain", Value: "ok"},
		{Name: "X-Injected", Value: "a\r\nEvil: yes"},
		{Name: "X-Empty", Value: ""},
	})
	if err != nil {
		t.Fatalf("WriteFields: %v", err)
	}
	want := "X-Plain: ok\r\nX-Injected: aEvil: yes\r\nX-Empty: \r\n"
	if got := flushString(t, bw, &buf); got != want {
		t.Fatalf("fields = %q, want %q", got, want)
	}
}

func TestWriteChunk(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)

	if n, err := WriteChunk(bw, nil); n != 0 || err != nil {
		t.Fatalf("empty chunk = (%d, %v), want no output", n, err)
	}
	if n, err := WriteChunk(bw, []byte("hello, world, again")); n != 19 || err != nil {
		t.Fatalf("WriteChunk = (%d, %v)", n, err)
	}
	if err := EndChunked(bw); err != nil {
		t.Fatalf("EndChunked: %v", err)
	}
	// 19 bytes frames with a hex size line.
	want := "13\r\nhello, world, again\r\n0\r\n\r\n"
	if got := flushString(t, bw, &buf); got != want {
		t.Fatalf("chunked = %q, want %q", got, want)
	}
}

func TestNoBodyStatus(t *testing.T) {
	noBody := []int{100, 102, 199, 204, 205, 304}
	for _, code := range noBody {
		if !NoBodyStatus(code) {
			t.Errorf("NoBodyStatus(%d) = false, want true", code)
		}
	}
	hasBody := []int{101, 200, 201, 206, 301, 400, 404, 500}
	for _, code := range hasBody {
		if NoBodyStatus(code) {
			t.Errorf("NoBodyStatus(%d) = true, want false", code)
		}
	}
}

func TestValidTokenName(t *testing.T) {
	valid := []string{"Content-Length", "X-Custom_1", "ETag", "x!y"}
	for _, k := range valid {
		if !ValidTokenName(k) {
			t.Errorf("ValidTokenName(%q) = false, want true", k)
		}
	}
	invalid := []string{"", "Bad(", "Has Space", "Colon:", "über"}
	for _, k := range invalid {
		if ValidTokenName(k) {
			t.Errorf("ValidTokenName(%q) = true, want false", k)
		}
	}
}

func TestSanitizeValue(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"tab\tkept", "tab\tkept"},
		{"strip\r\nthese", "stripthese"},
		{"ctl\x00\x1fgone", "ctlgone"},
		{"del\x7fgone", "delgone"},
	}
	for _, c := range cases {
		if got := SanitizeValue(c.in); got != c.want {
			t.Errorf("SanitizeValue(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
