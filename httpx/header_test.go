package httpx

import "testing"

func strptr(s string) *string { return &s }

func TestHeaderCanonicalization(t *testing.T) {
	h := NewHeader()
	if err := h.Add("x-foo", "a"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := h.Add("X-Foo", "b"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := h.Get("X-FOO"); got != "a" {
		t.Fatalf("Get canonical = %q, want %q", got, "a")
	}
	if got := len(h.Values("X-Foo")); got != 2 {
		t.Fatalf("len values = %d, want 2", got)
	}
	if err := h.Set("content-type", "text/plain"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := h.Get("Content-Type"); got != "text/plain" {
		t.Fatalf("content-type = %q", got)
	}
	if err := h.Del("x-foo"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if h.Has("X-Foo") {
		t.Fatal("after Del, key still present")
	}
}

func TestHeaderSerializationOrder(t *testing.T) {
	h := NewHeader()
	_ = h.Set("B-Second", "2")
	_ = h.Set("A-First", "1")
	_ = h.Add("B-Second", "3")
	fields := h.fields()
	if len(fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(fields))
	}
	// Key order is first-set order; value order is add order.
	want := [][2]string{{"B-Second", "2"}, {"B-Second", "3"}, {"A-First", "1"}}
	for i, f := range fields {
		if f.Name != want[i][0] || f.Value != want[i][1] {
			t.Fatalf("field %d = %s: %s, want %s: %s", i, f.Name, f.Value, want[i][0], want[i][1])
		}
	}
}

func TestHeaderSetOptional(t *testing.T) {
	h := NewHeader()

	// All-nil: the key never appears.
	if err := h.SetOptional("X-Absent", nil, nil); err != nil {
		t.Fatalf("SetOptional: %v", err)
	}
	if h.Has("X-Absent") {
		t.Fatal("all-nil values must drop the key")
	}

	// Empty strings are values; nils are not.
	if err := h.SetOptional("X-Mixed", nil, strptr(""), strptr("v"), nil); err != nil {
		t.Fatalf("SetOptional: %v", err)
	}
	vv := h.Values("X-Mixed")
	if len(vv) != 2 || vv[0] != "" || vv[1] != "v" {
		t.Fatalf("values = %q, want [\"\" \"v\"]", vv)
	}

	// Replacing with all-nil removes an existing key.
	if err := h.SetOptional("X-Mixed", nil); err != nil {
		t.Fatalf("SetOptional: %v", err)
	}
	if h.Has("X-Mixed") {
		t.Fatal("all-nil replacement must remove the key")
	}
}

func TestHeaderFrozenMutation(t *testing.T) {
	h := NewHeader()
	_ = h.Set("X-Ok", "1")
	h.freeze()
	if err := h.Set("X-Late", "2"); err != ErrResponseStarted {
		t.Fatalf("Set after freeze = %v, want ErrResponseStarted", err)
	}
	if err := h.Add("X-Ok", "2"); err != ErrResponseStarted {
		t.Fatalf("Add after freeze = %v, want ErrResponseStarted", err)
	}
	if err := h.Del("X-Ok"); err != ErrResponseStarted {
		t.Fatalf("Del after freeze = %v, want ErrResponseStarted", err)
	}
	if err := h.SetOptional("X-Late", strptr("v")); err != ErrResponseStarted {
		t.Fatalf("SetOptional after freeze = %v, want ErrResponseStarted", err)
	}
	// Reads still work.
	if got := h.Get("X-Ok"); got != "1" {
		t.Fatalf("Get after freeze = %q", got)
	}
}
