package httpx

import (
	"net/textproto"

	"github.com/PeggyMercyPrescott/KestrelHttpServer/httpx/internal/http1"
)

// Header is an ordered collection of response header fields. Keys are
// case-insensitive and canonicalized. Serialization preserves the order in
// which keys were first set and, per key, the order values were added.
//
// The collection freezes when the response starts; from then on every
// mutator returns ErrResponseStarted.
type Header struct {
	keys   []string
	values map[string][]string
	frozen bool
}

func NewHeader() *Header {
	return &Header{values: make(map[string][]string)}
}

// Set replaces key's values. Calling Set with no values removes the key.
func (h *Header) Set(key string, values ...string) error {
	if h.frozen {
		return ErrResponseStarted
	}
	if len(values) == 0 {
		h.remove(key)
		return nil
	}
	h.replace(key, values)
	return nil
}

// Add appends one value to key, creating the key if needed.
func (h *Header) Add(key, value string) error {
	if h.frozen {
		return ErrResponseStarted
	}
	h.put(key, value)
	return nil
}

// SetOptional replaces key's values with the non-nil entries of values,
// preserving their relative order. Nil entries are dropped and empty
// strings kept; if every entry is nil the key is removed entirely and never
// serializes.
func (h *Header) SetOptional(key string, values ...*string) error {
	if h.frozen {
		return ErrResponseStarted
	}
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != nil {
			kept = append(kept, *v)
		}
	}
	if len(kept) == 0 {
		h.remove(key)
		return nil
	}
	h.replace(key, kept)
	return nil
}

// Del removes key and all its values.
func (h *Header) Del(key string) error {
	if h.frozen {
		return ErrResponseStarted
	}
	h.remove(key)
	return nil
}

// Get returns the first value for key, or "".
func (h *Header) Get(key string) string {
	if h == nil {
		return ""
	}
	if vv := h.values[textproto.CanonicalMIMEHeaderKey(key)]; len(vv) > 0 {
		return vv[0]
	}
	return ""
}

// Values returns all values for key in the order they were added.
func (h *Header) Values(key string) []string {
	if h == nil {
		return nil
	}
	return h.values[textproto.CanonicalMIMEHeaderKey(key)]
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool {
	if h == nil {
		return false
	}
	_, ok := h.values[textproto.CanonicalMIMEHeaderKey(key)]
	return ok
}

// Len returns the number of (name, value) pairs that would serialize.
func (h *Header) Len() int {
	n := 0
	for _, k := range h.keys {
		n += len(h.values[k])
	}
	return n
}

func (h *Header) freeze() { h.frozen = true }

// fields flattens the collection into serialization order.
func (h *Header) fields() []http1.Field {
	out := make([]http1.Field, 0, h.Len())
	for _, k := range h.keys {
		for _, v := range h.values[k] {
			out = append(out, http1.Field{Name: k, Value: v})
		}
	}
	return out
}

// replace, put and remove are the engine-side mutators: they bypass the
// freeze so framing headers can be fixed up during serialization.

func (h *Header) replace(key string, values []string) {
	k := textproto.CanonicalMIMEHeaderKey(key)
	if _, ok := h.values[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.values[k] = append([]string(nil), values...)
}

func (h *Header) put(key, value string) {
	k := textproto.CanonicalMIMEHeaderKey(key)
	if _, ok := h.values[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.values[k] = append(h.values[k], value)
}

func (h *Header) remove(key string) {
	k := textproto.CanonicalMIMEHeaderKey(key)
	if _, ok := h.values[k]; !ok {
		return
	}
	delete(h.values, k)
	for i, existing := range h.keys {
		if existing == k {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}
