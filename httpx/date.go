package httpx

import (
	"sync"
	"time"
)

// DateSource supplies the value of the Date response header. It is queried
// once per response, at header serialization time.
type DateSource func() string

const dateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// dateClock caches the formatted Date value for the current second. One
// instance is shared, read-mostly, by every exchange on a server.
type dateClock struct {
	mu    sync.RWMutex
	unix  int64
	value string
}

func (d *dateClock) now() string {
	t := time.Now()
	sec := t.Unix()
	d.mu.RLock()
	if d.unix == sec && d.value != "" {
		v := d.value
		d.mu.RUnlock()
		return v
	}
	d.mu.RUnlock()
	v := t.UTC().Format(dateLayout)
	d.mu.Lock()
	d.unix, d.value = sec, v
	d.mu.Unlock()
	return v
}
