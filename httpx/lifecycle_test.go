package httpx

import (
	"errors"
	"strings"
	"testing"
)

func TestLifecycleRegistrationOrder(t *testing.T) {
	var order []string
	var l lifecycle
	_ = l.onStarting(func() error { order = append(order, "s1"); return nil })
	_ = l.onStarting(func() error { order = append(order, "s2"); return nil })
	_ = l.onCompleted(func() error { order = append(order, "c1"); return nil })
	_ = l.onCompleted(func() error { order = append(order, "c2"); return nil })

	if err := l.fireStarting(); err != nil {
		t.Fatalf("fireStarting: %v", err)
	}
	if err := l.fireCompleted(); err != nil {
		t.Fatalf("fireCompleted: %v", err)
	}
	want := "s1,s2,c1,c2"
	if got := strings.Join(order, ","); got != want {
		t.Fatalf("order = %s, want %s", got, want)
	}
}

func TestLifecycleFiresOnce(t *testing.T) {
	var n int
	var l lifecycle
	_ = l.onCompleted(func() error { n++; return nil })
	_ = l.fireCompleted()
	_ = l.fireCompleted()
	if n != 1 {
		t.Fatalf("completed ran %d times, want 1", n)
	}
}

func TestLifecycleRegisterAfterFired(t *testing.T) {
	var l lifecycle
	_ = l.fireStarting()
	if err := l.onStarting(func() error { return nil }); err != ErrResponseStarted {
		t.Fatalf("onStarting after fire = %v, want ErrResponseStarted", err)
	}
	_ = l.fireCompleted()
	if err := l.onCompleted(func() error { return nil }); err != ErrResponseCompleted {
		t.Fatalf("onCompleted after fire = %v, want ErrResponseCompleted", err)
	}
}

func TestLifecycleErrorContainment(t *testing.T) {
	var ran []string
	var l lifecycle
	errA := errors.New("callback a failed")
	errB := errors.New("callback b failed")
	_ = l.onCompleted(func() error { ran = append(ran, "a"); return errA })
	_ = l.onCompleted(func() error { ran = append(ran, "b"); return errB })
	_ = l.onCompleted(func() error { ran = append(ran, "c"); return nil })

	err := l.fireCompleted()
	if len(ran) != 3 {
		t.Fatalf("ran = %v, want all three despite failures", ran)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("aggregate = %v, want both failures", err)
	}
}
