package httpx

// lengthValidator tracks the declared Content-Length of a response against
// the bytes the handler actually wrote. declared < 0 means no length was
// declared; enforce is off while the application has explicitly selected
// chunked framing, in which case the declaration is informational only.
type lengthValidator struct {
	declared int64
	written  int64
	enforce  bool
}

func newLengthValidator() lengthValidator {
	return lengthValidator{declared: -1, enforce: true}
}

// recordWrite accounts for an attempted write of n bytes. The overrun check
// runs at the moment of the write, before any of its bytes are emitted, so
// no more bytes than declared can ever escape to the transport. The counter
// keeps the attempted total either way.
func (v *lengthValidator) recordWrite(n int) error {
	v.written += int64(n)
	if v.enforce && v.declared >= 0 && v.written > v.declared {
		return &ContentLengthError{Declared: v.declared, Written: v.written, Over: true}
	}
	return nil
}

// finalize reports an under-length violation once the handler is done. A
// declared length of zero with nothing written is valid.
func (v *lengthValidator) finalize() error {
	if v.enforce && v.declared > 0 && v.written < v.declared {
		return &ContentLengthError{Declared: v.declared, Written: v.written}
	}
	return nil
}
