package artifact

import (
	"errors"
	"fmt"
)

// MalformedError reports a response that parsed but could not be shaped
// into the artifact of its kind.
type MalformedError struct {
	kind Kind
	err  error
}

func newMalformedError(kind Kind, err error) *MalformedError {
	return &MalformedError{kind: kind, err: err}
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("decode %s: malformed response: %v", e.kind, e.err)
}

func (e *MalformedError) Unwrap() error { return e.err }

// Kind returns the artifact kind that failed to decode.
func (e *MalformedError) Kind() Kind { return e.kind }

// IsMalformed reports whether err is, or wraps, a *MalformedError.
func IsMalformed(err error) bool {
	var m *MalformedError
	return errors.As(err, &m)
}
