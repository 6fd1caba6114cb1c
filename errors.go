package jsonapibridge

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrInvalidParams        = errors.New("invalid params")
	ErrMissingTotal         = errors.New("response meta is missing the total count")
)

// UnsupportedOperationError reports a kind outside the supported set. It matches
// ErrUnsupportedOperation with errors.Is.
type UnsupportedOperationError struct {
	Kind OperationKind
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported data provider request type %q", string(e.Kind))
}

func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupportedOperation
}

// StatusError is returned for a response outside the 2xx range.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Endpoint, e.StatusCode)
}

func unsupported(kind OperationKind) error {
	return &UnsupportedOperationError{Kind: kind}
}

func invalidParams(kind OperationKind, format string, args ...any) error {
	return errors.Wrapf(ErrInvalidParams, "%s: "+format, append([]any{kind}, args...)...)
}
