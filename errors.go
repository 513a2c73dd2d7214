package docwire

import (
	"errors"
	"fmt"
	"strings"
)

// Reason classifies a ConversionError.
type Reason uint8

const (
	// ReasonStructural is malformed token order or unbalanced framing.
	ReasonStructural Reason = iota + 1
	// ReasonNumberParse is a scalar that cannot be held as, or coerced to, the
	// requested number.
	ReasonNumberParse
	// ReasonUnsupportedType is a value with no wire or runtime mapping.
	ReasonUnsupportedType
	// ReasonBinaryRead is a low-level binary cursor fault.
	ReasonBinaryRead
)

func (r Reason) String() string {
	switch r {
	case ReasonStructural:
		return "structural error"
	case ReasonNumberParse:
		return "number parse"
	case ReasonUnsupportedType:
		return "unsupported type"
	case ReasonBinaryRead:
		return "binary read"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// Sentinels matched by errors.Is against any ConversionError of the same
// reason.
var (
	ErrStructural      = errors.New("docwire: structural error")
	ErrNumberParse     = errors.New("docwire: number parse")
	ErrUnsupportedType = errors.New("docwire: unsupported type")
	ErrBinaryRead      = errors.New("docwire: binary read")
)

func (r Reason) sentinel() error {
	switch r {
	case ReasonStructural:
		return ErrStructural
	case ReasonNumberParse:
		return ErrNumberParse
	case ReasonUnsupportedType:
		return ErrUnsupportedType
	case ReasonBinaryRead:
		return ErrBinaryRead
	}
	return nil
}

// ConversionError is returned when a value cannot be converted between the
// in-memory graph and a wire format.
type ConversionError struct {
	Reason Reason
	// Path is the JSON Pointer (RFC 6901) of the offending value, empty for
	// the root.
	Path string
	// Type names the offending wire or runtime type, when known.
	Type string
	Err  error
}

func newConversionError(reason Reason, path, typ string, err error) *ConversionError {
	return &ConversionError{Reason: reason, Path: path, Type: typ, Err: err}
}

func (e *ConversionError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Reason.String())
	if e.Path != "" {
		fmt.Fprintf(&sb, " at %q", e.Path)
	}
	if e.Type != "" {
		fmt.Fprintf(&sb, " (%s)", e.Type)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's reason.
func (e *ConversionError) Is(target error) bool {
	return target != nil && target == e.Reason.sentinel()
}

// appendPointer appends one reference token to a JSON Pointer, escaping '~'
// and '/'.
func appendPointer(ptr, token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	token = strings.ReplaceAll(token, "/", "~1")
	return ptr + "/" + token
}
