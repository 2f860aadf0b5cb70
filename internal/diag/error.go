package diag

import (
	"fmt"

	"sluice/internal/source"
)

// Error carries one fatal diagnostic through ordinary error returns.
// Translation is all-or-nothing per entry, so the first Error aborts it.
type Error struct {
	Diag Diagnostic
}

// Errorf builds a fatal Error with a formatted message.
func Errorf(code Code, span source.Span, format string, args ...any) *Error {
	return &Error{Diag: Diagnostic{
		Severity: SevError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Primary:  span,
	}}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Diag.Code, e.Diag.Message)
}

// Code returns the diagnostic code, or UnknownCode for a nil receiver.
func (e *Error) Code() Code {
	if e == nil {
		return UnknownCode
	}
	return e.Diag.Code
}

// CodeOf extracts the diagnostic code from err, or UnknownCode when err is
// not a *Error.
func CodeOf(err error) Code {
	if de, ok := err.(*Error); ok {
		return de.Code()
	}
	return UnknownCode
}

// ClassOf is CodeOf truncated to the error class group.
func ClassOf(err error) Code {
	return CodeOf(err).Class()
}
