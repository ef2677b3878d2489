package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// annotatedError includes more context than a plain error that is useful for troubleshooting.
type annotatedError struct {
	// msg is the error message.
	msg string
	// pc is the program counter for the location of the error provided by runtime.Callers.
	pc uintptr
	// attrs are slog attributes that are added to the log event to provide more context for the error.
	attrs []slog.Attr
	// wrapped is the optional cause.
	wrapped error
}

func newAnnotated(err error, msg string, attrs []slog.Attr) *annotatedError {
	var pcs [1]uintptr
	// Skip runtime.Callers, this function and the exported caller.
	runtime.Callers(3, pcs[:]) //nolint:mnd // see above
	return &annotatedError{
		msg:     msg,
		pc:      pcs[0],
		attrs:   attrs,
		wrapped: err,
	}
}

// New creates a new error with the given message and attributes annotated with the caller's source location.
func New(msg string, attrs ...slog.Attr) error {
	return newAnnotated(nil, msg, attrs)
}

// Wrap adds a message, the caller's source location and attributes to err.
//
// The wrapped error is still matched by [Is] and [As].
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return newAnnotated(err, msg, attrs)
}

// NewSentinel creates a plain error without other context that can be used as sentinel error that can be detected
// with errors.Is.
func NewSentinel(msg string) error {
	return errors.New(msg)
}

// Error implements error interface.
func (err *annotatedError) Error() string {
	if err.wrapped == nil {
		return err.msg
	}
	return fmt.Sprintf("%s: %s", err.msg, err.wrapped.Error())
}

func (err *annotatedError) Unwrap() error {
	return err.wrapped
}

func (err *annotatedError) source() string {
	frames := runtime.CallersFrames([]uintptr{err.pc})
	frame, _ := frames.Next()
	return fmt.Sprintf("%s:%d", frame.File, frame.Line)
}

// LogValue formats the error for useful logging.
func (err *annotatedError) LogValue() slog.Value {
	attrs := append(
		[]slog.Attr{slog.String("source", err.source())},
		err.attrs...,
	)
	return slog.GroupValue(attrs...)
}

// SlogError creates a slog attribute from err that includes the message and, for annotated errors, the source
// location and attributes of every annotation in the chain. The innermost source is reported since it is the closest
// to where the problem originated.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}

	var (
		source string
		attrs  []slog.Attr
		cur    = err
	)
	for cur != nil {
		var annotated *annotatedError
		if !errors.As(cur, &annotated) {
			break
		}
		source = annotated.source()
		attrs = append(attrs, annotated.attrs...)
		cur = annotated.wrapped
	}

	if source == "" {
		return slog.String("error", err.Error())
	}

	group := make([]any, 0, len(attrs)+2) //nolint:mnd // message and source
	group = append(group, slog.String("message", err.Error()), slog.String("source", source))
	for _, attr := range attrs {
		group = append(group, attr)
	}
	return slog.Group("error", group...)
}

// As exposes stdlib errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is exposes stdlib errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Join exposes stdlib errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Unwrap exposes stdlib errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
