// Package errors defines the structured error type shared by every kgxflow
// component. Each error carries a Kind drawn from the eight categories the
// transform and graph-operations pipelines distinguish, plus enough context
// (last-seen row, wrapped cause, stack trace) to build a useful diagnostic
// without the caller having to re-derive it.
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// Kind categorizes an error for the purposes of propagation policy:
// some kinds are always fatal to a run, others can be demoted to warnings
// depending on the caller's configured policy (on_map_failure,
// continue_on_pipeline_step_error, ...).
type Kind int

const (
	// KindConfig - invalid or contradictory configuration.
	KindConfig Kind = iota
	// KindIO - missing or unreadable file, archive extraction failure, HTTP non-2xx.
	KindIO
	// KindParse - malformed input: short row, bad JSON, coercion failure, missing required property.
	KindParse
	// KindSchema - a graph operation required a nodes/edges table that isn't present.
	KindSchema
	// KindMapping - lookup() failed against every configured map under an error policy.
	KindMapping
	// KindContract - a writer or transform declaration violated its contract.
	KindContract
	// KindValidation - a merge configured with validation_errors_halt saw errors in the report.
	KindValidation
	// KindNetwork - a remote resource fetch failed.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "CONFIG"
	case KindIO:
		return "IO"
	case KindParse:
		return "PARSE"
	case KindSchema:
		return "SCHEMA"
	case KindMapping:
		return "MAPPING"
	case KindContract:
		return "CONTRACT"
	case KindValidation:
		return "VALIDATION"
	case KindNetwork:
		return "NETWORK"
	default:
		return "UNKNOWN"
	}
}

// Severity distinguishes errors that must abort a run from ones a caller
// may choose to demote to a warning and continue past.
type Severity int

const (
	// SeverityFatal stops the run unless the caller's policy demotes it.
	SeverityFatal Severity = iota
	// SeverityWarning is logged and the run continues.
	SeverityWarning
)

// Error is the concrete type behind every error kgxflow returns across
// package boundaries.
type Error struct {
	Kind       Kind
	Severity   Severity
	Message    string
	Cause      error
	Row        int64          // last-seen row number, -1 if not applicable
	RowData    map[string]any // last-seen record, if the caller supplied one
	Context    map[string]any
	StackTrace string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, so errors.Is/As see through it.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind. This lets
// callers write errors.Is(err, errors.New(errors.KindMapping, "")) style
// sentinel checks without exporting one sentinel per kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithContext attaches a diagnostic key/value pair and returns the receiver
// for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRow attaches the last-seen row number and, optionally, the row's data.
func (e *Error) WithRow(row int64, data map[string]any) *Error {
	e.Row = row
	e.RowData = data
	return e
}

// IsFatal reports whether this error should stop the run.
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityFatal
}

// DetailedString renders kind, message, cause, row context, and stack trace.
func (e *Error) DetailedString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s\n", e.Kind, e.Message))
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("caused by: %v\n", e.Cause))
	}
	if e.Row >= 0 {
		sb.WriteString(fmt.Sprintf("last row: %d\n", e.Row))
	}
	if len(e.Context) > 0 {
		sb.WriteString("context:\n")
		for k, v := range e.Context {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}
	if e.StackTrace != "" {
		sb.WriteString(fmt.Sprintf("stack trace:\n%s\n", e.StackTrace))
	}
	return sb.String()
}

func captureStackTrace(skip int) string {
	var sb strings.Builder
	for i := skip; i < skip+10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			break
		}
		sb.WriteString(fmt.Sprintf("  %s:%d %s\n", file, line, fn.Name()))
	}
	return sb.String()
}

// New creates an error of the given kind with fatal severity.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:       kind,
		Severity:   SeverityFatal,
		Message:    message,
		Row:        -1,
		StackTrace: captureStackTrace(2),
	}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a kind and message. Returns nil if err is nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:       kind,
		Severity:   SeverityFatal,
		Message:    message,
		Cause:      err,
		Row:        -1,
		StackTrace: captureStackTrace(2),
	}
}

// Wrapf wraps an existing error with a kind and formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) *Error {
	return Wrap(err, kind, fmt.Sprintf(format, args...))
}

// Convenience constructors, one per kind, matching the names used throughout
// the reader/source/transform/graphdb packages.

func ConfigError(message string) *Error  { return New(KindConfig, message) }
func ConfigErrorf(format string, args ...any) *Error {
	return Newf(KindConfig, format, args...)
}

func IOError(message string) *Error { return New(KindIO, message) }
func IOErrorf(format string, args ...any) *Error {
	return Newf(KindIO, format, args...)
}
func IOErrorWrap(err error, message string) *Error { return Wrap(err, KindIO, message) }

func ParseError(message string) *Error { return New(KindParse, message) }
func ParseErrorf(format string, args ...any) *Error {
	return Newf(KindParse, format, args...)
}

func SchemaError(message string) *Error { return New(KindSchema, message) }
func SchemaErrorf(format string, args ...any) *Error {
	return Newf(KindSchema, format, args...)
}

func MappingError(message string) *Error { return New(KindMapping, message) }
func MappingErrorf(format string, args ...any) *Error {
	return Newf(KindMapping, format, args...)
}

func ContractError(message string) *Error { return New(KindContract, message) }
func ContractErrorf(format string, args ...any) *Error {
	return Newf(KindContract, format, args...)
}

func ValidationError(message string) *Error { return New(KindValidation, message) }

func NetworkError(err error, message string) *Error { return Wrap(err, KindNetwork, message) }
func NetworkErrorf(err error, format string, args ...any) *Error {
	return Wrapf(err, KindNetwork, format, args...)
}

// AsWarning returns a copy of e with Severity demoted to SeverityWarning, used
// when a caller's policy (on_map_failure=warning,
// continue_on_pipeline_step_error=true) downgrades a would-be-fatal error.
func AsWarning(e *Error) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Severity = SeverityWarning
	return &clone
}

// IsFatal reports whether err, if it is (or wraps) an *Error, is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.IsFatal()
	}
	return true
}

// KindOf returns the Kind of err, or KindConfig if err is not a *Error.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindConfig
}
