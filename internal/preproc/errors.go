package preproc

import "fmt"

// Origin locates a line in a template file.
type Origin struct {
	File string
	Line int
}

func (o Origin) String() string {
	if o.File == "" {
		return fmt.Sprintf("line %d", o.Line)
	}
	return fmt.Sprintf("%s:%d", o.File, o.Line)
}

// Error is a fatal resolution error tied to a template location.
type Error struct {
	Origin Origin
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Origin, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Origin, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(o Origin, format string, args ...any) *Error {
	return &Error{Origin: o, Msg: fmt.Sprintf(format, args...)}
}

// DiagnosticKind classifies a non-fatal finding of the resolver.
type DiagnosticKind string

const (
	// UnmatchedConditional marks a #if/#elif chain that selected no branch
	// and has no #else, so it contributed nothing to the output.
	UnmatchedConditional DiagnosticKind = "unmatched-conditional"
	// MacroRedefined marks a #define that replaced a different binding.
	MacroRedefined DiagnosticKind = "macro-redefined"
	// WarningDirective carries the text of an active #warning.
	WarningDirective DiagnosticKind = "warning-directive"
)

// Diagnostic is a non-fatal finding recorded while resolving.
type Diagnostic struct {
	Kind    DiagnosticKind
	Origin  Origin
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Origin, d.Kind, d.Message)
}
