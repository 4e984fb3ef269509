package registry

import (
	"fmt"
	"strings"

	"github.com/vk/lpjcfg/internal/keypath"
)

// Severity grades a finding.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Finding is one defect reported by a check.
type Finding struct {
	Check    string       `json:"check"`
	Code     string       `json:"code"`
	Severity Severity     `json:"severity"`
	Path     keypath.Path `json:"path"`
	Message  string       `json:"message"`
	// Where is the template position, when known.
	Where string `json:"where,omitempty"`
}

// Errorf builds an error finding.
func Errorf(code string, path keypath.Path, format string, args ...any) Finding {
	return Finding{Code: code, Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning finding.
func Warnf(code string, path keypath.Path, format string, args ...any) Finding {
	return Finding{Code: code, Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}

// String renders the finding on one line, e.g.
// `error output[2].id: duplicate output id "firec" [duplicate-id] (lpjml.cjson:88)`.
func (f Finding) String() string {
	var b strings.Builder
	b.WriteString(f.Severity.String())
	b.WriteByte(' ')
	b.WriteString(f.Path.String())
	b.WriteString(": ")
	b.WriteString(f.Message)
	if f.Code != "" {
		fmt.Fprintf(&b, " [%s]", f.Code)
	}
	if f.Where != "" {
		fmt.Fprintf(&b, " (%s)", f.Where)
	}
	return b.String()
}

// Report aggregates the findings of all checks over one document.
type Report struct {
	Findings []Finding
}

// Add appends findings to the report.
func (r *Report) Add(fs ...Finding) {
	r.Findings = append(r.Findings, fs...)
}

// Errors counts error findings.
func (r *Report) Errors() int {
	return r.count(SeverityError)
}

// Warnings counts warning findings.
func (r *Report) Warnings() int {
	return r.count(SeverityWarning)
}

// Failed reports whether the report holds errors, or any finding at all
// when strict is set.
func (r *Report) Failed(strict bool) bool {
	if strict {
		return len(r.Findings) > 0
	}
	return r.Errors() > 0
}

func (r *Report) count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}
