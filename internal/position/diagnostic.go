package position

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	// SeverityDegraded marks a construct that was emitted best-effort
	// because no complete lowering exists for it. It never fails a file.
	SeverityDegraded
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityDegraded:
		return "degraded"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Diagnostic is a compiler message tied to a source span.
type Diagnostic struct {
	Span     Span
	Severity Severity
	Kind     string // e.g. "syntax", "lowering", "mapping"
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s: %s", d.Span, d.Severity, d.Kind, d.Message)
}

// DiagnosticBag accumulates diagnostics for one file.
type DiagnosticBag struct {
	Diagnostics []Diagnostic
}

// AddError records an error diagnostic.
func (b *DiagnosticBag) AddError(span Span, kind, message string) {
	b.Diagnostics = append(b.Diagnostics, Diagnostic{Span: span, Severity: SeverityError, Kind: kind, Message: message})
}

// AddWarning records a warning diagnostic.
func (b *DiagnosticBag) AddWarning(span Span, kind, message string) {
	b.Diagnostics = append(b.Diagnostics, Diagnostic{Span: span, Severity: SeverityWarning, Kind: kind, Message: message})
}

// AddDegraded records a best-effort lowering marker.
func (b *DiagnosticBag) AddDegraded(span Span, kind, message string) {
	b.Diagnostics = append(b.Diagnostics, Diagnostic{Span: span, Severity: SeverityDegraded, Kind: kind, Message: message})
}

// HasErrors returns true if any diagnostic is an error.
func (b *DiagnosticBag) HasErrors() bool {
	for _, d := range b.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
