package validate

// Validatable is anything that can be checked: migrations and every schema
// change.
type Validatable interface {
	Validate(v Validation)
}

// Result is the flat, order-preserving diagnostic list of one run.
type Result struct {
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// Run validates target from an empty path.
func Run(target Validatable) Result {
	v := New()
	target.Validate(v)
	return Result{Diagnostics: v.store.Diagnostics()}
}

func (r Result) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns the error diagnostics.
func (r Result) Errors() []Diagnostic { return r.filter(SeverityError) }

// Warnings returns the warning diagnostics.
func (r Result) Warnings() []Diagnostic { return r.filter(SeverityWarning) }

// Infos returns the informational diagnostics.
func (r Result) Infos() []Diagnostic { return r.filter(SeverityInfo) }

// HasErrors reports whether any error was recorded.
func (r Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Codes returns the issue codes in report order.
func (r Result) Codes() []string {
	codes := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		codes[i] = d.Issue.Code
	}
	return codes
}
