package validate

import (
	"fmt"
	"slices"
	"strconv"
	"sync"
)

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// MarshalText renders the severity by name in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is one finding.
type Diagnostic struct {
	Severity Severity          `json:"severity" yaml:"severity"`
	Issue    Issue             `json:"issue" yaml:"issue"`
	Info     map[string]string `json:"info,omitempty" yaml:"info,omitempty"`
	Path     Path              `json:"path" yaml:"path"`
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s [%s] %s", d.Severity, d.Issue.Code, d.Issue.Message)
	if len(d.Path) > 0 {
		s += " at " + d.Path.String()
	}
	if len(d.Info) > 0 {
		keys := make([]string, 0, len(d.Info))
		for k := range d.Info {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			s += fmt.Sprintf(" %s=%q", k, d.Info[k])
		}
	}
	return s
}

// Store collects diagnostics in report order.
type Store struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

func (s *Store) add(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = append(s.diagnostics, d)
}

// Diagnostics returns a copy of everything recorded so far.
func (s *Store) Diagnostics() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.diagnostics)
}

// Validation is the traversal context handed to Validate methods.
type Validation struct {
	path  Path
	info  map[string]string
	store *Store
}

// New returns a root Validation with an empty path and a fresh store.
func New() Validation {
	return Validation{store: &Store{}}
}

// With returns a Validation one component deeper. The receiver is unchanged.
func (v Validation) With(c Component) Validation {
	path := make(Path, len(v.path), len(v.path)+1)
	copy(path, v.path)
	return Validation{path: append(path, c), info: v.info, store: v.store}
}

// WithInfo returns a Validation whose diagnostics all carry key=val in their
// info map, in addition to what the receiver already attaches. The receiver
// is unchanged.
func (v Validation) WithInfo(key, val string) Validation {
	info := make(map[string]string, len(v.info)+1)
	for k, x := range v.info {
		info[k] = x
	}
	info[key] = val
	v.info = info
	return v
}

// Path returns a copy of the current path.
func (v Validation) Path() Path {
	return slices.Clone(v.path)
}

// Store returns the shared diagnostic store.
func (v Validation) Store() *Store {
	return v.store
}

// Report records a diagnostic at the current path. kv is a flat list of
// info key/value pairs; a trailing odd key is ignored.
func (v Validation) Report(sev Severity, issue Issue, kv ...string) {
	var info map[string]string
	if len(v.info) > 0 || len(kv) >= 2 {
		info = make(map[string]string, len(v.info)+len(kv)/2)
		for k, x := range v.info {
			info[k] = x
		}
		for i := 0; i+1 < len(kv); i += 2 {
			info[kv[i]] = kv[i+1]
		}
	}
	v.store.add(Diagnostic{
		Severity: sev,
		Issue:    issue,
		Info:     info,
		Path:     v.Path(),
	})
}

// Error records an error.
func (v Validation) Error(issue Issue, kv ...string) {
	v.Report(SeverityError, issue, kv...)
}

// Warning records a warning.
func (v Validation) Warning(issue Issue, kv ...string) {
	v.Report(SeverityWarning, issue, kv...)
}

// Info records an informational diagnostic.
func (v Validation) Info(issue Issue, kv ...string) {
	v.Report(SeverityInfo, issue, kv...)
}

// Position formats a positional info value.
func Position(i int) string {
	return strconv.Itoa(i)
}
