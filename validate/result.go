package validate

import (
	"fmt"
	"strings"
)

// Severity of a validation finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// MarshalYAML renders the severity by name.
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Message is one validation finding. Module names the information module
// or check that produced it; Path is a breadcrumb into the document.
type Message struct {
	Severity Severity `yaml:"severity"`
	Module   string   `yaml:"module"`
	Text     string   `yaml:"text"`
	Path     string   `yaml:"path,omitempty"`
}

func (m Message) String() string {
	if m.Path == "" {
		return fmt.Sprintf("%s [%s] %s", m.Severity, m.Module, m.Text)
	}
	return fmt.Sprintf("%s [%s] %s: %s", m.Severity, m.Module, m.Path, m.Text)
}

// Result is the ordered list of findings of one validation run.
type Result struct {
	Messages []Message `yaml:"messages"`
}

func (r *Result) add(sev Severity, module, path, format string, args ...interface{}) {
	r.Messages = append(r.Messages, Message{
		Severity: sev,
		Module:   module,
		Text:     fmt.Sprintf(format, args...),
		Path:     path,
	})
}

// Errorf records an ERROR finding.
func (r *Result) Errorf(module, path, format string, args ...interface{}) {
	r.add(SeverityError, module, path, format, args...)
}

// Warnf records a WARNING finding.
func (r *Result) Warnf(module, path, format string, args ...interface{}) {
	r.add(SeverityWarning, module, path, format, args...)
}

// Infof records an INFO finding.
func (r *Result) Infof(module, path, format string, args ...interface{}) {
	r.add(SeverityInfo, module, path, format, args...)
}

// IsValid reports whether no ERROR finding exists.
func (r *Result) IsValid() bool {
	return r.Count(SeverityError) == 0
}

// Count returns the number of findings with the given severity.
func (r *Result) Count(sev Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// Errors returns the ERROR findings.
func (r *Result) Errors() []Message {
	return r.Filter(func(m Message) bool { return m.Severity == SeverityError })
}

// Warnings returns the WARNING findings.
func (r *Result) Warnings() []Message {
	return r.Filter(func(m Message) bool { return m.Severity == SeverityWarning })
}

// Filter returns the findings matching keep, in order.
func (r *Result) Filter(keep func(Message) bool) []Message {
	var out []Message
	for _, m := range r.Messages {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// ByModule returns the findings produced for module.
func (r *Result) ByModule(module string) []Message {
	return r.Filter(func(m Message) bool { return m.Module == module })
}

// HasErrorAt reports whether an ERROR has been recorded for path.
func (r *Result) HasErrorAt(path string) bool {
	for _, m := range r.Messages {
		if m.Severity == SeverityError && m.Path == path {
			return true
		}
	}
	return false
}

// Merge appends the findings of o.
func (r *Result) Merge(o *Result) {
	if o == nil {
		return
	}
	r.Messages = append(r.Messages, o.Messages...)
}

// String renders one finding per line.
func (r *Result) String() string {
	var b strings.Builder
	for _, m := range r.Messages {
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	return b.String()
}
