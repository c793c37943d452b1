// Package uid normalizes, checks and generates DICOM unique identifiers.
package uid

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// MaxLength is the longest UID value allowed by the UI value representation.
const MaxLength = 64

// Normalize trims padding and strips leading zeros from every component of
// a UID ("1.02.003" becomes "1.2.3"; a component of only zeros becomes "0").
// Normalize is idempotent. Both the evidence list and the content tree
// of a manifest must be written through this function.
func Normalize(raw string) string {
	s := strings.Trim(raw, " \x00")
	if s == "" {
		return s
	}
	parts := strings.Split(s, ".")
	for i, p := range parts {
		if len(p) > 1 && p[0] == '0' {
			p = strings.TrimLeft(p, "0")
			if p == "" {
				p = "0"
			}
			parts[i] = p
		}
	}
	return strings.Join(parts, ".")
}

// Severity of a syntax problem.
type Severity int

const (
	// SeverityError marks a UID that violates the UI value representation.
	SeverityError Severity = iota
	// SeverityWarning marks a UID that is well formed but not recommended.
	SeverityWarning
)

// Problem describes one syntax problem in a UID.
type Problem struct {
	Severity Severity
	Message  string
}

// Check returns the syntax problems of a UID value. Padding is ignored.
// Leading-zero components are reported as warnings, everything else as errors.
func Check(value string) []Problem {
	s := strings.Trim(value, " \x00")
	if s == "" {
		return []Problem{{SeverityError, "UID is empty"}}
	}

	var problems []Problem
	if len(s) > MaxLength {
		problems = append(problems, Problem{SeverityError, fmt.Sprintf("UID is %d characters long (max %d)", len(s), MaxLength)})
	}
	for _, r := range s {
		if r != '.' && (r < '0' || r > '9') {
			problems = append(problems, Problem{SeverityError, fmt.Sprintf("UID contains invalid character %q", r)})
			break
		}
	}
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		problems = append(problems, Problem{SeverityError, "UID starts or ends with a dot"})
	}
	if strings.Contains(s, "..") {
		problems = append(problems, Problem{SeverityError, "UID contains an empty component"})
	}
	for _, p := range strings.Split(s, ".") {
		if len(p) > 1 && p[0] == '0' {
			problems = append(problems, Problem{SeverityWarning, fmt.Sprintf("UID component %q has a leading zero", p)})
			break
		}
	}
	return problems
}

// IsValid reports whether the UID has no error-level problems.
func IsValid(value string) bool {
	for _, p := range Check(value) {
		if p.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Generator produces fresh UIDs.
type Generator func() string

// Generate returns a new UID under the 2.25 root, derived from a random UUID.
func Generate() string {
	id := uuid.New()
	n := new(big.Int).SetBytes(id[:])
	return "2.25." + n.String()
}

// Sequential returns a deterministic generator yielding prefix.1, prefix.2, ...
func Sequential(prefix string) Generator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s.%d", prefix, n)
	}
}
