package diagnostic

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"factories-generator/internal/common"
)

// Diagnostic codes.
const (
	CodeUnresolvableProviderInterface = "UnresolvableProviderInterface"
	CodeInvalidDirective              = "InvalidDirective"
	CodeOutputWriteFailure            = "OutputWriteFailure"
	CodeEmptyAggregation              = "EmptyAggregation"
)

// Diagnostics holds all diagnostic information from one run.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Subject is the declaration this relates to (if any).
	Subject string
	// Resource is the output resource path this relates to (if any).
	Resource string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, subject, resource string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity: DiagnosticError,
		Code:     code,
		Message:  message,
		Subject:  subject,
		Resource: resource,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, subject, resource string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: DiagnosticWarning,
		Code:     code,
		Message:  message,
		Subject:  subject,
		Resource: resource,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, subject, resource string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: DiagnosticInfo,
		Code:     code,
		Message:  message,
		Subject:  subject,
		Resource: resource,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// Count returns how many diagnostics of any severity carry code.
func (d *Diagnostics) Count(code string) int {
	n := 0

	for _, group := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, diag := range group {
			if diag.Code == code {
				n++
			}
		}
	}

	return n
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Resource != "" {
		prefix = append(prefix, "["+d.Resource+"]")
	}

	if d.Subject != "" {
		prefix = append(prefix, d.Subject)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

// Collector is a Diagnostics safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	diags Diagnostics
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Info records an info diagnostic.
func (c *Collector) Info(code, message, subject, resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diags.AddInfo(code, message, subject, resource)
}

// Warn records a warning diagnostic.
func (c *Collector) Warn(code, message, subject, resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diags.AddWarning(code, message, subject, resource)
}

// Error records an error diagnostic.
func (c *Collector) Error(code, message, subject, resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diags.AddError(code, message, subject, resource)
}

// Snapshot returns a copy of everything collected so far.
func (c *Collector) Snapshot() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out Diagnostics
	out.Merge(c.diags)

	return out
}
