// Package diagnostics accumulates non-fatal warnings produced while a build
// plan is assembled, and threads a structured logger through the pipeline
// the way github.com/Azure/dalec's handlers thread a *logrus.Entry.
package diagnostics

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Kind identifies a warning-level diagnostic. Fatal errors are returned as
// Go errors directly and never appear here; see the error types in the
// planner package's errors.go.
type Kind string

const (
	PkgConfigMissing            Kind = "pkg-config-missing"
	ToolsVersionFeatureDropped  Kind = "tools-version-feature-unavailable"
	ToolchainFlagUnsupported    Kind = "toolchain-flag-unsupported"
	UnknownBinaryArtifactSkip   Kind = "unknown-binary-artifact-variant"
	UserFlagDestinationUnfiltered Kind = "user-flag-applied-unfiltered"
)

// Diagnostic is a single accumulated warning.
type Diagnostic struct {
	Kind    Kind
	Message string
	Context map[string]string
}

// Collector accumulates diagnostics and exposes a logger that also records
// warnings passed through it. It is safe for concurrent use, mirroring the
// engine's "safe to invoke concurrently with distinct inputs" guarantee
// (spec.md §5) even though no internal concurrency is otherwise used.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
	log   *logrus.Entry
}

// NewCollector creates a Collector that logs through the given logger, or
// logrus.StandardLogger() if nil.
func NewCollector(base *logrus.Logger) *Collector {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &Collector{log: logrus.NewEntry(base)}
}

// Warn records a diagnostic and logs it at Warn level.
func (c *Collector) Warn(kind Kind, message string, context map[string]string) {
	c.mu.Lock()
	c.items = append(c.items, Diagnostic{Kind: kind, Message: message, Context: context})
	c.mu.Unlock()

	fields := logrus.Fields{"kind": string(kind)}
	for k, v := range context {
		fields[k] = v
	}
	c.log.WithFields(fields).Warn(message)
}

// WithField returns a derived logger carrying an extra structured field,
// for callers that want to log informational (non-diagnostic) messages
// scoped to a module or product without polluting the Collector.
func (c *Collector) WithField(key string, value interface{}) *logrus.Entry {
	return c.log.WithField(key, value)
}

// Items returns a snapshot of all diagnostics recorded so far, in the order
// they were recorded.
func (c *Collector) Items() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}
