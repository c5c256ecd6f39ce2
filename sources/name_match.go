package sources

import (
	"log/slog"
	"sync"

	"github.com/tracekit/tracekit-go/contracts"
)

// NameMatchSource matches operations by registered method name. Names can be
// exact, or use the "xxx*", "*xxx" and "*xxx*" pattern forms. When several
// patterns match, the longest pattern string wins; the first-registered
// entry wins among patterns of equal length.
type NameMatchSource struct {
	mu      sync.RWMutex
	entries []nameEntry
	logger  *slog.Logger
}

type nameEntry struct {
	pattern string
	attr    *contracts.TraceAttribute
}

// NewNameMatchSource creates an empty name-matching source.
func NewNameMatchSource(logger *slog.Logger) *NameMatchSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &NameMatchSource{logger: logger}
}

// AddTraceableOperation registers an attribute under a method name or name
// pattern.
func (s *NameMatchSource) AddTraceableOperation(pattern string, attr *contracts.TraceAttribute) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("adding traceable operation",
		"pattern", pattern,
		"attribute", attr.String(),
	)
	s.entries = append(s.entries, nameEntry{pattern: pattern, attr: attr})
}

// OperationAttribute implements contracts.AttributeSource. Synthetic
// operations never match by name.
func (s *NameMatchSource) OperationAttribute(op contracts.Operation, target contracts.TypeRef) *contracts.TraceAttribute {
	if !op.UserLevel() {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Direct name match beats any pattern.
	for _, entry := range s.entries {
		if entry.pattern == op.Name {
			return entry.attr
		}
	}

	var best *nameEntry
	for i := range s.entries {
		entry := &s.entries[i]
		if !simpleMatch(entry.pattern, op.Name) {
			continue
		}
		// Longest pattern wins; ties keep the earlier registration.
		if best == nil || len(entry.pattern) > len(best.pattern) {
			best = entry
		}
	}
	if best == nil {
		return nil
	}
	return best.attr
}
