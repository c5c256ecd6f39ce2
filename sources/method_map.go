package sources

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tracekit/tracekit-go/contracts"
	"github.com/tracekit/tracekit-go/typeinfo"
)

// MethodMapSource binds attributes to individual operations, keyed by
// fully-qualified "pkg.Type.methodNamePattern" entries. Pattern expansion is
// eager: at registration time every declared operation of the named type
// whose name matches the pattern is bound individually. An operation already
// bound through a longer (more specific) pattern keeps its binding; an
// equal-length pattern does not overwrite.
type MethodMapSource struct {
	mu       sync.RWMutex
	types    *typeinfo.Registry
	attrs    map[operationKey]*contracts.TraceAttribute
	bindings map[operationKey]string
	logger   *slog.Logger
}

type operationKey struct {
	declaring contracts.TypeRef
	signature string
}

// NewMethodMapSource creates a method-map source backed by the given type
// registry, which supplies each type's declared operations for pattern
// expansion.
func NewMethodMapSource(types *typeinfo.Registry, logger *slog.Logger) (*MethodMapSource, error) {
	if types == nil {
		return nil, fmt.Errorf("type registry is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MethodMapSource{
		types:    types,
		attrs:    make(map[operationKey]*contracts.TraceAttribute),
		bindings: make(map[operationKey]string),
		logger:   logger,
	}, nil
}

// AddTraceableMethod registers an attribute under a fully-qualified name of
// the form "pkg.Type.methodNamePattern".
func (s *MethodMapSource) AddTraceableMethod(qualified string, attr *contracts.TraceAttribute) error {
	lastDot := strings.LastIndex(qualified, ".")
	if lastDot == -1 {
		return fmt.Errorf("%q is not a valid method name: format is Type.methodName", qualified)
	}
	t := contracts.TypeRef{Qualified: qualified[:lastDot]}
	return s.AddTraceableOperations(t, qualified[lastDot+1:], attr)
}

// AddTraceableOperations expands a name pattern against the declared
// operations of t and binds the attribute to every match. Failing to match
// anything is a configuration error.
func (s *MethodMapSource) AddTraceableOperations(t contracts.TypeRef, pattern string, attr *contracts.TraceAttribute) error {
	ops, ok := s.types.DeclaredOperations(t)
	if !ok {
		return fmt.Errorf("type %s is not registered", t.Qualified)
	}

	var matching []contracts.Operation
	for _, op := range ops {
		if simpleMatch(pattern, op.Name) {
			matching = append(matching, op)
		}
	}
	if len(matching) == 0 {
		return fmt.Errorf("no operation matching %q on type %s", pattern, t.Qualified)
	}

	name := t.Qualified + "." + pattern

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range matching {
		key := operationKey{declaring: op.Declaring, signature: op.Signature()}
		bound := s.bindings[key]
		if bound != "" && len(bound) >= len(name) {
			s.logger.Debug("keeping attribute for traceable operation",
				"operation", op.Signature(),
				"bound", bound,
				"candidate", name,
			)
			continue
		}
		if bound != "" {
			s.logger.Debug("replacing attribute for traceable operation",
				"operation", op.Signature(),
				"bound", bound,
				"candidate", name,
			)
		}
		s.bindings[key] = name
		s.attrs[key] = attr
	}
	return nil
}

// OperationAttribute implements contracts.AttributeSource by exact lookup of
// the eagerly-bound operation.
func (s *MethodMapSource) OperationAttribute(op contracts.Operation, target contracts.TypeRef) *contracts.TraceAttribute {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.attrs[operationKey{declaring: op.Declaring, signature: op.Signature()}]
}
