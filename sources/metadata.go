package sources

import (
	"fmt"
	"sync"

	"github.com/tracekit/tracekit-go/contracts"
)

// MetadataParser is the strategy interface for reading trace configuration
// attached to operations or types by some external mechanism (code
// generation, struct tags, a registration DSL). A nil result means the
// parser found no trace metadata.
type MetadataParser interface {
	ParseOperation(op contracts.Operation, target contracts.TypeRef) *contracts.TraceAttribute
	ParseType(t contracts.TypeRef) *contracts.TraceAttribute
}

// MetadataSource adapts parser strategies to the attribute source contract:
// parsers are consulted in registration order and the first non-nil result
// wins. The source itself is a thin adapter; fallback logic lives in the
// resolver.
type MetadataSource struct {
	parsers []MetadataParser
}

// NewMetadataSource creates a source over the given parsers, requiring at
// least one.
func NewMetadataSource(parsers ...MetadataParser) (*MetadataSource, error) {
	if len(parsers) == 0 {
		return nil, fmt.Errorf("at least one metadata parser is required")
	}
	return &MetadataSource{parsers: parsers}, nil
}

// OperationAttribute implements contracts.AttributeSource.
func (s *MetadataSource) OperationAttribute(op contracts.Operation, target contracts.TypeRef) *contracts.TraceAttribute {
	for _, parser := range s.parsers {
		if attr := parser.ParseOperation(op, target); attr != nil {
			return attr
		}
	}
	return nil
}

// TypeAttribute implements contracts.TypeAttributeSource, enabling
// class-level fallback for metadata-configured types.
func (s *MetadataSource) TypeAttribute(t contracts.TypeRef) *contracts.TraceAttribute {
	for _, parser := range s.parsers {
		if attr := parser.ParseType(t); attr != nil {
			return attr
		}
	}
	return nil
}

// StaticMetadata is a map-backed MetadataParser for programmatic
// registration, the default strategy when no external metadata mechanism is
// plugged in.
type StaticMetadata struct {
	mu    sync.RWMutex
	ops   map[string]*contracts.TraceAttribute
	types map[contracts.TypeRef]*contracts.TraceAttribute
}

// NewStaticMetadata creates an empty programmatic metadata parser.
func NewStaticMetadata() *StaticMetadata {
	return &StaticMetadata{
		ops:   make(map[string]*contracts.TraceAttribute),
		types: make(map[contracts.TypeRef]*contracts.TraceAttribute),
	}
}

// RegisterOperation attaches an attribute to one specific operation.
func (m *StaticMetadata) RegisterOperation(op contracts.Operation, attr *contracts.TraceAttribute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[opIdentity(op)] = attr
}

// RegisterType attaches a class-level attribute to a type.
func (m *StaticMetadata) RegisterType(t contracts.TypeRef, attr *contracts.TraceAttribute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[t] = attr
}

// ParseOperation implements MetadataParser.
func (m *StaticMetadata) ParseOperation(op contracts.Operation, target contracts.TypeRef) *contracts.TraceAttribute {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ops[opIdentity(op)]
}

// ParseType implements MetadataParser.
func (m *StaticMetadata) ParseType(t contracts.TypeRef) *contracts.TraceAttribute {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.types[t]
}

func opIdentity(op contracts.Operation) string {
	return op.Declaring.Qualified + "." + op.Signature()
}
