package sources

import (
	"fmt"

	"github.com/tracekit/tracekit-go/contracts"
)

// CompositeSource aggregates an ordered list of attribute sources:
// first non-nil result wins, for operation-level and type-level lookups
// alike.
type CompositeSource struct {
	sources []contracts.AttributeSource
}

// NewCompositeSource combines the given sources, requiring at least one.
func NewCompositeSource(srcs ...contracts.AttributeSource) (*CompositeSource, error) {
	if len(srcs) == 0 {
		return nil, fmt.Errorf("%w: composite needs at least one source", contracts.ErrMissingSource)
	}
	return &CompositeSource{sources: srcs}, nil
}

// Sources returns the combined sources in consultation order.
func (s *CompositeSource) Sources() []contracts.AttributeSource {
	return append([]contracts.AttributeSource(nil), s.sources...)
}

// OperationAttribute implements contracts.AttributeSource.
func (s *CompositeSource) OperationAttribute(op contracts.Operation, target contracts.TypeRef) *contracts.TraceAttribute {
	for _, src := range s.sources {
		if attr := src.OperationAttribute(op, target); attr != nil {
			return attr
		}
	}
	return nil
}

// TypeAttribute implements contracts.TypeAttributeSource, consulting only
// the member sources that carry class-level attributes.
func (s *CompositeSource) TypeAttribute(t contracts.TypeRef) *contracts.TraceAttribute {
	for _, src := range s.sources {
		ts, ok := src.(contracts.TypeAttributeSource)
		if !ok {
			continue
		}
		if attr := ts.TypeAttribute(t); attr != nil {
			return attr
		}
	}
	return nil
}
