package resolver

import (
	"log/slog"
	"sync"

	"github.com/tracekit/tracekit-go/contracts"
)

// MethodResolver finds the most specific declared form of an operation for a
// target type, resolving synthetic/bridge forms to their real declared
// counterparts. Supplied as a strategy so the resolver stays independent of
// any particular type-information facility; typeinfo.Registry implements it.
type MethodResolver interface {
	MostSpecific(op contracts.Operation, target contracts.TypeRef) contracts.Operation
}

// MethodResolverFunc adapts a function to MethodResolver.
type MethodResolverFunc func(op contracts.Operation, target contracts.TypeRef) contracts.Operation

// MostSpecific implements MethodResolver.
func (f MethodResolverFunc) MostSpecific(op contracts.Operation, target contracts.TypeRef) contracts.Operation {
	return f(op, target)
}

// absentAttribute is the canonical cache value meaning "resolved, no
// attribute applies", so misses are not recomputed.
var absentAttribute = &contracts.TraceAttribute{}

// FallbackResolver resolves (operation, target type) pairs to trace
// attributes over a single underlying source, applying a fixed fallback
// chain and caching every outcome:
//
//  1. the most specific form of the operation declared for the target type
//  2. that form's declaring type as a whole, for user-level operations
//  3. the originally-supplied operation, when step 1 generalized it
//  4. the original operation's declaring type, again user-level gated
//
// Operations declared on the universal base type never resolve. Results and
// misses are cached per operation identity; concurrent duplicate computation
// is tolerated because the chain is pure and deterministic.
type FallbackResolver struct {
	source     contracts.AttributeSource
	typeSource contracts.TypeAttributeSource
	methods    MethodResolver
	publicOnly bool
	universal  contracts.TypeRef
	logger     *slog.Logger

	cache sync.Map // cacheKey -> *contracts.TraceAttribute
}

type cacheKey struct {
	signature string
	declaring contracts.TypeRef
	target    contracts.TypeRef
}

// Option configures a FallbackResolver at construction.
type Option func(*FallbackResolver)

// WithMethodResolver plugs in the most-specific-operation strategy. Defaults
// to the identity strategy, which leaves operations unchanged.
func WithMethodResolver(m MethodResolver) Option {
	return func(r *FallbackResolver) { r.methods = m }
}

// WithPublicOnly restricts resolution to exported operations. The default
// allows all visibilities. Set once at construction, never per call.
func WithPublicOnly(publicOnly bool) Option {
	return func(r *FallbackResolver) { r.publicOnly = publicOnly }
}

// WithUniversalBase overrides the universal base type whose declared
// operations are always untraced. Defaults to contracts.AnyType.
func WithUniversalBase(t contracts.TypeRef) Option {
	return func(r *FallbackResolver) { r.universal = t }
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *FallbackResolver) { r.logger = logger }
}

// New creates a FallbackResolver over the given source. Class-level fallback
// engages only when the source also implements
// contracts.TypeAttributeSource.
func New(source contracts.AttributeSource, opts ...Option) (*FallbackResolver, error) {
	if source == nil {
		return nil, contracts.ErrMissingSource
	}

	r := &FallbackResolver{
		source:    source,
		universal: contracts.AnyType,
		methods: MethodResolverFunc(func(op contracts.Operation, _ contracts.TypeRef) contracts.Operation {
			return op
		}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if ts, ok := source.(contracts.TypeAttributeSource); ok {
		r.typeSource = ts
	}
	return r, nil
}

// Resolve implements contracts.AttributeResolver. Nil means the operation is
// untraced; that outcome is cached like any other.
func (r *FallbackResolver) Resolve(op contracts.Operation, target contracts.TypeRef) *contracts.TraceAttribute {
	if op.Declaring == r.universal {
		return nil
	}

	key := cacheKey{signature: op.Signature(), declaring: op.Declaring, target: target}
	if cached, ok := r.cache.Load(key); ok {
		attr := cached.(*contracts.TraceAttribute)
		if attr == absentAttribute {
			return nil
		}
		return attr
	}

	attr := r.compute(op, target)
	if attr == nil {
		r.cache.Store(key, absentAttribute)
		return nil
	}

	// Stamp the descriptor on a copy before publishing, keeping the
	// source's attribute untouched.
	descriptor := op.QualifiedSignature(target)
	published := attr.WithDescriptor(descriptor)
	r.logger.Debug("adding traceable operation",
		"descriptor", descriptor,
		"attribute", published.String(),
	)
	r.cache.Store(key, published)
	return published
}

// compute runs the fallback chain without touching the cache.
func (r *FallbackResolver) compute(op contracts.Operation, target contracts.TypeRef) *contracts.TraceAttribute {
	if r.publicOnly && !op.Exported {
		return nil
	}

	specific := r.methods.MostSpecific(op, target)

	// First try: the most specific form of the operation.
	if attr := r.source.OperationAttribute(specific, target); attr != nil {
		return attr
	}

	// Second try: class-level attribute on the specific declaring type.
	if r.typeSource != nil && op.UserLevel() {
		if attr := r.typeSource.TypeAttribute(specific.Declaring); attr != nil {
			return attr
		}
	}

	if !specific.Equal(op) {
		// Fallback: the originally-supplied operation.
		if attr := r.source.OperationAttribute(op, target); attr != nil {
			return attr
		}
		// Last fallback: the original operation's declaring type.
		if r.typeSource != nil && op.UserLevel() {
			if attr := r.typeSource.TypeAttribute(op.Declaring); attr != nil {
				return attr
			}
		}
	}

	return nil
}
