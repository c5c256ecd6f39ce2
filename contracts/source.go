package contracts

// AttributeSource maps an operation to its trace attribute. A nil return
// means the source has no opinion; composition and fallback happen above
// this contract.
type AttributeSource interface {
	// OperationAttribute returns the attribute configured for the given
	// operation on the given target type, or nil if none matches. The
	// target may be zero, in which case the operation's declaring type
	// applies.
	OperationAttribute(op Operation, target TypeRef) *TraceAttribute
}

// TypeAttributeSource is implemented by sources that can also carry
// class-level attributes. The fallback resolver upgrades to this interface
// for its type-level fallback steps; sources that only know about
// operations simply don't implement it.
type TypeAttributeSource interface {
	// TypeAttribute returns the attribute configured for the type as a
	// whole, or nil.
	TypeAttribute(t TypeRef) *TraceAttribute
}

// AttributeResolver is the cached, fallback-aware front of attribute
// resolution consumed by the interception pipeline.
type AttributeResolver interface {
	// Resolve returns the effective attribute for the operation, or nil
	// if the operation is untraced.
	Resolve(op Operation, target TypeRef) *TraceAttribute
}
