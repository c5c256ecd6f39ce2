package contracts

import (
	"fmt"
	"strings"
)

// TraceAttribute is the resolved tracing configuration for an operation.
// Attributes are immutable once constructed; the resolver publishes a copy
// when it stamps the descriptor, so an attribute visible to one goroutine is
// never mutated by another.
type TraceAttribute struct {
	enabled         bool
	loggerEnabled   bool
	loggerName      string
	handlerRefs     []string
	handlerTypes    []TypeRef
	printStackTrace bool
	qualifier       string
	descriptor      string
}

// AttributeOption configures a TraceAttribute under construction.
type AttributeOption func(*TraceAttribute)

// WithEnabled sets the master switch. Disabled attributes turn the pipeline
// into a pass-through.
func WithEnabled(enabled bool) AttributeOption {
	return func(a *TraceAttribute) { a.enabled = enabled }
}

// WithLoggerEnabled gates emission of templated log lines. Handlers run
// regardless.
func WithLoggerEnabled(enabled bool) AttributeOption {
	return func(a *TraceAttribute) { a.loggerEnabled = enabled }
}

// WithLoggerName routes log lines to a named logger instead of the
// pipeline's default one.
func WithLoggerName(name string) AttributeOption {
	return func(a *TraceAttribute) { a.loggerName = name }
}

// WithHandlerRefs names the handlers to dispatch, resolved through the
// registry's named lookup. Mutually exclusive with WithHandlerTypes.
func WithHandlerRefs(refs ...string) AttributeOption {
	return func(a *TraceAttribute) { a.handlerRefs = append([]string(nil), refs...) }
}

// WithHandlerTypes identifies handlers by type, instantiated and cached by
// the registry. Mutually exclusive with WithHandlerRefs.
func WithHandlerTypes(types ...TypeRef) AttributeOption {
	return func(a *TraceAttribute) { a.handlerTypes = append([]TypeRef(nil), types...) }
}

// WithPrintStackTrace controls whether error log lines carry full stack
// detail.
func WithPrintStackTrace(print bool) AttributeOption {
	return func(a *TraceAttribute) { a.printStackTrace = print }
}

// WithQualifier sets the opaque qualifier, reserved for future extension.
func WithQualifier(q string) AttributeOption {
	return func(a *TraceAttribute) { a.qualifier = q }
}

// NewTraceAttribute builds an attribute. Tracing and logging default to
// enabled. Setting both handler refs and handler types is a configuration
// error raised here, never at call time.
func NewTraceAttribute(opts ...AttributeOption) (*TraceAttribute, error) {
	a := &TraceAttribute{
		enabled:       true,
		loggerEnabled: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	if len(a.handlerRefs) > 0 && len(a.handlerTypes) > 0 {
		return nil, fmt.Errorf("%w: refs %v, types %v", ErrHandlerConflict, a.handlerRefs, a.handlerTypes)
	}
	return a, nil
}

// MustTraceAttribute is NewTraceAttribute that panics on configuration
// errors. Intended for programmatic setup where the options are literals.
func MustTraceAttribute(opts ...AttributeOption) *TraceAttribute {
	a, err := NewTraceAttribute(opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// Enabled reports the master switch.
func (a *TraceAttribute) Enabled() bool { return a.enabled }

// LoggerEnabled reports whether templated log lines are emitted.
func (a *TraceAttribute) LoggerEnabled() bool { return a.loggerEnabled }

// LoggerName returns the named logger override, empty for the default.
func (a *TraceAttribute) LoggerName() string { return a.loggerName }

// HandlerRefs returns the named handler references, in dispatch order.
func (a *TraceAttribute) HandlerRefs() []string {
	return append([]string(nil), a.handlerRefs...)
}

// HandlerTypes returns the type-identified handler references, in dispatch
// order.
func (a *TraceAttribute) HandlerTypes() []TypeRef {
	return append([]TypeRef(nil), a.handlerTypes...)
}

// PrintStackTrace reports whether error output carries stack detail.
func (a *TraceAttribute) PrintStackTrace() bool { return a.printStackTrace }

// Qualifier returns the opaque qualifier.
func (a *TraceAttribute) Qualifier() string { return a.qualifier }

// Descriptor returns the qualified signature stamped by the resolver on
// first successful resolution, empty until then.
func (a *TraceAttribute) Descriptor() string { return a.descriptor }

// WithDescriptor returns a copy of the attribute with the descriptor set.
// The receiver is left untouched; this is how the resolver stamps the
// descriptor without mutating a published attribute.
func (a *TraceAttribute) WithDescriptor(descriptor string) *TraceAttribute {
	clone := *a
	clone.descriptor = descriptor
	return &clone
}

// String renders the attribute for diagnostics.
func (a *TraceAttribute) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TraceAttribute{enabled=%t, loggerEnabled=%t", a.enabled, a.loggerEnabled)
	if a.loggerName != "" {
		fmt.Fprintf(&b, ", logger=%s", a.loggerName)
	}
	if len(a.handlerRefs) > 0 {
		fmt.Fprintf(&b, ", handlerRefs=%v", a.handlerRefs)
	}
	if len(a.handlerTypes) > 0 {
		fmt.Fprintf(&b, ", handlerTypes=%v", a.handlerTypes)
	}
	if a.descriptor != "" {
		fmt.Fprintf(&b, ", descriptor=%s", a.descriptor)
	}
	b.WriteString("}")
	return b.String()
}
