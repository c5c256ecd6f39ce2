// Package tracekit wires declarative, low-overhead tracing around arbitrary
// operation calls: an attribute resolution engine decides per operation,
// from configuration rather than code changes, whether to log entry, exit
// and error events and which pluggable handlers to invoke with call
// metadata.
//
// The root package is a thin facade over the building blocks: the sources
// package supplies attribute lookup, resolver adds fallback and caching,
// templates renders log lines, handlers resolves handler instances, and
// interceptors runs the protocol around the wrapped call.
package tracekit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zoobzio/clockz"

	"github.com/tracekit/tracekit-go/contracts"
	"github.com/tracekit/tracekit-go/handlers"
	"github.com/tracekit/tracekit-go/interceptors"
	"github.com/tracekit/tracekit-go/resolver"
	"github.com/tracekit/tracekit-go/templates"
	"github.com/tracekit/tracekit-go/typeinfo"
)

// Tracer is the assembled tracing facility: resolver, handler registry and
// interception pipeline behind one entry point.
type Tracer struct {
	pipeline *interceptors.Pipeline
	resolver *resolver.FallbackResolver
	registry *handlers.Registry
}

type tracerConfig struct {
	logger       *slog.Logger
	clock        clockz.Clock
	msgs         *templates.Set
	types        *typeinfo.Registry
	source       contracts.AttributeSource
	lookup       contracts.NamedLookup
	instantiator contracts.Instantiator
	provider     interceptors.LoggerProvider
	publicOnly   bool
}

// TracerOption configures a Tracer under construction.
type TracerOption func(*tracerConfig)

// WithLogger sets the default logger for the resolver and pipeline.
func WithLogger(logger *slog.Logger) TracerOption {
	return func(c *tracerConfig) { c.logger = logger }
}

// WithClock overrides the pipeline clock.
func WithClock(clock clockz.Clock) TracerOption {
	return func(c *tracerConfig) { c.clock = clock }
}

// WithTemplates overrides the message template set.
func WithTemplates(set *templates.Set) TracerOption {
	return func(c *tracerConfig) { c.msgs = set }
}

// WithSource sets the attribute source the resolver wraps. Required.
func WithSource(source contracts.AttributeSource) TracerOption {
	return func(c *tracerConfig) { c.source = source }
}

// WithTypeRegistry plugs a type registry in as the most-specific-operation
// strategy.
func WithTypeRegistry(types *typeinfo.Registry) TracerOption {
	return func(c *tracerConfig) { c.types = types }
}

// WithPublicOnly restricts resolution to exported operations.
func WithPublicOnly(publicOnly bool) TracerOption {
	return func(c *tracerConfig) { c.publicOnly = publicOnly }
}

// WithNamedLookup sets the registry collaborator for name references.
func WithNamedLookup(lookup contracts.NamedLookup) TracerOption {
	return func(c *tracerConfig) { c.lookup = lookup }
}

// WithInstantiator sets the registry collaborator for type references.
func WithInstantiator(instantiator contracts.Instantiator) TracerOption {
	return func(c *tracerConfig) { c.instantiator = instantiator }
}

// WithLoggerProvider sets the capability that materializes named loggers.
func WithLoggerProvider(provider interceptors.LoggerProvider) TracerOption {
	return func(c *tracerConfig) { c.provider = provider }
}

// New assembles a Tracer from an attribute source and options.
func New(options ...TracerOption) (*Tracer, error) {
	cfg := &tracerConfig{
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(cfg)
	}
	if cfg.source == nil {
		return nil, fmt.Errorf("failed to create tracer: %w", contracts.ErrMissingSource)
	}

	resolverOpts := []resolver.Option{
		resolver.WithLogger(cfg.logger),
		resolver.WithPublicOnly(cfg.publicOnly),
	}
	if cfg.types != nil {
		resolverOpts = append(resolverOpts, resolver.WithMethodResolver(cfg.types))
	}
	res, err := resolver.New(cfg.source, resolverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	registry := handlers.NewRegistry(cfg.lookup, cfg.instantiator, cfg.logger)

	pipelineOpts := []interceptors.PipelineOption{
		interceptors.WithLogger(cfg.logger),
	}
	if cfg.msgs != nil {
		pipelineOpts = append(pipelineOpts, interceptors.WithTemplates(cfg.msgs))
	}
	if cfg.clock != nil {
		pipelineOpts = append(pipelineOpts, interceptors.WithClock(cfg.clock))
	}
	if cfg.provider != nil {
		pipelineOpts = append(pipelineOpts, interceptors.WithLoggerProvider(cfg.provider))
	}
	pipeline, err := interceptors.NewPipeline(res, registry, pipelineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	return &Tracer{
		pipeline: pipeline,
		resolver: res,
		registry: registry,
	}, nil
}

// Invoke runs the traced-call protocol around proceed.
func (t *Tracer) Invoke(ctx context.Context, op contracts.Operation, target contracts.TypeRef, args []interface{}, proceed contracts.ProceedFunc) (interface{}, error) {
	return t.pipeline.Invoke(ctx, op, target, args, proceed)
}

// Resolver exposes the attribute resolver, e.g. for the host's own
// is-this-traceable filtering before it builds an interception point.
func (t *Tracer) Resolver() contracts.AttributeResolver {
	return t.resolver
}

// Pipeline exposes the underlying interception pipeline.
func (t *Tracer) Pipeline() *interceptors.Pipeline {
	return t.pipeline
}

// Handlers exposes the handler registry.
func (t *Tracer) Handlers() *handlers.Registry {
	return t.registry
}
