package interceptors

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"context"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"

	"github.com/tracekit/tracekit-go/contracts"
	"github.com/tracekit/tracekit-go/handlers"
	"github.com/tracekit/tracekit-go/templates"
)

// LoggerProvider supplies the logger behind a configured logger name. The
// pipeline never reads ambient global logging state; named logger selection
// always goes through this capability.
type LoggerProvider interface {
	Logger(name string) *slog.Logger
}

// LoggerProviderFunc adapts a function to LoggerProvider.
type LoggerProviderFunc func(name string) *slog.Logger

// Logger implements LoggerProvider.
func (f LoggerProviderFunc) Logger(name string) *slog.Logger {
	return f(name)
}

// HandlerResolver resolves an attribute's handler references to instances.
// Implemented by handlers.Registry.
type HandlerResolver interface {
	Resolve(refs []string, types []contracts.TypeRef) ([]contracts.TraceHandler, error)
}

// Pipeline executes the traced-call protocol around a caller-supplied
// proceed callback: attribute resolution, timing, templated enter/exit/error
// logging and ordered handler dispatch. Tracing is strictly observational:
// the wrapped call's return value and error pass through unchanged whether
// tracing is enabled or not.
//
// Pipelines are safe for concurrent use.
type Pipeline struct {
	resolver contracts.AttributeResolver
	handlers HandlerResolver
	msgs     *templates.Set
	loggers  LoggerProvider
	logger   *slog.Logger
	clock    clockz.Clock
}

// PipelineOption configures a Pipeline at construction.
type PipelineOption func(*Pipeline)

// WithTemplates overrides the message template set.
func WithTemplates(set *templates.Set) PipelineOption {
	return func(p *Pipeline) { p.msgs = set }
}

// WithLogger sets the pipeline's default logger, used when the resolved
// attribute names no logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// WithLoggerProvider sets the capability that materializes named loggers.
func WithLoggerProvider(provider LoggerProvider) PipelineOption {
	return func(p *Pipeline) { p.loggers = provider }
}

// WithClock overrides the clock used for invocation timestamps. Defaults to
// the real clock; inject a fake for deterministic timing tests.
func WithClock(clock clockz.Clock) PipelineOption {
	return func(p *Pipeline) { p.clock = clock }
}

// NewPipeline creates a pipeline over the given resolver and handler
// resolver. A nil handler resolver gets an empty registry, which warns and
// skips every named reference and rejects type references.
func NewPipeline(resolver contracts.AttributeResolver, handlerResolver HandlerResolver, opts ...PipelineOption) (*Pipeline, error) {
	if resolver == nil {
		return nil, fmt.Errorf("attribute resolver is required")
	}

	p := &Pipeline{
		resolver: resolver,
		handlers: handlerResolver,
		msgs:     templates.NewSet(),
		logger:   slog.Default(),
		clock:    clockz.RealClock,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.handlers == nil {
		p.handlers = handlers.NewRegistry(nil, nil, p.logger)
	}
	if p.loggers == nil {
		base := p.logger
		p.loggers = LoggerProviderFunc(func(name string) *slog.Logger {
			return base.With("logger", name)
		})
	}
	return p, nil
}

// Invoke runs the traced-call protocol around proceed and returns its result
// and error unchanged. The caller's own filter must only admit operations it
// has confirmed traceable: an unresolved attribute here is a precondition
// violation, not a silent skip.
func (p *Pipeline) Invoke(ctx context.Context, op contracts.Operation, target contracts.TypeRef, args []interface{}, proceed contracts.ProceedFunc) (interface{}, error) {
	attr := p.resolver.Resolve(op, target)
	if attr == nil {
		return nil, fmt.Errorf("%w: %s", contracts.ErrNotTraceable, op.QualifiedSignature(target))
	}

	if !attr.Enabled() {
		return proceed(ctx)
	}

	logger := p.logger
	if name := attr.LoggerName(); name != "" {
		logger = p.loggers.Logger(name)
	}

	resolved, err := p.handlers.Resolve(attr.HandlerRefs(), attr.HandlerTypes())
	if err != nil {
		return nil, err
	}

	inv := contracts.Invocation{
		ID:        uuid.NewString(),
		Target:    target,
		Operation: op,
		Args:      args,
	}

	start := p.clock.Now()

	if attr.LoggerEnabled() {
		logger.Info(p.msgs.Enter().Expand(templates.Context{
			Target:        target,
			Operation:     op,
			Args:          args,
			ElapsedMillis: templates.ElapsedUnknown,
		}), "invocationId", inv.ID)
	}

	for _, h := range resolved {
		if herr := h.BeforeHandle(ctx, inv, start); herr != nil {
			return nil, herr
		}
	}

	returnValue, callErr := proceed(ctx)

	end := p.clock.Now()
	elapsed := end.Sub(start)

	if callErr != nil {
		if attr.LoggerEnabled() {
			msg := p.msgs.Error().Expand(templates.Context{
				Target:        target,
				Operation:     op,
				Args:          args,
				Err:           callErr,
				ElapsedMillis: elapsed.Milliseconds(),
			})
			if attr.PrintStackTrace() {
				logger.Info(msg, "invocationId", inv.ID, "error", callErr, "stack", string(debug.Stack()))
			} else {
				logger.Info(msg, "invocationId", inv.ID, "error", callErr)
			}
		}
		for _, h := range resolved {
			if herr := h.ErrorHandle(ctx, inv, callErr, end); herr != nil {
				return nil, herr
			}
		}
		// Re-raise the original error unchanged.
		return nil, callErr
	}

	if attr.LoggerEnabled() {
		logger.Info(p.msgs.Exit().Expand(templates.Context{
			Target:        target,
			Operation:     op,
			Args:          args,
			ReturnValue:   returnValue,
			ElapsedMillis: elapsed.Milliseconds(),
		}), "invocationId", inv.ID, "duration", elapsed)
	}
	for _, h := range resolved {
		if herr := h.AfterHandle(ctx, inv, returnValue, end); herr != nil {
			return nil, herr
		}
	}
	return returnValue, nil
}
