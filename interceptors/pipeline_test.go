package interceptors

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"github.com/tracekit/tracekit-go/contracts"
	"github.com/tracekit/tracekit-go/templates"
)

var userService = contracts.TypeRef{Qualified: "acme/app.UserService"}

func saveUser() contracts.Operation {
	return contracts.Operation{
		Name:      "SaveUser",
		Declaring: userService,
		Params:    []string{"string"},
		Returns:   "string",
		Exported:  true,
	}
}

// resolverFunc adapts a function to contracts.AttributeResolver.
type resolverFunc func(op contracts.Operation, target contracts.TypeRef) *contracts.TraceAttribute

func (f resolverFunc) Resolve(op contracts.Operation, target contracts.TypeRef) *contracts.TraceAttribute {
	return f(op, target)
}

func fixedAttr(attr *contracts.TraceAttribute) resolverFunc {
	return func(contracts.Operation, contracts.TypeRef) *contracts.TraceAttribute { return attr }
}

// captureHandler is a slog.Handler that records every emitted record.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := make([]string, len(h.records))
	for i, r := range h.records {
		msgs[i] = r.Message
	}
	return msgs
}

func (h *captureHandler) attrs(i int) map[string]slog.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]slog.Value)
	h.records[i].Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value
		return true
	})
	return out
}

// phase is one recorded handler callback.
type phase struct {
	name string
	kind string
	inv  contracts.Invocation
	at   time.Time
	err  error
}

// phaseRecorder is a TraceHandler writing every callback into a shared log,
// so dispatch order across handlers is observable.
type phaseRecorder struct {
	name      string
	log       *[]phase
	beforeErr error
	afterErr  error
}

func (h *phaseRecorder) BeforeHandle(_ context.Context, inv contracts.Invocation, at time.Time) error {
	*h.log = append(*h.log, phase{name: h.name, kind: "before", inv: inv, at: at})
	return h.beforeErr
}

func (h *phaseRecorder) AfterHandle(_ context.Context, inv contracts.Invocation, _ interface{}, at time.Time) error {
	*h.log = append(*h.log, phase{name: h.name, kind: "after", inv: inv, at: at})
	return h.afterErr
}

func (h *phaseRecorder) ErrorHandle(_ context.Context, inv contracts.Invocation, cause error, at time.Time) error {
	*h.log = append(*h.log, phase{name: h.name, kind: "error", inv: inv, at: at, err: cause})
	return nil
}

// fixedHandlers is a HandlerResolver returning a fixed slice.
type fixedHandlers struct {
	handlers []contracts.TraceHandler
	err      error
}

func (f *fixedHandlers) Resolve([]string, []contracts.TypeRef) ([]contracts.TraceHandler, error) {
	return f.handlers, f.err
}

func TestNewPipeline(t *testing.T) {
	t.Run("requires a resolver", func(t *testing.T) {
		_, err := NewPipeline(nil, nil)
		assert.Error(t, err)
	})
}

func TestInvokeUntraceable(t *testing.T) {
	p, err := NewPipeline(fixedAttr(nil), nil)
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), saveUser(), userService, nil, func(context.Context) (interface{}, error) {
		t.Fatal("proceed must not run for an untraceable operation")
		return nil, nil
	})

	require.ErrorIs(t, err, contracts.ErrNotTraceable)
	assert.Contains(t, err.Error(), "acme/app.UserService.SaveUser(string)")
}

func TestInvokeDisabled(t *testing.T) {
	capture := &captureHandler{}
	var phases []phase
	p, err := NewPipeline(
		fixedAttr(contracts.MustTraceAttribute(contracts.WithEnabled(false))),
		&fixedHandlers{handlers: []contracts.TraceHandler{&phaseRecorder{name: "h", log: &phases}}},
		WithLogger(slog.New(capture)),
	)
	require.NoError(t, err)

	calls := 0
	got, err := p.Invoke(context.Background(), saveUser(), userService, nil, func(context.Context) (interface{}, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, capture.messages(), "disabled tracing emits nothing")
	assert.Empty(t, phases, "disabled tracing dispatches no handlers")
}

func TestInvokeSuccess(t *testing.T) {
	capture := &captureHandler{}
	clock := clockz.NewFakeClock()
	var phases []phase
	first := &phaseRecorder{name: "first", log: &phases}
	second := &phaseRecorder{name: "second", log: &phases}

	p, err := NewPipeline(
		fixedAttr(contracts.MustTraceAttribute()),
		&fixedHandlers{handlers: []contracts.TraceHandler{first, second}},
		WithLogger(slog.New(capture)),
		WithClock(clock),
	)
	require.NoError(t, err)

	start := clock.Now()
	got, err := p.Invoke(context.Background(), saveUser(), userService, []interface{}{"alice"}, func(context.Context) (interface{}, error) {
		clock.Advance(150 * time.Millisecond)
		return "saved", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "saved", got)

	t.Run("enter and exit lines", func(t *testing.T) {
		msgs := capture.messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "acme/app.UserService.SaveUser(..) invoke start...", msgs[0])
		assert.Equal(t, "acme/app.UserService.SaveUser(..) invoke end... 150ms", msgs[1])
	})

	t.Run("both lines carry the same invocation id", func(t *testing.T) {
		enterID := capture.attrs(0)["invocationId"].String()
		exitID := capture.attrs(1)["invocationId"].String()
		assert.NotEmpty(t, enterID)
		assert.Equal(t, enterID, exitID)
	})

	t.Run("exit line carries the duration", func(t *testing.T) {
		duration, ok := capture.attrs(1)["duration"]
		require.True(t, ok)
		assert.Equal(t, 150*time.Millisecond, duration.Duration())
	})

	t.Run("handlers dispatch in order around the call", func(t *testing.T) {
		require.Len(t, phases, 4)
		assert.Equal(t, "before", phases[0].kind)
		assert.Equal(t, "first", phases[0].name)
		assert.Equal(t, "before", phases[1].kind)
		assert.Equal(t, "second", phases[1].name)
		assert.Equal(t, "after", phases[2].kind)
		assert.Equal(t, "first", phases[2].name)
		assert.Equal(t, "after", phases[3].kind)
		assert.Equal(t, "second", phases[3].name)
	})

	t.Run("handlers see consistent timestamps", func(t *testing.T) {
		assert.Equal(t, start, phases[0].at)
		assert.Equal(t, start, phases[1].at)
		assert.Equal(t, start.Add(150*time.Millisecond), phases[2].at)
		assert.Equal(t, phases[2].at, phases[3].at)
	})

	t.Run("handlers share the invocation", func(t *testing.T) {
		assert.Equal(t, phases[0].inv.ID, phases[3].inv.ID)
		assert.Equal(t, []interface{}{"alice"}, phases[0].inv.Args)
	})
}

func TestInvokeError(t *testing.T) {
	boom := errors.New("boom")

	newErrorPipeline := func(t *testing.T, attr *contracts.TraceAttribute, log *[]phase, clock clockz.Clock) (*Pipeline, *captureHandler) {
		t.Helper()
		capture := &captureHandler{}
		p, err := NewPipeline(
			fixedAttr(attr),
			&fixedHandlers{handlers: []contracts.TraceHandler{&phaseRecorder{name: "h", log: log}}},
			WithLogger(slog.New(capture)),
			WithClock(clock),
		)
		require.NoError(t, err)
		return p, capture
	}

	t.Run("the original error passes through unchanged", func(t *testing.T) {
		var phases []phase
		clock := clockz.NewFakeClock()
		p, capture := newErrorPipeline(t, contracts.MustTraceAttribute(), &phases, clock)

		got, err := p.Invoke(context.Background(), saveUser(), userService, nil, func(context.Context) (interface{}, error) {
			clock.Advance(40 * time.Millisecond)
			return nil, boom
		})

		assert.Nil(t, got)
		assert.Same(t, boom, err)

		msgs := capture.messages()
		require.Len(t, msgs, 2, "enter and error lines only, no exit line")
		assert.Equal(t, "acme/app.UserService.SaveUser(..) invoke thrown error... 40ms", msgs[1])

		require.Len(t, phases, 2)
		assert.Equal(t, "before", phases[0].kind)
		assert.Equal(t, "error", phases[1].kind)
		assert.Same(t, boom, phases[1].err)
	})

	t.Run("stack detail is off by default", func(t *testing.T) {
		var phases []phase
		p, capture := newErrorPipeline(t, contracts.MustTraceAttribute(), &phases, clockz.NewFakeClock())

		_, err := p.Invoke(context.Background(), saveUser(), userService, nil, func(context.Context) (interface{}, error) {
			return nil, boom
		})
		require.Same(t, boom, err)

		attrs := capture.attrs(1)
		assert.Contains(t, attrs, "error")
		assert.NotContains(t, attrs, "stack")
	})

	t.Run("printStackTrace adds the stack attribute", func(t *testing.T) {
		var phases []phase
		attr := contracts.MustTraceAttribute(contracts.WithPrintStackTrace(true))
		p, capture := newErrorPipeline(t, attr, &phases, clockz.NewFakeClock())

		_, err := p.Invoke(context.Background(), saveUser(), userService, nil, func(context.Context) (interface{}, error) {
			return nil, boom
		})
		require.Same(t, boom, err)

		attrs := capture.attrs(1)
		require.Contains(t, attrs, "stack")
		assert.Contains(t, attrs["stack"].String(), "goroutine")
	})
}

func TestInvokeHandlerFailures(t *testing.T) {
	t.Run("a before-phase error aborts the call", func(t *testing.T) {
		abort := errors.New("vetoed")
		var phases []phase
		failing := &phaseRecorder{name: "failing", log: &phases, beforeErr: abort}
		next := &phaseRecorder{name: "next", log: &phases}

		p, err := NewPipeline(
			fixedAttr(contracts.MustTraceAttribute()),
			&fixedHandlers{handlers: []contracts.TraceHandler{failing, next}},
			WithLogger(slog.New(&captureHandler{})),
		)
		require.NoError(t, err)

		_, err = p.Invoke(context.Background(), saveUser(), userService, nil, func(context.Context) (interface{}, error) {
			t.Fatal("proceed must not run after a dispatch abort")
			return nil, nil
		})

		assert.Same(t, abort, err)
		require.Len(t, phases, 1, "dispatch stops at the failing handler")
	})

	t.Run("handler resolution errors surface before the call", func(t *testing.T) {
		resolveErr := errors.New("no instantiator")
		p, err := NewPipeline(
			fixedAttr(contracts.MustTraceAttribute()),
			&fixedHandlers{err: resolveErr},
			WithLogger(slog.New(&captureHandler{})),
		)
		require.NoError(t, err)

		_, err = p.Invoke(context.Background(), saveUser(), userService, nil, func(context.Context) (interface{}, error) {
			t.Fatal("proceed must not run when handlers cannot be resolved")
			return nil, nil
		})

		assert.Same(t, resolveErr, err)
	})
}

func TestInvokeLogging(t *testing.T) {
	t.Run("loggerEnabled=false silences messages but keeps handlers", func(t *testing.T) {
		capture := &captureHandler{}
		var phases []phase
		p, err := NewPipeline(
			fixedAttr(contracts.MustTraceAttribute(contracts.WithLoggerEnabled(false))),
			&fixedHandlers{handlers: []contracts.TraceHandler{&phaseRecorder{name: "h", log: &phases}}},
			WithLogger(slog.New(capture)),
		)
		require.NoError(t, err)

		got, err := p.Invoke(context.Background(), saveUser(), userService, nil, func(context.Context) (interface{}, error) {
			return "ok", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Empty(t, capture.messages())
		assert.Len(t, phases, 2)
	})

	t.Run("a named logger routes through the provider", func(t *testing.T) {
		defaultCapture := &captureHandler{}
		namedCapture := &captureHandler{}
		var requested []string

		p, err := NewPipeline(
			fixedAttr(contracts.MustTraceAttribute(contracts.WithLoggerName("audit"))),
			nil,
			WithLogger(slog.New(defaultCapture)),
			WithLoggerProvider(LoggerProviderFunc(func(name string) *slog.Logger {
				requested = append(requested, name)
				return slog.New(namedCapture)
			})),
		)
		require.NoError(t, err)

		_, err = p.Invoke(context.Background(), saveUser(), userService, nil, func(context.Context) (interface{}, error) {
			return nil, nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"audit"}, requested)
		assert.Empty(t, defaultCapture.messages())
		assert.Len(t, namedCapture.messages(), 2)
	})

	t.Run("custom templates drive the emitted lines", func(t *testing.T) {
		capture := &captureHandler{}
		set := templates.NewSet()
		require.NoError(t, set.SetEnter(">> $[targetTypeShort].$[operation]"))
		require.NoError(t, set.SetExit("<< $[operation] = $[returnValue]"))

		p, err := NewPipeline(
			fixedAttr(contracts.MustTraceAttribute()),
			nil,
			WithLogger(slog.New(capture)),
			WithTemplates(set),
		)
		require.NoError(t, err)

		_, err = p.Invoke(context.Background(), saveUser(), userService, nil, func(context.Context) (interface{}, error) {
			return "saved", nil
		})

		require.NoError(t, err)
		msgs := capture.messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, ">> UserService.SaveUser", msgs[0])
		assert.Equal(t, "<< SaveUser = saved", msgs[1])
	})
}
