package contracts

import (
	"context"
	"time"
)

// Invocation carries the identity and inputs of one traced call. The ID is
// unique per invocation so handlers can correlate before/after/error phases
// of the same call.
type Invocation struct {
	ID        string
	Target    TypeRef
	Operation Operation
	Args      []interface{}
}

// TraceHandler observes traced calls. Handlers are dispatched sequentially
// and synchronously in resolution order; a non-nil error aborts remaining
// dispatch for that phase and propagates to the pipeline caller unchanged.
// Handler correctness is the handler author's responsibility.
type TraceHandler interface {
	// BeforeHandle runs after the enter log line, before the wrapped call.
	BeforeHandle(ctx context.Context, inv Invocation, at time.Time) error

	// ErrorHandle runs when the wrapped call returns an error. The cause
	// is the original, unwrapped error.
	ErrorHandle(ctx context.Context, inv Invocation, cause error, at time.Time) error

	// AfterHandle runs when the wrapped call succeeds, with its return
	// value and the end timestamp.
	AfterHandle(ctx context.Context, inv Invocation, returnValue interface{}, at time.Time) error
}

// ProceedFunc is the wrapped-call callback supplied by whatever performs the
// physical interception. It returns the operation's result or its error; the
// pipeline passes both through unchanged.
type ProceedFunc func(ctx context.Context) (interface{}, error)

// NamedLookup resolves handler instances by registration name. Implemented
// by the hosting application's registry or container.
type NamedLookup interface {
	Lookup(name string) (TraceHandler, bool)
}

// Instantiator constructs handler instances for type-identified references,
// wiring whatever dependencies the handler needs.
type Instantiator interface {
	New(t TypeRef) (TraceHandler, error)
}
