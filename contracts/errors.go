package contracts

import "errors"

var (
	// ErrHandlerConflict indicates that both handler refs and handler
	// types were configured on one attribute. Raised at construction
	// time, never at call time.
	ErrHandlerConflict = errors.New("handlerRefs and handlerTypes are mutually exclusive")

	// ErrMissingSource indicates a resolver or pipeline was built without
	// an attribute source.
	ErrMissingSource = errors.New("attribute source is required")

	// ErrNotTraceable indicates the pipeline was invoked for an operation
	// no source matches. The caller's own filter must only admit
	// operations it has confirmed traceable, so this is a precondition
	// violation, not a silent skip.
	ErrNotTraceable = errors.New("no trace attribute resolved for operation")
)
