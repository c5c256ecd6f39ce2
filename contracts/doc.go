// Package contracts provides the core types and interfaces for the tracekit
// instrumentation framework.
//
// This package defines the contracts shared by every other package:
//   - Operation and TypeRef: descriptive identity of an intercepted call
//   - TraceAttribute: immutable per-operation trace configuration
//   - TraceHandler: pluggable observer invoked around traced calls
//   - AttributeSource and AttributeResolver: configuration lookup contracts
//   - ProceedFunc: the wrapped-call callback supplied by the interceptor host
//
// Interception itself (proxying, code weaving) is out of scope: callers
// describe the operation they intercepted as data and hand the framework a
// ProceedFunc to run it.
package contracts
