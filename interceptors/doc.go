// Package interceptors executes the traced-call protocol around intercepted
// operations. The Pipeline resolves an operation's trace attribute, and when
// tracing is enabled it times the call, writes templated enter/exit/error
// log lines, and dispatches the attribute's handlers at each phase:
//
//	resolve attribute -> enter log -> BeforeHandle* -> proceed()
//	    success: exit log -> AfterHandle*
//	    failure: error log -> ErrorHandle* -> original error re-raised
//
// Physical interception is external: the host (a generated proxy, a
// middleware layer, hand-written wrappers) describes the operation and
// supplies a ProceedFunc.
//
// Example usage:
//
//	pipeline, err := interceptors.NewPipeline(resolver, registry,
//		interceptors.WithLogger(logger),
//		interceptors.WithTemplates(templates.NewDetailedSet()),
//	)
//	if err != nil {
//		return err
//	}
//
//	result, err := pipeline.Invoke(ctx, op, target, args,
//		func(ctx context.Context) (interface{}, error) {
//			return svc.SaveUser(ctx, user)
//		})
package interceptors
