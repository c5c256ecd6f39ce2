package handlers

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tracekit/tracekit-go/contracts"
)

// Registry resolves handler references to singleton handler instances.
// Named references go through the external NamedLookup; a missing name is
// logged as a warning and skipped. Type references go through the
// process-wide type cache, constructing through the Instantiator on first
// use. Instances resolved by name are also cached under their concrete type,
// so a later type reference to the same concrete type reuses them instead of
// constructing a duplicate.
//
// Caches are never evicted: cardinality is bounded by the number of distinct
// handler names and types in the instrumented program, not by call volume.
type Registry struct {
	lookup       contracts.NamedLookup
	instantiator contracts.Instantiator
	logger       *slog.Logger

	byName sync.Map // string -> contracts.TraceHandler
	byType sync.Map // contracts.TypeRef -> contracts.TraceHandler
}

// NewRegistry creates a handler registry over the given collaborators.
// Either may be nil when the corresponding reference style is unused.
func NewRegistry(lookup contracts.NamedLookup, instantiator contracts.Instantiator, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		lookup:       lookup,
		instantiator: instantiator,
		logger:       logger,
	}
}

// Resolve returns the handler instances for one attribute's references, in
// dispatch order with duplicates removed. Name references take priority; at
// most one of refs and types is non-empty, enforced upstream by the
// attribute's construction-time mutual exclusion.
func (r *Registry) Resolve(refs []string, types []contracts.TypeRef) ([]contracts.TraceHandler, error) {
	if len(refs) > 0 {
		return r.resolveNamed(refs), nil
	}
	if len(types) > 0 {
		return r.resolveTyped(types)
	}
	return nil, nil
}

func (r *Registry) resolveNamed(refs []string) []contracts.TraceHandler {
	handlers := make([]contracts.TraceHandler, 0, len(refs))
	seen := make(map[contracts.TraceHandler]bool, len(refs))

	for _, name := range refs {
		instance := r.namedInstance(name)
		if instance == nil {
			continue
		}
		if !seen[instance] {
			seen[instance] = true
			handlers = append(handlers, instance)
		}
	}
	return handlers
}

func (r *Registry) namedInstance(name string) contracts.TraceHandler {
	if cached, ok := r.byName.Load(name); ok {
		return cached.(contracts.TraceHandler)
	}

	if r.lookup == nil {
		r.logger.Warn("trace handler lookup is not configured, skipping handler", "name", name)
		return nil
	}
	instance, ok := r.lookup.Lookup(name)
	if !ok {
		r.logger.Warn("trace handler does not exist, skipping", "name", name)
		return nil
	}

	actual, _ := r.byName.LoadOrStore(name, instance)
	instance = actual.(contracts.TraceHandler)
	// Backfill the type cache so a later type-based reference to the same
	// concrete type reuses this instance.
	r.byType.LoadOrStore(contracts.TypeOf(instance), instance)
	return instance
}

func (r *Registry) resolveTyped(types []contracts.TypeRef) ([]contracts.TraceHandler, error) {
	handlers := make([]contracts.TraceHandler, 0, len(types))
	seen := make(map[contracts.TraceHandler]bool, len(types))

	for _, t := range types {
		instance, err := r.typedInstance(t)
		if err != nil {
			return nil, err
		}
		if !seen[instance] {
			seen[instance] = true
			handlers = append(handlers, instance)
		}
	}
	return handlers, nil
}

func (r *Registry) typedInstance(t contracts.TypeRef) (contracts.TraceHandler, error) {
	if cached, ok := r.byType.Load(t); ok {
		return cached.(contracts.TraceHandler), nil
	}

	if r.instantiator == nil {
		return nil, fmt.Errorf("no instantiator configured for handler type %s", t.Qualified)
	}
	instance, err := r.instantiator.New(t)
	if err != nil {
		return nil, fmt.Errorf("instantiating trace handler %s: %w", t.Qualified, err)
	}

	// A racing construction may have stored first; its instance wins and
	// ours is discarded.
	actual, _ := r.byType.LoadOrStore(t, instance)
	return actual.(contracts.TraceHandler), nil
}
