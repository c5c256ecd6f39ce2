package typeinfo

import (
	"fmt"
	"sync"

	"github.com/tracekit/tracekit-go/contracts"
)

// Registry records type declarations: the operations each type declares, its
// parent type, and bridge links from synthetic operations to their real
// declared counterparts. It backs both most-specific operation resolution
// for the fallback resolver and eager pattern expansion for method-map
// attribute sources.
//
// Registration happens during setup; lookups run concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	types   map[contracts.TypeRef]*typeEntry
	bridges map[bridgeKey]contracts.Operation
}

type typeEntry struct {
	parent contracts.TypeRef
	ops    []contracts.Operation
}

type bridgeKey struct {
	declaring contracts.TypeRef
	signature string
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		types:   make(map[contracts.TypeRef]*typeEntry),
		bridges: make(map[bridgeKey]contracts.Operation),
	}
}

// RegisterType declares a root type and its operations. Operations with a
// zero declaring type are stamped with t; a mismatched declaring type is an
// error.
func (r *Registry) RegisterType(t contracts.TypeRef, ops ...contracts.Operation) error {
	return r.register(t, contracts.TypeRef{}, ops)
}

// RegisterSubtype declares a type extending parent. Operations declared here
// override same-signature operations of the parent during most-specific
// resolution.
func (r *Registry) RegisterSubtype(t, parent contracts.TypeRef, ops ...contracts.Operation) error {
	if parent.IsZero() {
		return fmt.Errorf("parent of %s must not be empty", t.Qualified)
	}
	return r.register(t, parent, ops)
}

func (r *Registry) register(t, parent contracts.TypeRef, ops []contracts.Operation) error {
	if t.IsZero() {
		return fmt.Errorf("type reference must not be empty")
	}

	declared := make([]contracts.Operation, 0, len(ops))
	for _, op := range ops {
		if op.Declaring.IsZero() {
			op.Declaring = t
		}
		if op.Declaring != t {
			return fmt.Errorf("operation %s declares type %s, registered under %s",
				op.Name, op.Declaring.Qualified, t.Qualified)
		}
		declared = append(declared, op)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[t]; exists {
		return fmt.Errorf("type %s already registered", t.Qualified)
	}
	r.types[t] = &typeEntry{parent: parent, ops: declared}
	return nil
}

// RegisterBridge links a synthetic operation to the real declared operation
// it stands in for. Most-specific resolution replaces the synthetic form
// with the real one before any attribute lookup runs.
func (r *Registry) RegisterBridge(synthetic, real contracts.Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bridges[bridgeKey{declaring: synthetic.Declaring, signature: synthetic.Signature()}] = real
}

// DeclaredOperations returns the operations a type declares itself,
// excluding inherited ones. The second return reports whether the type is
// known.
func (r *Registry) DeclaredOperations(t contracts.TypeRef) ([]contracts.Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[t]
	if !ok {
		return nil, false
	}
	return append([]contracts.Operation(nil), entry.ops...), true
}

// Parent returns the registered parent of a type, if any.
func (r *Registry) Parent(t contracts.TypeRef) (contracts.TypeRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[t]
	if !ok || entry.parent.IsZero() {
		return contracts.TypeRef{}, false
	}
	return entry.parent, true
}

// MostSpecific resolves the operation actually declared for op when invoked
// against target: the override nearest to target in the hierarchy, with any
// bridge link followed to the real declared operation. An unknown or zero
// target leaves the operation unchanged apart from bridge resolution.
func (r *Registry) MostSpecific(op contracts.Operation, target contracts.TypeRef) contracts.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specific := op
	if !target.IsZero() {
		for cur := target; !cur.IsZero(); {
			entry, ok := r.types[cur]
			if !ok {
				break
			}
			if declared, ok := findDeclared(entry.ops, op); ok {
				specific = declared
				break
			}
			cur = entry.parent
		}
	}

	if real, ok := r.bridges[bridgeKey{declaring: specific.Declaring, signature: specific.Signature()}]; ok {
		return real
	}
	return specific
}

func findDeclared(ops []contracts.Operation, op contracts.Operation) (contracts.Operation, bool) {
	for _, candidate := range ops {
		if candidate.Name == op.Name && sameParams(candidate.Params, op.Params) {
			return candidate, true
		}
	}
	return contracts.Operation{}, false
}

func sameParams(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
