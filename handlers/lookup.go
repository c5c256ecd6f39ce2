package handlers

import (
	"fmt"
	"sync"

	"github.com/tracekit/tracekit-go/contracts"
)

// StaticLookup is a map-backed NamedLookup for hosts without a container of
// their own. Registration happens during setup; lookups run concurrently
// afterwards.
type StaticLookup struct {
	mu       sync.RWMutex
	handlers map[string]contracts.TraceHandler
}

// NewStaticLookup creates an empty named handler registry.
func NewStaticLookup() *StaticLookup {
	return &StaticLookup{handlers: make(map[string]contracts.TraceHandler)}
}

// Register binds a handler instance to a name. Re-registering a name to a
// different instance is an error.
func (l *StaticLookup) Register(name string, handler contracts.TraceHandler) error {
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.handlers[name]; ok {
		if existing == handler {
			return nil
		}
		return fmt.Errorf("handler name %s already registered", name)
	}
	l.handlers[name] = handler
	return nil
}

// Lookup implements contracts.NamedLookup.
func (l *StaticLookup) Lookup(name string) (contracts.TraceHandler, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	handler, ok := l.handlers[name]
	return handler, ok
}

// FactoryInstantiator is a map-backed Instantiator: handler types are bound
// to factory closures, which carry whatever dependencies the handler needs.
type FactoryInstantiator struct {
	mu        sync.RWMutex
	factories map[contracts.TypeRef]func() contracts.TraceHandler
}

// NewFactoryInstantiator creates an empty factory registry.
func NewFactoryInstantiator() *FactoryInstantiator {
	return &FactoryInstantiator{factories: make(map[contracts.TypeRef]func() contracts.TraceHandler)}
}

// RegisterFactory binds a handler type to its constructor.
func (f *FactoryInstantiator) RegisterFactory(t contracts.TypeRef, factory func() contracts.TraceHandler) error {
	if t.IsZero() {
		return fmt.Errorf("handler type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.factories[t]; ok {
		return fmt.Errorf("factory for %s already registered", t.Qualified)
	}
	f.factories[t] = factory
	return nil
}

// New implements contracts.Instantiator.
func (f *FactoryInstantiator) New(t contracts.TypeRef) (contracts.TraceHandler, error) {
	f.mu.RLock()
	factory, ok := f.factories[t]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no factory registered for handler type %s", t.Qualified)
	}
	return factory(), nil
}
