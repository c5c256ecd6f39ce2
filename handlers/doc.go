// Package handlers resolves trace handler references to singleton handler
// instances. Handlers can be referenced by name, looked up through an
// external registry, or by type, constructed through an external
// instantiator; both paths cache instances for the process lifetime. The
// asymmetry is deliberate: a missing named handler is a warning and is
// skipped, while type references always yield an instance.
//
// The package also ships map-backed defaults for the two collaborator
// interfaces and a Prometheus-backed MetricsHandler.
package handlers
