// Package config loads declarative tracing configuration from YAML and
// materializes attribute sources, message templates and a fallback resolver
// from it. It is a convenience layer: every setup it can express can also be
// built programmatically against the sources, templates and resolver
// packages.
package config
