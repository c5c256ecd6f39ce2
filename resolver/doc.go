// Package resolver implements cached, fallback-aware trace attribute
// resolution over any attribute source. It is the caching decorator around
// the sources package: sources answer single lookups, the resolver decides
// which lookups to make and remembers every outcome for the process
// lifetime.
package resolver
