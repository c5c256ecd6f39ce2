// Package typeinfo maintains a registry of type hierarchies and declared
// operations. The fallback resolver uses it to find the most specific form
// of an operation for a given target type, and method-map attribute sources
// use it to expand name patterns against a type's declared operations at
// registration time.
package typeinfo
