// Package sources provides the attribute source variants that map operations
// to trace attributes:
//   - NameMatchSource: glob-style method name patterns
//   - MethodMapSource: fully-qualified Type.pattern entries expanded eagerly
//     against the type registry at registration time
//   - MetadataSource: pluggable parser strategies, the analog of
//     annotation-driven configuration
//   - CompositeSource: ordered first-match aggregation over other sources
//
// Sources answer a single lookup; fallback, caching and descriptor stamping
// live in the resolver package.
package sources
