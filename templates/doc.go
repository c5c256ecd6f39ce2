// Package templates implements the placeholder-driven message templates the
// pipeline expands into enter, exit and error log lines. Templates are
// validated when registered, never at call time: an unrecognized placeholder
// or a placeholder that cannot have a value in the template's phase (a
// return value on entry, an error on exit) rejects the template with a
// descriptive error.
package templates
