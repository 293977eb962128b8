//go:build !debug

// Package assert gives the rest of the engine a single spelling for debug-
// only invariant checks. In a release build (the default, no "debug" build
// tag) Enabled is a compile-time false and Assert is a no-op the compiler
// can eliminate entirely; bugs caught here are invariant violations (spec
// §7), not user-facing errors, so they panic rather than returning an error.
//
// Grounded on the teacher's assert/assert_release.go.
package assert

// Enabled reports whether assertions are compiled in. Callers that build an
// expensive diagnostic string should gate it behind this, since Go still
// evaluates Assert's arguments even when Assert itself is a no-op.
const Enabled = false

// Assert panics with the formatted message if test is false. No-op in
// release builds.
func Assert(test bool, format string, args ...interface{}) {}
