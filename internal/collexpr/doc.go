// Package collexpr decides what a bracket literal "[a, ..b]" denotes once a
// target type is known: whether the target can be built from a collection
// expression at all, which construction strategy applies, which element type
// the elements convert to, and how such literals take part in overload
// resolution and method type inference.
//
// The package is a library for a binder. Per-compilation state lives in an
// Engine and its Cache; per-use-site state lives in a Binder. Every decision
// function returns a tagged result and reports user-facing problems through a
// diag.Reporter.
package collexpr
