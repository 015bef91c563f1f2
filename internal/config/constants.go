// Package config holds small cross-cutting constants, following the
// teacher's internal/config: a handful of named strings other packages
// would otherwise repeat as literals.
package config

// Version is the current engine version, set at build time via
// -ldflags "-X github.com/animator/pfa/internal/config.Version=...".
var Version = "0.1.0"

// Document option keys (spec.md §6's enumerated Options).
const (
	OptionTimeout      = "timeout"
	OptionTimeoutBegin = "timeout.begin"
	OptionTimeoutEnd   = "timeout.end"
	// OptionLib1Prefix is the namespace of catalog-level option keys
	// (spec.md §6: "lib1.*"); internal/catalog does not read any options.
	OptionLib1Prefix = "lib1."
)

// Method name constants as they appear in the document surface's
// "method" key (spec.md §3), mirrored as plain strings so callers that
// only need the name (CLI help text, log lines) don't have to import
// internal/ast just for the Method type.
const (
	MethodMap  = "map"
	MethodEmit = "emit"
	MethodFold = "fold"
)
