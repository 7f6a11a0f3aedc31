package ir

// Version constants for the IR schema and compiler.
const (
	// IRVersion is the IR schema version embedded in canonical program JSON.
	IRVersion = "1"

	// CompilerVersion is the vx front-end version.
	CompilerVersion = "0.1.0"
)
