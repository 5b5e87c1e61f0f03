package ir

// Version constants for the descriptor schema and the builder.
const (
	// IRVersion is the step descriptor schema version.
	IRVersion = "1"

	// BuilderVersion is the quench builder version recorded on workflows.
	BuilderVersion = "0.1.0"
)
