package dex

const (
	// EngineVersion is the current version of the exchange core
	EngineVersion = "v1.0.0"
)
