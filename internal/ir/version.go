package ir

// IRVersion is bumped whenever the Program serialization changes shape.
// Stored alongside archived programs so replay can refuse stale records.
const IRVersion = 1

// EngineVersion identifies the runtime build that produced a trace.
const EngineVersion = "0.1.0"
