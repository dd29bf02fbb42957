// Package engine executes compiled programs one frame at a time.
//
// A Session owns all mutable runtime state for a single animation: the
// double-buffered state store, external channel values, the field buffer
// pool, and the wrap tracker for cyclic time. ExecuteFrame is the single
// writer over that state; staging channel values is the only operation
// safe to call from other goroutines.
//
// Programs are held behind an atomic pointer so a recompile can swap in a
// new program between frames without pausing the frame loop. State slots
// survive the swap when their continuity keys match.
package engine
