// Package store is the durable archive: compiled programs, runtime
// sessions, and per-frame trace hashes, in a single SQLite database.
//
// Programs are content-addressed by their canonical hash, so writing the
// same compile twice is a no-op. Frame writes are idempotent on
// (session, seq), which lets a crashed run re-record frames it already
// traced without corrupting the archive. Replay reads the archived
// program and frame hashes back and re-executes against them.
package store
