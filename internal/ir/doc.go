// Package ir provides the canonical type system and program model for Kinetic.
//
// This package contains type definitions and pure classification functions only.
// All other internal packages import ir; ir imports nothing internal. This ensures
// IR remains the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Every expression node carries its own CanonicalType; kinds (signal, field,
//     event) are derived from the extent axes, never stored redundantly.
//   - A Program is immutable once built. The compiler is the only producer;
//     the engine is a consumer and never mutates schedule, slots, or expressions.
//   - All JSON tags use snake_case.
//   - Content identity uses canonical JSON (canonical.go) + domain-separated
//     SHA-256 (hash.go). Identical graphs compile to byte-identical Programs.
package ir
