package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram = "kinetic/program/v1"
	DomainGraph   = "kinetic/graph/v1"
	DomainTrace   = "kinetic/trace/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MarshalProgram serializes a Program to its canonical byte form.
//
// encoding/json is deterministic for structs (declaration-order fields) and
// sorts map keys, and Program contains no maps, so this serialization is
// byte-stable: identical graphs compile to byte-identical Programs. The
// Hash field is excluded via its `json:"-"` tag.
func MarshalProgram(p *Program) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal program: %w", err)
	}
	return data, nil
}

// ProgramHash computes the content-addressed identity of a Program.
// Stable across process restarts: same graph, same hash.
func ProgramHash(p *Program) (string, error) {
	data, err := MarshalProgram(p)
	if err != nil {
		return "", fmt.Errorf("ProgramHash: %w", err)
	}
	return hashWithDomain(DomainProgram, data), nil
}

// GraphHash computes the content hash of an authored graph document,
// represented as a canonical-JSON-able Dict (see graph.Document.Canonical).
func GraphHash(doc Dict) (string, error) {
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("GraphHash: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// TraceHash computes the content hash of a frame-trace snapshot.
// Used by replay to verify deterministic re-execution.
func TraceHash(snapshot Dict) (string, error) {
	canonical, err := MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("TraceHash: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}
