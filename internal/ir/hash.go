package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram = "vx/program/v1"
	DomainNode    = "vx/node/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the content address of a program.
// Two sources that generate structurally identical IR share a hash.
func Hash(p *Program) (string, error) {
	canonical, err := MarshalProgram(p)
	if err != nil {
		return "", fmt.Errorf("Hash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// NodeHash computes the content address of a single tree.
func NodeHash(n Node) (string, error) {
	canonical, err := MarshalCanonical(n)
	if err != nil {
		return "", fmt.Errorf("NodeHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNode, canonical), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustHash(p *Program) string {
	h, err := Hash(p)
	if err != nil {
		panic(err)
	}
	return h
}
