package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room for algorithm migration without colliding with old hashes.
const (
	DomainParticleConfig = "motion/particle-config/v1"
	DomainPropertyGraph  = "motion/property-graph/v1"
	DomainRNGStream      = "motion/rng-stream/v1"
)

// HashWithDomain computes SHA-256 over domain + 0x00 + data. The null byte
// separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashValue canonically marshals v and hashes it under the given domain.
func HashValue(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonical hash: %w", err)
	}
	return HashWithDomain(domain, data), nil
}

// SeedBytes derives a 64-bit seed from a domain-separated hash of the given
// canonical value. Expression and particle RNG streams are all seeded
// through here so that stream identity is a pure function of its key.
func SeedBytes(domain string, v any) (uint64, error) {
	data, err := Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("seed derivation: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	sum := h.Sum(nil)

	var seed uint64
	for i := 0; i < 8; i++ {
		seed = seed<<8 | uint64(sum[i])
	}
	return seed, nil
}
