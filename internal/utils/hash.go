package utils

import "hash/fnv"

// HashStringToUint64 gives a stable 64-bit hash for deterministic
// derivations (mock provider output, tie-breaking).
func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
