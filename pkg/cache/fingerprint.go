package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Fingerprint builds a deterministic cache key from the semantically
// relevant fields of a request. Each part is length-prefixed before hashing
// so that ("ab", "c") and ("a", "bc") produce different keys. The result is
// the hex-encoded SHA-256 digest, stable across processes and runs.
//
// Callers decide which fields participate; volatile fields such as request
// ids and timestamps must never be included.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	var lenBuf [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
