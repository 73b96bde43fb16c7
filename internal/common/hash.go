package common

import (
	"fmt"
	"hash/fnv"
)

// ContentHash returns a short FNV-1a hash of the content as lowercase hex.
// It is a cheap dedup/identity signal, not a cryptographic digest.
func ContentHash(content string) string {
	h := fnv.New32a()
	h.Write([]byte(content))
	return fmt.Sprintf("%08x", h.Sum32())
}
