// Package fingerprint derives the stable content identity used across all
// pipeline stages. Two items with the same title and link share a
// fingerprint and are treated as duplicates of one another.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// hexLen is the number of hex characters kept from the digest. 16 chars
// (64 bits) keeps collisions negligible at daily batch sizes while staying
// readable in logs and prompts.
const hexLen = 16

// Compute returns the deterministic fingerprint of an item's title and link.
func Compute(title, link string) string {
	sum := sha256.Sum256([]byte(title + "::" + link))
	return hex.EncodeToString(sum[:])[:hexLen]
}
