package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashAPIKey hashes a raw device key the same way at registration and ingest.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
