package common

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateOrderID returns a 20-character hex order identifier derived from a
// random UUID. Short enough for gateway order-id limits, unique enough that
// the transactions table's unique index never trips in practice.
func GenerateOrderID() string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])[:20]
}
