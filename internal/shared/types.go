package shared

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a prefixed random hex identifier, used for local correlation
// of sessions and requests.
func NewID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}
