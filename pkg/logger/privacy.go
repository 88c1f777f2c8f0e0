package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
)

const defaultHashSalt = "expense-api-dev-salt"

var hashSalt atomic.Value

func init() {
	hashSalt.Store(defaultHashSalt)
}

// SetHashSalt replaces the salt mixed into HashID. Empty keeps the default.
func SetHashSalt(salt string) {
	if salt == "" {
		salt = defaultHashSalt
	}
	hashSalt.Store(salt)
}

// HashID returns a short salted digest of id, so log lines can be correlated
// per user without carrying the identifier itself.
func HashID(id string) string {
	if id == "" {
		return "<anonymous>"
	}
	sum := sha256.Sum256([]byte(id + ":" + hashSalt.Load().(string)))
	return hex.EncodeToString(sum[:])[:8]
}

