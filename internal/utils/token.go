package utils // package utils provides helpers for random tokens and hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RememberToken is a long-lived credential returned to the client in the
// remember cookie. Only HashToken(Raw) is persisted.
type RememberToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewRememberToken returns a fresh random remember token valid for ttl.
func NewRememberToken(ttl time.Duration) (RememberToken, error) {
	raw, err := RandomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RememberToken{}, err
	}
	return RememberToken{Raw: raw, Exp: time.Now().UTC().Add(ttl)}, nil
}

// HashToken returns the hex SHA-256 digest of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RandomHex returns n bytes of crypto/rand data, hex encoded.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
