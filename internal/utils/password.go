package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// BurnPasswordCheck spends roughly one bcrypt comparison so unknown accounts
// take as long to reject as wrong passwords.
func BurnPasswordCheck(plain string, cost int) {
	dummyOnce.Do(func() {
		dummyHash, _ = HashPassword("not-a-real-password", cost)
	})
	_ = VerifyPassword(dummyHash, plain)
}
