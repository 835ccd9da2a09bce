package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext secret using bcrypt with the given cost.
// Cost outside bcrypt's valid range falls back to DefaultCost.
func HashPassword(pw string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	return string(b), err
}

// CheckPassword compares a bcrypt hash with a candidate plaintext secret.
// The comparison is constant-time and case-sensitive.
func CheckPassword(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}
