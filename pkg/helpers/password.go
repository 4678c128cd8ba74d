package helpers

import "golang.org/x/crypto/bcrypt"

// bcryptCost is kept at the library default; raise it here if login latency
// budgets allow.
const bcryptCost = bcrypt.DefaultCost

// HashPassword hashes a plaintext password with bcrypt (salted per call).
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword reports whether the plaintext matches the stored
// bcrypt hash. The comparison does not early-exit on mismatching prefixes.
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
