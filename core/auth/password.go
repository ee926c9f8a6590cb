package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes password+pepper with bcrypt.
func HashPassword(password, pepper string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password+pepper), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password+pepper matches the stored hash.
func VerifyPassword(hash, password, pepper string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+pepper)) == nil
}
