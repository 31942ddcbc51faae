package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// HashToken hashes a webhook capability token for at-rest storage.
func HashToken(token string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckToken compares a presented capability token with its stored hash.
func CheckToken(plain, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
