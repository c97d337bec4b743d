package utils

import "golang.org/x/crypto/bcrypt"

// HashKey bcrypt-hashes a plain API key for use as API_KEY_HASH.
func HashKey(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(b), err
}

// CheckKey compares a bcrypt hash with a plain key.
func CheckKey(hash, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
}
