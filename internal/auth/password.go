package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	dErrors "trustd/pkg/domain-errors"
)

const (
	pbkdf2Iterations = 100_000
	saltLen          = 16
	keyLen           = 32
)

// HashPassword derives a pbkdf2-hmac-sha256 hash with a fresh random salt.
// The encoded form is "salthex:hashhex".
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLen, sha256.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword re-derives the hash with the stored salt and compares in
// constant time.
func VerifyPassword(encoded, password string) error {
	saltHex, hashHex, ok := strings.Cut(encoded, ":")
	if !ok {
		return dErrors.New(dErrors.CodeInternal, "malformed password hash")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return dErrors.New(dErrors.CodeInternal, "malformed password hash")
	}
	want, err := hex.DecodeString(hashHex)
	if err != nil {
		return dErrors.New(dErrors.CodeInternal, "malformed password hash")
	}

	got := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, len(want), sha256.New)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return nil
}
