// Package auth implements credential verification and access token issuance
// for the HTTP API. Login decisions themselves come from the trust engine;
// this package only answers "is this really the user" and "what token do
// they carry".
package auth

import "time"

// User is a registered account. PasswordHash is the encoded pbkdf2 hash,
// never the plaintext.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
}
