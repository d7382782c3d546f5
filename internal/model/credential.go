package model

// Credential is a login identity bound to a user.
// PasswordHash is a salted one-way digest, never the plaintext.
type Credential struct {
	ID           int64
	UserID       int64
	Username     string
	PasswordHash string
}
