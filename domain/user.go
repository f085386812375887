package domain

import "time"

// User as seen by this subsystem. PasswordHash is an Argon2id
// encoded string and never leaves the auth layer.
type User struct {
	Username     string
	Email        string
	PasswordHash string
	About        string
	CreatedAt    time.Time
}
