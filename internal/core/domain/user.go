package domain

import "time"

// User is the identity record managed by this service.
//
// ID and CreatedAt are assigned by the registration path and never change.
// PasswordHash holds the opaque hasher output; it is excluded from every
// outward-facing representation via the json tag.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
