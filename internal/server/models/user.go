// Package models holds the server-side domain records shared by the
// repositories, services and the HTTP layer.
package models

import "time"

// User is a stored account. PasswordHash is a bcrypt hash and must never be
// returned to clients; PictureRef is an object-storage key, empty when the
// user has no picture.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Role         string
	PictureRef   string
	CreatedAt    time.Time
}

// Public returns a copy of u without the password hash.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}
