// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const MaxUserIDLen = 64

var ErrUserIDInvalid = errors.New("user id invalid")

// UserID is an opaque identity issued outside this system.
type UserID string

func (id UserID) Validate() error {
	if len(id) == 0 || len(id) > MaxUserIDLen {
		return ErrUserIDInvalid
	}
	return nil
}

// User is the public profile of an identity.
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}
