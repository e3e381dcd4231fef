// Package auth resolves bearer tokens into principals and handles login.
package auth

import "time"

// User is an authenticated actor. Superuser bypasses all grant checks;
// Staff gates coarse operations like resource creation.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Superuser    bool      `json:"is_superuser"`
	Staff        bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
}

// The Principal methods tolerate a nil receiver: a nil *User boxed in the
// interface is an anonymous principal and every check denies it.

// GetID implements access.Principal.
func (u *User) GetID() int64 {
	if u == nil {
		return 0
	}
	return u.ID
}

// IsSuperUser implements access.Principal.
func (u *User) IsSuperUser() bool {
	return u != nil && u.Superuser
}

// IsStaff implements access.Principal.
func (u *User) IsStaff() bool {
	return u != nil && u.Staff
}
