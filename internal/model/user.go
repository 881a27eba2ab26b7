package model

import "time"

// Role is the fixed authorization level of an identity.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an authenticated identity. Email is the exact-match unique key of the identity set.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin is nil-safe so callers can pass an anonymous actor straight through.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
