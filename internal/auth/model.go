package auth

import "time"

// Role is the coarse permission tier attached to a credential record.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleUser   Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// User is the stored credential record. The password hash never leaves
// this package.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the client-facing projection of a User with the secret
// hash omitted.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// Origin describes where a request came from, for lockout exclusions and
// audit records.
type Origin struct {
	IP        string
	UserAgent string
}

// LoginResult is returned after a verified login.
type LoginResult struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}
