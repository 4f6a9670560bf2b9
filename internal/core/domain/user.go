package domain

import "time"

// User models an account in the task tracker. Accounts are created
// out-of-band (seed tool or admin action); this service only reads them,
// replaces their password hash, and honours the is_active flag.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the sanitized view of a User returned by login and /auth/me.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email}
}
