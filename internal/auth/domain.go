package auth

import "time"

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_Admin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the client-facing view of a user.
type Profile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_Admin"`
}

// Profile strips everything a client must not see.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}

// Claims are the verified contents of a session token.
type Claims struct {
	UserID    string
	IsAdmin   bool
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Token is a signed session token together with its claims.
type Token struct {
	Value  string
	Claims Claims
}
