package users

import "time"

// User is a signed-in identity, recorded on every successful login.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	Provider    string    `json:"provider"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// Account is a configured username/password login.
type Account struct {
	Username     string
	PasswordHash string
	Roles        []string
}
