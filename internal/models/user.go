package models

import "time"

// UserAccount is the account document returned by PUT /api/users/current.
type UserAccount struct {
	Username     string    `json:"username"`
	Token        string    `json:"token"`
	TokenExpires Timestamp `json:"token_expires"`
}

// Registration is the body of POST /api/users.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Expired reports whether the account's token expiry has passed at now.
// A zero expiry never expires.
func (u UserAccount) Expired(now time.Time) bool {
	return !u.TokenExpires.IsZero() && !now.Before(u.TokenExpires.Time)
}
