package services

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
)

// Session is an authenticated identity held in memory for the life of the process.
type Session struct {
	Username string
	Token    string
	Expires  time.Time // zero means the server gave no expiry
}

// NewSession builds a session from the account document returned by login.
func NewSession(account models.UserAccount) *Session {
	return &Session{
		Username: account.Username,
		Token:    account.Token,
		Expires:  account.TokenExpires.Time,
	}
}

// Valid reports whether the session can authenticate a request at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Username == "" || s.Token == "" {
		return false
	}
	return s.Expires.IsZero() || now.Before(s.Expires)
}

// authorize sets the Basic header on req, or fails without touching the network.
func (s *Session) authorize(req *http.Request, now time.Time) error {
	if !s.Valid(now) {
		return shared.ErrSessionExpired
	}
	req.Header.Set("Authorization", basicAuth(s.Username, s.Token))
	return nil
}

func basicAuth(username, secret string) string {
	creds := fmt.Sprintf("%s:%s", username, secret)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}
