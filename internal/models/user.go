package models

import "time"

// FailedAttempt tracks consecutive failed logins for a username
type FailedAttempt struct {
	Count       int       `json:"count"`
	LastFailure time.Time `json:"timestamp"`
}

// Session is an authenticated login
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	LoginAt   time.Time `json:"login_time"`
	ExpiresAt time.Time `json:"expires_at"`
}
