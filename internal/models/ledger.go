package models

import (
	"time"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
)

// Account is a customer account keyed by username
type Account struct {
	Username     string        `json:"username"`
	PasswordHash string        `json:"password"`
	AccountID    string        `json:"account_id"` // short public identifier used to address transfers
	Email        string        `json:"email"`
	Balance      int64         `json:"balance"`
	CreatedAt    time.Time     `json:"created"`
	LastLogin    *time.Time    `json:"last_login"`
	AccountType  string        `json:"account_type"`
	Status       AccountStatus `json:"status"`
}

// Age reports how long the account has existed at now.
func (a Account) Age(now time.Time) time.Duration {
	return now.Sub(a.CreatedAt)
}

// PendingTransfer is a staged transfer intent awaiting confirmation.
// It is working state only and never part of a snapshot.
type PendingTransfer struct {
	ID                 string    `json:"transfer_id"`
	Sender             string    `json:"sender"`
	Recipient          string    `json:"recipient"`
	RecipientAccountID string    `json:"recipient_account_id"`
	Amount             int64     `json:"amount"`
	Description        string    `json:"description,omitempty"`
	CreatedAt          time.Time `json:"timestamp"`
}
