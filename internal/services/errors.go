package services

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by the ledger core wraps exactly one of
// these so callers can branch with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateUsername   = errors.New("duplicate username")
	ErrDuplicateEmail      = errors.New("duplicate email")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrLocked              = errors.New("account locked")
	ErrWeakPassword        = errors.New("weak password")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrPasswordMismatch    = errors.New("password mismatch")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrAccountIDMismatch   = errors.New("account id mismatch")
	ErrSelfTransfer        = errors.New("self transfer")
	ErrUnknownTransfer     = errors.New("unknown transfer")
	ErrAccountTooNew       = errors.New("account too new")
	ErrActiveLoanExists    = errors.New("active loan exists")
	ErrNotActive           = errors.New("not active")
	ErrBelowMinimumPayment = errors.New("below minimum payment")
	ErrNotMatured          = errors.New("not matured")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidFilter       = errors.New("invalid filter")
	ErrInvalidQRCode       = errors.New("invalid qr code")
	ErrPersistence         = errors.New("persistence failure")
)

// OpError pairs a failure kind with the message shown to the customer.
type OpError struct {
	Kind error
	Msg  string
}

func (e *OpError) Error() string { return e.Msg }

func (e *OpError) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...any) error {
	return &OpError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// InvalidCredentialsError is returned for a wrong password while attempts remain.
type InvalidCredentialsError struct {
	Remaining int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("Incorrect password. %d attempts remaining", e.Remaining)
}

func (e *InvalidCredentialsError) Unwrap() error { return ErrInvalidCredentials }
