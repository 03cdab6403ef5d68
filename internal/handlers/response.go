package handlers

import (
	"errors"
	"net/http"

	"github.com/ruralpay/ledger/internal/middleware"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/services"
)

// statusFor maps a ledger failure kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrRecipientNotFound),
		errors.Is(err, services.ErrUnknownTransfer):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateUsername),
		errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrAccountTooNew),
		errors.Is(err, services.ErrActiveLoanExists),
		errors.Is(err, services.ErrNotActive),
		errors.Is(err, services.ErrNotMatured):
		return http.StatusConflict
	case errors.Is(err, services.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrLocked):
		return http.StatusLocked
	case errors.Is(err, services.ErrPersistence):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidDuration),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrAccountIDMismatch),
		errors.Is(err, services.ErrSelfTransfer),
		errors.Is(err, services.ErrBelowMinimumPayment),
		errors.Is(err, services.ErrInvalidFilter),
		errors.Is(err, services.ErrInvalidQRCode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func sendError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	services.SendErrorResponse(w, msg, status, nil)
}

// sendResult writes a facade Result, merging extra fields into the success body.
func sendResult(w http.ResponseWriter, res services.Result, status int, extra map[string]any) {
	if !res.Success {
		sendError(w, res.Err)
		return
	}

	body := map[string]any{
		"success": true,
		"message": res.Message,
	}
	for k, v := range extra {
		body[k] = v
	}
	services.SendJSON(w, status, body)
}

// currentUser returns the authenticated username or writes 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok || session.Username == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return nil, false
	}
	return session, true
}
