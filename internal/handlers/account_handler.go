package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/services"
)

type AccountHandler struct {
	bank      *services.Bank
	validator *services.ValidationHelper
}

func NewAccountHandler(bank *services.Bank) *AccountHandler {
	return &AccountHandler{
		bank:      bank,
		validator: services.NewValidationHelper(),
	}
}

// AccountResponse is the customer view of an account. The password digest
// never leaves the service.
type AccountResponse struct {
	Username    string     `json:"username"`
	AccountID   string     `json:"accountId"`
	Email       string     `json:"email"`
	Balance     int64      `json:"balance"`
	AccountType string     `json:"accountType"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

type AmountRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// GetAccount returns the authenticated account
// @Summary Account details
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AccountResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /account [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	acct, err := h.bank.Account(session.Username)
	if err != nil {
		sendError(w, err)
		return
	}

	services.SendJSON(w, http.StatusOK, AccountResponse{
		Username:    acct.Username,
		AccountID:   acct.AccountID,
		Email:       acct.Email,
		Balance:     acct.Balance,
		AccountType: acct.AccountType,
		Status:      string(acct.Status),
		CreatedAt:   acct.CreatedAt,
		LastLogin:   acct.LastLogin,
	})
}

// ListTransactions returns the account history, newest first
// @Summary Transaction history
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Param type query string false "Transaction type, e.g. Deposit"
// @Param days query int false "Only the last N days"
// @Success 200 {object} object{success=bool,transactions=[]models.Transaction}
// @Failure 400 {object} services.ErrorResponse
// @Router /account/transactions [get]
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	filter := services.HistoryFilter{Type: models.TxType(r.URL.Query().Get("type"))}
	if days := r.URL.Query().Get("days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			services.SendErrorResponse(w, "days must be a non-negative integer", http.StatusBadRequest, nil)
			return
		}
		filter.Days = n
	}

	history, err := h.bank.History(session.Username, filter)
	if err != nil {
		sendError(w, err)
		return
	}
	if history == nil {
		history = []models.Transaction{}
	}

	services.SendJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"transactions": history,
	})
}

// GetSummary returns balance and deposit / withdrawal totals
// @Summary Account summary
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.Summary
// @Router /account/summary [get]
func (h *AccountHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	summary, err := h.bank.Summary(session.Username)
	if err != nil {
		sendError(w, err)
		return
	}
	services.SendJSON(w, http.StatusOK, summary)
}

// Deposit credits the account
// @Summary Deposit
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AmountRequest true "Amount"
// @Success 200 {object} object{success=bool,message=string,transactionId=string}
// @Failure 400 {object} services.ErrorResponse
// @Router /account/deposit [post]
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req AmountRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	res := h.bank.Deposit(r.Context(), session.Username, req.Amount)
	sendResult(w, res, http.StatusOK, map[string]any{"transactionId": res.Ref})
}

// Withdraw debits the account
// @Summary Withdraw
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AmountRequest true "Amount"
// @Success 200 {object} object{success=bool,message=string,transactionId=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /account/withdraw [post]
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req AmountRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	res := h.bank.Withdraw(r.Context(), session.Username, req.Amount)
	sendResult(w, res, http.StatusOK, map[string]any{"transactionId": res.Ref})
}
