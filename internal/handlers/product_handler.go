package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/services"
)

// ProductHandler serves loans and fixed deposits
type ProductHandler struct {
	bank      *services.Bank
	validator *services.ValidationHelper
}

func NewProductHandler(bank *services.Bank) *ProductHandler {
	return &ProductHandler{
		bank:      bank,
		validator: services.NewValidationHelper(),
	}
}

type TermRequest struct {
	Amount         int64 `json:"amount" validate:"required,gt=0"`
	DurationMonths int   `json:"durationMonths" validate:"required,gt=0,max=1200"`
}

type FixedDepositResponse struct {
	models.FixedDeposit
	DaysRemaining int `json:"days_remaining"`
}

// ListLoans returns the customer's loans, oldest first
// @Summary List loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,loans=[]models.Loan}
// @Router /loans [get]
func (h *ProductHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	loans := h.bank.Loans(session.Username)
	if loans == nil {
		loans = []models.Loan{}
	}
	services.SendJSON(w, http.StatusOK, map[string]any{"success": true, "loans": loans})
}

// ApplyForLoan originates a loan and disburses the principal
// @Summary Apply for a loan
// @Description Requires an account at least 90 days old and no active loan. The principal is credited immediately.
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TermRequest true "Principal and term"
// @Success 201 {object} object{success=bool,message=string,loanId=string}
// @Failure 409 {object} services.ErrorResponse
// @Router /loans [post]
func (h *ProductHandler) ApplyForLoan(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req TermRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	res := h.bank.ApplyForLoan(r.Context(), session.Username, req.Amount, req.DurationMonths)
	sendResult(w, res, http.StatusCreated, map[string]any{"loanId": res.Ref})
}

// PayLoan applies a repayment to one loan
// @Summary Repay a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param loanId path string true "Loan ID"
// @Param request body AmountRequest true "Payment amount, at least the monthly installment"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /loans/{loanId}/payments [post]
func (h *ProductHandler) PayLoan(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req AmountRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	sendResult(w, h.bank.PayLoan(r.Context(), session.Username, chi.URLParam(r, "loanId"), req.Amount), http.StatusOK, nil)
}

// ListFixedDeposits returns the customer's fixed deposits with days to maturity
// @Summary List fixed deposits
// @Tags FixedDeposits
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,fixedDeposits=[]FixedDepositResponse}
// @Router /fixed-deposits [get]
func (h *ProductHandler) ListFixedDeposits(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	now := h.bank.Now()
	deposits := h.bank.FixedDeposits(session.Username)
	out := make([]FixedDepositResponse, 0, len(deposits))
	for _, fd := range deposits {
		out = append(out, FixedDepositResponse{FixedDeposit: fd, DaysRemaining: fd.DaysRemaining(now)})
	}
	services.SendJSON(w, http.StatusOK, map[string]any{"success": true, "fixedDeposits": out})
}

// CreateFixedDeposit locks funds in a new fixed deposit
// @Summary Open a fixed deposit
// @Tags FixedDeposits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TermRequest true "Principal and term"
// @Success 201 {object} object{success=bool,message=string,fdId=string}
// @Failure 422 {object} services.ErrorResponse
// @Router /fixed-deposits [post]
func (h *ProductHandler) CreateFixedDeposit(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req TermRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	res := h.bank.CreateFixedDeposit(r.Context(), session.Username, req.Amount, req.DurationMonths)
	sendResult(w, res, http.StatusCreated, map[string]any{"fdId": res.Ref})
}

// CloseFixedDeposit pays out a matured deposit
// @Summary Close a matured fixed deposit
// @Tags FixedDeposits
// @Produce json
// @Security BearerAuth
// @Param fdId path string true "Fixed deposit ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 409 {object} services.ErrorResponse
// @Router /fixed-deposits/{fdId}/close [post]
func (h *ProductHandler) CloseFixedDeposit(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	sendResult(w, h.bank.CloseFixedDeposit(r.Context(), session.Username, chi.URLParam(r, "fdId")), http.StatusOK, nil)
}
