package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruralpay/ledger/internal/services"
)

type TransferHandler struct {
	bank      *services.Bank
	qr        *services.QRService
	validator *services.ValidationHelper
}

func NewTransferHandler(bank *services.Bank, qr *services.QRService) *TransferHandler {
	return &TransferHandler{
		bank:      bank,
		qr:        qr,
		validator: services.NewValidationHelper(),
	}
}

type TransferRequest struct {
	Recipient          string `json:"recipient" validate:"required"`
	RecipientAccountID string `json:"recipientAccountId" validate:"required"`
	Amount             int64  `json:"amount" validate:"required,gt=0"`
	Description        string `json:"description" validate:"max=140"`
}

type QRTransferRequest struct {
	QRCode      string `json:"qrCode" validate:"required"`
	Amount      int64  `json:"amount" validate:"gte=0"`
	Description string `json:"description" validate:"max=140"`
}

// Initiate stages a transfer awaiting confirmation
// @Summary Initiate transfer
// @Description Validates the recipient and funds, then stages the transfer. No money moves until it is confirmed.
// @Tags Transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "Transfer details"
// @Success 202 {object} object{success=bool,message=string,transferId=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /transfers [post]
func (h *TransferHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	res := h.bank.InitiateTransfer(session.Username, req.Recipient, req.RecipientAccountID, req.Amount, req.Description)
	sendResult(w, res, http.StatusAccepted, map[string]any{"transferId": res.Ref})
}

// InitiateFromQR stages a transfer to the account encoded in a scanned QR code
// @Summary Initiate transfer from QR code
// @Description The amount in the code is used unless the request supplies one.
// @Tags Transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body QRTransferRequest true "Scanned code"
// @Success 202 {object} object{success=bool,message=string,transferId=string}
// @Failure 400 {object} services.ErrorResponse
// @Router /transfers/qr [post]
func (h *TransferHandler) InitiateFromQR(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req QRTransferRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.qr.ProcessQRCode(req.QRCode)
	if err != nil {
		sendError(w, err)
		return
	}
	amount := payment.Amount
	if req.Amount > 0 {
		amount = req.Amount
	}

	res := h.bank.InitiateTransfer(session.Username, payment.Username, payment.AccountID, amount, req.Description)
	sendResult(w, res, http.StatusAccepted, map[string]any{"transferId": res.Ref})
}

// Confirm commits a staged transfer
// @Summary Confirm transfer
// @Tags Transfers
// @Produce json
// @Security BearerAuth
// @Param transferId path string true "Transfer ID"
// @Success 200 {object} object{success=bool,message=string,transactionId=string}
// @Failure 404 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /transfers/{transferId}/confirm [post]
func (h *TransferHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	res := h.bank.ConfirmTransfer(r.Context(), session.Username, chi.URLParam(r, "transferId"))
	sendResult(w, res, http.StatusOK, map[string]any{"transactionId": res.Ref})
}

// Cancel discards a staged transfer
// @Summary Cancel transfer
// @Tags Transfers
// @Produce json
// @Security BearerAuth
// @Param transferId path string true "Transfer ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 404 {object} services.ErrorResponse
// @Router /transfers/{transferId} [delete]
func (h *TransferHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	sendResult(w, h.bank.CancelTransfer(session.Username, chi.URLParam(r, "transferId")), http.StatusOK, nil)
}
