package handlers

import (
	"net/http"
	"strconv"

	"github.com/ruralpay/ledger/internal/services"
)

type QRHandler struct {
	bank    *services.Bank
	service *services.QRService
}

func NewQRHandler(bank *services.Bank, service *services.QRService) *QRHandler {
	return &QRHandler{
		bank:    bank,
		service: service,
	}
}

// GenerateQR returns a QR code others can scan to pay this account
// @Summary Receive-money QR code
// @Description Encodes the username and account ID, plus an optional requested amount
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Param amount query int false "Requested amount"
// @Success 200 {object} object{success=bool,qrCode=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /account/qr [get]
func (h *QRHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}

	var amount int64
	if raw := r.URL.Query().Get("amount"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			services.SendErrorResponse(w, "Amount must be positive", http.StatusBadRequest, nil)
			return
		}
		amount = n
	}

	acct, err := h.bank.Account(session.Username)
	if err != nil {
		sendError(w, err)
		return
	}

	qrCode, qrImage, err := h.service.GenerateQRCode(services.PaymentRequest{
		Username:  acct.Username,
		AccountID: acct.AccountID,
		Amount:    amount,
	})
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	services.SendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"qrCode":  qrCode,
		"qrImage": qrImage,
	})
}
