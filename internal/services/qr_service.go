package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// PaymentRequest is what a receive-money QR code carries: enough for the
// payer to fill in a transfer.
type PaymentRequest struct {
	Username  string `json:"username"`
	AccountID string `json:"accountId"`
	Amount    int64  `json:"amount,omitempty"`
}

type QRService struct {
	size int
}

func NewQRService() *QRService {
	return &QRService{size: 256}
}

// GenerateQRCode encodes req and renders it as a base64 PNG.
func (s *QRService) GenerateQRCode(req PaymentRequest) (string, string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", "", err
	}

	qrCode := base64.URLEncoding.EncodeToString(jsonData)

	qr, err := qrcode.New(qrCode, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(s.size)); err != nil {
		return "", "", err
	}

	qrImage := base64.StdEncoding.EncodeToString(buf.Bytes())

	return qrCode, qrImage, nil
}

// ProcessQRCode decodes a scanned code back into the payment request.
func (s *QRService) ProcessQRCode(qrCode string) (PaymentRequest, error) {
	var req PaymentRequest

	data, err := base64.URLEncoding.DecodeString(qrCode)
	if err != nil {
		return req, fail(ErrInvalidQRCode, "Invalid QR code")
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Username == "" || req.AccountID == "" {
		return req, fail(ErrInvalidQRCode, "Invalid QR code")
	}
	return req, nil
}
