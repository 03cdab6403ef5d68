package services

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRService(t *testing.T) {
	s := NewQRService()

	code, img, err := s.GenerateQRCode(PaymentRequest{Username: "bob", AccountID: "1a2b3c4d", Amount: 25})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(img)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 256, decoded.Bounds().Dx())

	req, err := s.ProcessQRCode(code)
	require.NoError(t, err)
	assert.Equal(t, PaymentRequest{Username: "bob", AccountID: "1a2b3c4d", Amount: 25}, req)

	_, err = s.ProcessQRCode("not base64!")
	assert.ErrorIs(t, err, ErrInvalidQRCode)

	_, err = s.ProcessQRCode(base64.URLEncoding.EncodeToString([]byte(`{"amount":5}`)))
	assert.ErrorIs(t, err, ErrInvalidQRCode)
}
