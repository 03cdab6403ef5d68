package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type amountRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Note   string `json:"note" validate:"max=10"`
}

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid struct", func(t *testing.T) {
		assert.NoError(t, vh.ValidateStruct(&amountRequest{Amount: 5}))
	})

	t.Run("invalid struct", func(t *testing.T) {
		err := vh.ValidateStruct(&amountRequest{Amount: -1, Note: "far too long a note"})
		require.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Len(t, validationErrors, 2)
	})
}

func TestValidationHelper_DecodeAndValidate(t *testing.T) {
	vh := NewValidationHelper()

	tests := []struct {
		name   string
		body   string
		ok     bool
		status int
		errMsg string
	}{
		{"valid", `{"amount": 10}`, true, http.StatusOK, ""},
		{"malformed", `{"amount":`, false, http.StatusBadRequest, "Invalid request body"},
		{"unknown field", `{"amount": 10, "currency": "USD"}`, false, http.StatusBadRequest, "Invalid request body"},
		{"trailing object", `{"amount": 10}{"amount": 1}`, false, http.StatusBadRequest, "Request body must only contain a single JSON object"},
		{"validation", `{"amount": 0}`, false, http.StatusBadRequest, "Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var req amountRequest
			assert.Equal(t, tt.ok, vh.DecodeAndValidate(w, r, &req))
			if tt.ok {
				assert.Equal(t, int64(10), req.Amount)
				return
			}

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.errMsg, resp.Error)
			assert.False(t, resp.Success)
		})
	}
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendErrorResponse(w, "Test error", http.StatusBadRequest, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Test error", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("with validation errors", func(t *testing.T) {
		err := NewValidationHelper().ValidateStruct(&amountRequest{})

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Field Validation Failed on 'required' tag", response.Details["Amount"])
	})

	t.Run("non-validation error is ignored", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendErrorResponse(w, "boom", http.StatusInternalServerError, ErrPersistence)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Nil(t, response.Details)
	})
}
