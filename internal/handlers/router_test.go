package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/config"
	"github.com/ruralpay/ledger/internal/metrics"
	"github.com/ruralpay/ledger/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const password = "Secret#123"

type apiClient struct {
	t      *testing.T
	router http.Handler
}

func newAPI(t *testing.T) *apiClient {
	cfg := *config.Default()
	cfg.Argon2 = config.Argon2Config{Time: 1, Memory: 64, Threads: 1, KeyLength: 32, Salt: "test"}
	cfg.JWT = config.JWTConfig{SecretKey: "test-secret", Issuer: "test"}

	bank := services.NewBank(cfg, services.BankOptions{
		Audit: audit.NewLoggerWithSink(time.Now, func(string, ...any) {}),
	})
	return &apiClient{t: t, router: NewRouter(bank, metrics.NewCollector())}
}

func (c *apiClient) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, r)

	var out map[string]any
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

// signup registers and logs in, returning the token and account ID.
func (c *apiClient) signup(username string, deposit int64) (string, string) {
	c.t.Helper()

	w, body := c.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":        username,
		"email":           username + "@example.com",
		"password":        password,
		"confirmPassword": password,
		"initialDeposit":  deposit,
	})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	accountID := body["accountId"].(string)

	w, body = c.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string), accountID
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t)

	w, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	api.signup("alice", 10)
	w, _ = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ledger_operations_total{operation="register",outcome="success"} 1`)
}

func TestAuthEndpoints(t *testing.T) {
	api := newAPI(t)
	token, _ := api.signup("alice", 100)

	t.Run("duplicate username", func(t *testing.T) {
		w, body := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
			"username": "alice", "email": "other@example.com",
			"password": password, "confirmPassword": password,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Username already exists", body["error"])
	})

	t.Run("weak password", func(t *testing.T) {
		w, body := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
			"username": "bob", "email": "bob@example.com",
			"password": "weak", "confirmPassword": "weak",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Password must be at least 8 characters long", body["error"])
	})

	t.Run("wrong password", func(t *testing.T) {
		w, body := api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{
			"username": "alice", "password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Incorrect password. 4 attempts remaining", body["error"])
	})

	t.Run("unknown user", func(t *testing.T) {
		w, _ := api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{
			"username": "ghost", "password": "nope",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("protected route needs token", func(t *testing.T) {
		w, _ := api.do(http.MethodGet, "/api/v1/account", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout revokes token", func(t *testing.T) {
		w, _ := api.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = api.do(http.MethodGet, "/api/v1/account", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAccountEndpoints(t *testing.T) {
	api := newAPI(t)
	token, accountID := api.signup("alice", 100)

	w, body := api.do(http.MethodGet, "/api/v1/account", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, accountID, body["accountId"])
	assert.Equal(t, float64(100), body["balance"])
	assert.NotContains(t, body, "password")

	w, body = api.do(http.MethodPost, "/api/v1/account/withdraw", token, map[string]any{"amount": 150})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Insufficient funds", body["error"])

	w, _ = api.do(http.MethodPost, "/api/v1/account/deposit", token, map[string]any{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = api.do(http.MethodPost, "/api/v1/account/deposit", token, map[string]any{"amount": 40})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["transactionId"])

	w, body = api.do(http.MethodGet, "/api/v1/account/transactions?type=Deposit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["transactions"], 1)

	w, _ = api.do(http.MethodGet, "/api/v1/account/transactions?days=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = api.do(http.MethodGet, "/api/v1/account/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(140), body["balance"])
	assert.Equal(t, float64(40), body["total_deposits"])
}

func TestTransferEndpoints(t *testing.T) {
	api := newAPI(t)
	aliceToken, _ := api.signup("alice", 100)
	bobToken, bobID := api.signup("bob", 0)

	w, body := api.do(http.MethodPost, "/api/v1/transfers", aliceToken, map[string]any{
		"recipient": "bob", "recipientAccountId": "wrongid", "amount": 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Account ID doesn't match the username", body["error"])

	w, body = api.do(http.MethodPost, "/api/v1/transfers", aliceToken, map[string]any{
		"recipient": "bob", "recipientAccountId": bobID, "amount": 30,
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	transferID := body["transferId"].(string)

	w, _ = api.do(http.MethodPost, "/api/v1/transfers/"+transferID+"/confirm", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "only the sender can confirm")

	w, body = api.do(http.MethodPost, "/api/v1/transfers/"+transferID+"/confirm", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["message"], "Transferred $30 to bob successfully")

	w, _ = api.do(http.MethodPost, "/api/v1/transfers/"+transferID+"/confirm", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	t.Run("via qr code", func(t *testing.T) {
		w, body := api.do(http.MethodGet, "/api/v1/account/qr?amount=20", bobToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, body["qrImage"])

		w, body = api.do(http.MethodPost, "/api/v1/transfers/qr", aliceToken, map[string]any{"qrCode": body["qrCode"]})
		require.Equal(t, http.StatusAccepted, w.Code)

		w, _ = api.do(http.MethodDelete, "/api/v1/transfers/"+body["transferId"].(string), aliceToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	_, body = api.do(http.MethodGet, "/api/v1/account", bobToken, nil)
	assert.Equal(t, float64(30), body["balance"])
}

func TestProductEndpoints(t *testing.T) {
	api := newAPI(t)
	token, _ := api.signup("alice", 2000)

	w, body := api.do(http.MethodPost, "/api/v1/loans", token, map[string]any{"amount": 1200, "durationMonths": 12})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Account must be at least 3 months old to apply for a loan", body["error"])

	w, body = api.do(http.MethodPost, "/api/v1/fixed-deposits", token, map[string]any{"amount": 1000, "durationMonths": 4000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", body["error"])

	w, body = api.do(http.MethodPost, "/api/v1/fixed-deposits", token, map[string]any{"amount": 1000, "durationMonths": 12})
	require.Equal(t, http.StatusCreated, w.Code)
	fdID := body["fdId"].(string)

	w, body = api.do(http.MethodGet, "/api/v1/fixed-deposits", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	deposits := body["fixedDeposits"].([]any)
	require.Len(t, deposits, 1)
	fd := deposits[0].(map[string]any)
	assert.Equal(t, float64(1070), fd["maturity_amount"])
	assert.InDelta(t, 360, fd["days_remaining"], 1)

	w, body = api.do(http.MethodPost, "/api/v1/fixed-deposits/"+fdID+"/close", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Fixed deposit has not matured yet", body["error"])

	w, _ = api.do(http.MethodPost, "/api/v1/loans/nope/payments", token, map[string]any{"amount": 10})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = api.do(http.MethodGet, "/api/v1/loans", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["loans"])
}
