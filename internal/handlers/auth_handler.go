package handlers

import (
	"net/http"
	"time"

	"github.com/ruralpay/ledger/internal/services"
)

type AuthHandler struct {
	bank      *services.Bank
	validator *services.ValidationHelper
}

func NewAuthHandler(bank *services.Bank) *AuthHandler {
	return &AuthHandler{
		bank:      bank,
		validator: services.NewValidationHelper(),
	}
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,max=64"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	InitialDeposit  int64  `json:"initialDeposit" validate:"gte=0"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Register opens a new account
// @Summary Register
// @Description Create an account with an optional initial deposit. The response carries the account ID needed to receive transfers.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} object{success=bool,message=string,accountId=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	res := h.bank.Register(r.Context(), services.RegisterRequest{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		InitialDeposit:  req.InitialDeposit,
	})
	sendResult(w, res, http.StatusCreated, map[string]any{"accountId": res.Ref})
}

// Login authenticates a customer
// @Summary Login
// @Description Authenticate with username and password. Five consecutive failures lock the account for an hour.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 423 {object} services.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	res, session := h.bank.Login(r.Context(), req.Username, req.Password)
	if !res.Success {
		sendError(w, res.Err)
		return
	}

	services.SendJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Message:   res.Message,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout ends the current session
// @Summary Logout
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,message=string}
// @Failure 401 {object} services.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := currentUser(w, r)
	if !ok {
		return
	}
	sendResult(w, h.bank.Logout(r.Context(), session.ID), http.StatusOK, nil)
}
