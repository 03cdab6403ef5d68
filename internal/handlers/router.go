package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ruralpay/ledger/internal/metrics"
	mW "github.com/ruralpay/ledger/internal/middleware"
	"github.com/ruralpay/ledger/internal/services"
)

// NewRouter builds the HTTP API around bank. collector may be nil.
func NewRouter(bank *services.Bank, collector *metrics.Collector) *chi.Mux {
	qrService := services.NewQRService()
	authHandler := NewAuthHandler(bank)
	accountHandler := NewAccountHandler(bank)
	transferHandler := NewTransferHandler(bank, qrService)
	productHandler := NewProductHandler(bank)
	qrHandler := NewQRHandler(bank, qrService)

	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		services.SendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	if collector != nil {
		r.Handle("/metrics", collector.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(mW.SessionAuth(bank.Guard()))

			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/account", accountHandler.GetAccount)
			r.Get("/account/transactions", accountHandler.ListTransactions)
			r.Get("/account/summary", accountHandler.GetSummary)
			r.Get("/account/qr", qrHandler.GenerateQR)
			r.Post("/account/deposit", accountHandler.Deposit)
			r.Post("/account/withdraw", accountHandler.Withdraw)

			r.Post("/transfers", transferHandler.Initiate)
			r.Post("/transfers/qr", transferHandler.InitiateFromQR)
			r.Post("/transfers/{transferId}/confirm", transferHandler.Confirm)
			r.Delete("/transfers/{transferId}", transferHandler.Cancel)

			r.Get("/loans", productHandler.ListLoans)
			r.Post("/loans", productHandler.ApplyForLoan)
			r.Post("/loans/{loanId}/payments", productHandler.PayLoan)

			r.Get("/fixed-deposits", productHandler.ListFixedDeposits)
			r.Post("/fixed-deposits", productHandler.CreateFixedDeposit)
			r.Post("/fixed-deposits/{fdId}/close", productHandler.CloseFixedDeposit)
		})
	})

	return r
}
