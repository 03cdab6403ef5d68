package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/config"
	"github.com/ruralpay/ledger/internal/metrics"
	"github.com/ruralpay/ledger/internal/models"
)

// Result is the outcome of a customer-facing operation. Message is what the
// customer sees; Ref carries the generated ID when there is one.
type Result struct {
	Success bool
	Message string
	Ref     string
	Err     error
}

func succeeded(ref, format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...), Ref: ref}
}

func failed(err error) Result {
	return Result{Message: err.Error(), Err: err}
}

type RegisterRequest struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	InitialDeposit  int64
}

// HistoryFilter narrows a transaction listing. Zero values match everything.
type HistoryFilter struct {
	Type models.TxType
	Days int
}

type Summary struct {
	Balance          int64 `json:"balance"`
	TotalDeposits    int64 `json:"total_deposits"`
	TotalWithdrawals int64 `json:"total_withdrawals"`
	TransactionCount int   `json:"transaction_count"`
	ActiveLoans      int   `json:"active_loans"`
	ActiveDeposits   int   `json:"active_fixed_deposits"`
}

// Bank wires the ledger components together behind one entry point per
// customer operation.
type Bank struct {
	store     *LedgerStore
	guard     *CredentialGuard
	transfers *TransferCoordinator
	loans     *LoanManager
	deposits  *FixedDepositManager
	audit     *audit.Logger
	metrics   *metrics.Collector
}

type BankOptions struct {
	Gateway  SnapshotStore
	Sessions SessionStore
	Audit    *audit.Logger
	Metrics  *metrics.Collector
	Clock    Clock
}

func NewBank(cfg config.Config, opts BankOptions) *Bank {
	if opts.Sessions == nil {
		opts.Sessions = NewMemorySessionStoreWithClock(opts.Clock)
	}
	if opts.Audit == nil {
		opts.Audit = audit.NewLogger()
	}

	store := NewLedgerStore(opts.Gateway, opts.Clock)
	return &Bank{
		store:     store,
		guard:     NewCredentialGuard(store, opts.Sessions, NewPasswordHasher(cfg.Argon2), cfg.Policy, cfg.JWT),
		transfers: NewTransferCoordinator(store, opts.Audit, cfg.Products.PendingTransferTTL),
		loans:     NewLoanManager(store, opts.Audit, cfg.Products.LoanInterestRate, cfg.Products.LoanMinAccountAge, cfg.Products.MaxTermMonths),
		deposits:  NewFixedDepositManager(store, opts.Audit, cfg.Products.FixedDepositInterestRate, cfg.Products.FixedDepositMonthDays, cfg.Products.MaxTermMonths),
		audit:     opts.Audit,
		metrics:   opts.Metrics,
	}
}

func (b *Bank) Guard() *CredentialGuard { return b.guard }

// Restore loads persisted state. Call once before serving.
func (b *Bank) Restore(ctx context.Context) error {
	return b.store.Load(ctx)
}

func (b *Bank) observe(operation string, started time.Time, r Result, amount int64) Result {
	b.metrics.Record(operation, started, r.Success, amount)
	return r
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// Register validates the sign-up form and opens the account.
func (b *Bank) Register(ctx context.Context, req RegisterRequest) Result {
	started := time.Now()

	if req.Password != req.ConfirmPassword {
		return b.observe("register", started, failed(fail(ErrPasswordMismatch, "Passwords don't match")), 0)
	}
	if strong, msg := CheckPasswordStrength(req.Password); !strong {
		return b.observe("register", started, failed(fail(ErrWeakPassword, "%s", msg)), 0)
	}
	valid, email := ValidateEmail(req.Email)
	if !valid {
		return b.observe("register", started, failed(fail(ErrInvalidEmail, "%s", email)), 0)
	}

	accountID, err := b.store.CreateAccount(ctx, normalizeUsername(req.Username), b.guard.Hash(req.Password), email, req.InitialDeposit)
	if err != nil {
		return b.observe("register", started, failed(err), 0)
	}
	return b.observe("register", started, succeeded(accountID, "Account created successfully! Your Account ID: %s", accountID), req.InitialDeposit)
}

// Login authenticates and opens a session. Ref is the session token.
func (b *Bank) Login(ctx context.Context, username, password string) (Result, *models.Session) {
	started := time.Now()
	session, err := b.guard.Authenticate(ctx, normalizeUsername(username), password)
	if err != nil {
		return b.observe("login", started, failed(err), 0), nil
	}
	return b.observe("login", started, succeeded(session.Token, "Login successful"), 0), session
}

func (b *Bank) Logout(ctx context.Context, sessionID string) Result {
	started := time.Now()
	if err := b.guard.Logout(ctx, sessionID); err != nil {
		return b.observe("logout", started, failed(err), 0)
	}
	return b.observe("logout", started, succeeded("", "Logged out successfully"), 0)
}

func (b *Bank) Deposit(ctx context.Context, username string, amount int64) Result {
	started := time.Now()
	txID, err := b.store.Deposit(ctx, username, amount)
	if err != nil {
		return b.observe("deposit", started, failed(err), 0)
	}
	b.audit.LogOperation(txID, username, "DEPOSIT", amount, "")
	return b.observe("deposit", started, succeeded(txID, "Deposited $%d successfully. Transaction ID: %s", amount, txID), amount)
}

func (b *Bank) Withdraw(ctx context.Context, username string, amount int64) Result {
	started := time.Now()
	txID, err := b.store.Withdraw(ctx, username, amount)
	if err != nil {
		return b.observe("withdraw", started, failed(err), 0)
	}
	b.audit.LogOperation(txID, username, "WITHDRAWAL", amount, "")
	return b.observe("withdraw", started, succeeded(txID, "Withdrew $%d successfully. Transaction ID: %s", amount, txID), amount)
}

// InitiateTransfer stages a transfer. Ref is the transfer ID to confirm.
func (b *Bank) InitiateTransfer(username, recipient, recipientAccountID string, amount int64, description string) Result {
	started := time.Now()
	id, err := b.transfers.Initiate(username, recipient, recipientAccountID, amount, description)
	if err != nil {
		return b.observe("transfer_initiate", started, failed(err), 0)
	}
	return b.observe("transfer_initiate", started,
		succeeded(id, "Please confirm transfer of $%d to %s (Account ID: %s)", amount, recipient, recipientAccountID), 0)
}

// ConfirmTransfer commits a transfer staged by the same customer.
func (b *Bank) ConfirmTransfer(ctx context.Context, username, transferID string) Result {
	started := time.Now()
	p, found := b.transfers.Pending(transferID)
	if !found || p.Sender != username {
		return b.observe("transfer_confirm", started, failed(fail(ErrUnknownTransfer, "Invalid transfer request")), 0)
	}
	txID, err := b.transfers.Confirm(ctx, transferID)
	if err != nil {
		return b.observe("transfer_confirm", started, failed(err), 0)
	}
	return b.observe("transfer_confirm", started,
		succeeded(txID, "Transferred $%d to %s successfully. Transaction ID: %s", p.Amount, p.Recipient, txID), p.Amount)
}

func (b *Bank) CancelTransfer(username, transferID string) Result {
	started := time.Now()
	p, found := b.transfers.Pending(transferID)
	if !found || p.Sender != username {
		return b.observe("transfer_cancel", started, failed(fail(ErrUnknownTransfer, "Invalid transfer request")), 0)
	}
	if err := b.transfers.Cancel(transferID); err != nil {
		return b.observe("transfer_cancel", started, failed(err), 0)
	}
	return b.observe("transfer_cancel", started, succeeded(transferID, "Transfer cancelled"), 0)
}

func (b *Bank) ApplyForLoan(ctx context.Context, username string, amount int64, durationMonths int) Result {
	started := time.Now()
	loanID, err := b.loans.Apply(ctx, username, amount, durationMonths)
	if err != nil {
		return b.observe("loan_apply", started, failed(err), 0)
	}
	return b.observe("loan_apply", started,
		succeeded(loanID, "Loan approved! $%d has been deposited to your account. Loan ID: %s", amount, loanID), amount)
}

func (b *Bank) PayLoan(ctx context.Context, username, loanID string, amount int64) Result {
	started := time.Now()
	if err := b.loans.Pay(ctx, username, loanID, amount); err != nil {
		return b.observe("loan_payment", started, failed(err), 0)
	}
	return b.observe("loan_payment", started, succeeded(loanID, "Payment of $%d applied to loan %s", amount, loanID), amount)
}

func (b *Bank) CreateFixedDeposit(ctx context.Context, username string, amount int64, durationMonths int) Result {
	started := time.Now()
	fdID, err := b.deposits.Create(ctx, username, amount, durationMonths)
	if err != nil {
		return b.observe("fd_create", started, failed(err), 0)
	}
	return b.observe("fd_create", started, succeeded(fdID, "Fixed deposit created successfully! FD ID: %s", fdID), amount)
}

func (b *Bank) CloseFixedDeposit(ctx context.Context, username, fdID string) Result {
	started := time.Now()
	payout, err := b.deposits.Close(ctx, username, fdID)
	if err != nil {
		return b.observe("fd_close", started, failed(err), 0)
	}
	return b.observe("fd_close", started, succeeded(fdID, "Fixed deposit %s closed. $%d credited to your account", fdID, payout), payout)
}

func (b *Bank) Account(username string) (models.Account, error) {
	acct, found := b.store.Account(username)
	if !found {
		return models.Account{}, fail(ErrNotFound, "Account information not found")
	}
	return acct, nil
}

// History lists transactions newest first, narrowed by filter.
func (b *Bank) History(username string, filter HistoryFilter) ([]models.Transaction, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fail(ErrInvalidFilter, "Unknown transaction type %q", filter.Type)
	}

	var (
		out    []models.Transaction
		cutoff time.Time
	)
	b.store.View(func(v *LedgerView) {
		if filter.Days > 0 {
			cutoff = v.Now().AddDate(0, 0, -filter.Days)
		}
		history := v.Transactions(username)
		for i := len(history) - 1; i >= 0; i-- {
			t := history[i]
			if filter.Type != "" && t.Type != filter.Type {
				continue
			}
			if !cutoff.IsZero() && t.Timestamp.Before(cutoff) {
				continue
			}
			out = append(out, t)
		}
	})
	return out, nil
}

func (b *Bank) Summary(username string) (Summary, error) {
	acct, err := b.Account(username)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Balance: acct.Balance}
	for _, t := range b.store.Transactions(username) {
		switch t.Type {
		case models.TxDeposit:
			s.TotalDeposits += t.Amount
		case models.TxWithdrawal:
			s.TotalWithdrawals += t.Amount
		}
		s.TransactionCount++
	}
	for _, l := range b.loans.Loans(username) {
		if l.Status == models.LoanStatusActive {
			s.ActiveLoans++
		}
	}
	for _, fd := range b.deposits.Deposits(username) {
		if fd.Status == models.FixedDepositStatusActive {
			s.ActiveDeposits++
		}
	}
	return s, nil
}

func (b *Bank) Loans(username string) []models.Loan {
	return b.loans.Loans(username)
}

func (b *Bank) FixedDeposits(username string) []models.FixedDeposit {
	return b.deposits.Deposits(username)
}

// Now is the ledger clock.
func (b *Bank) Now() time.Time {
	var now time.Time
	b.store.View(func(v *LedgerView) { now = v.Now() })
	return now
}
