package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
)

// LoanManager originates installment loans and applies repayments. Interest
// is a flat add-on: total owed is principal * (1 + rate) whatever the term.
type LoanManager struct {
	store  *LedgerStore
	audit  *audit.Logger
	rate      decimal.Decimal
	minAge    time.Duration
	maxMonths int

	loans map[string]map[string]*models.Loan // guarded by store lock
}

func NewLoanManager(store *LedgerStore, auditLogger *audit.Logger, rate decimal.Decimal, minAccountAge time.Duration, maxMonths int) *LoanManager {
	m := &LoanManager{
		store:     store,
		audit:     auditLogger,
		rate:      rate,
		minAge:    minAccountAge,
		maxMonths: maxMonths,
		loans:     make(map[string]map[string]*models.Loan),
	}
	store.attach(m)
	return m
}

func (m *LoanManager) exportTo(snap *models.Snapshot) {
	for username, byID := range m.loans {
		out := make(map[string]models.Loan, len(byID))
		for id, l := range byID {
			out[id] = *l
		}
		snap.Loans[username] = out
	}
}

func (m *LoanManager) restoreFrom(snap *models.Snapshot) {
	m.loans = make(map[string]map[string]*models.Loan, len(snap.Loans))
	for username, byID := range snap.Loans {
		m.loans[username] = make(map[string]*models.Loan, len(byID))
		for id, l := range byID {
			loan := l
			loan.LoanID = id
			m.loans[username][id] = &loan
		}
	}
}

// TotalOwed returns principal * (1 + rate).
func TotalOwed(principal int64, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(principal).Mul(decimal.NewFromInt(1).Add(rate))
}

// MonthlyPayment returns the total owed spread evenly over months, rounded
// half to even.
func MonthlyPayment(principal int64, months int, rate decimal.Decimal) (int64, error) {
	return toAmount(TotalOwed(principal, rate).
		Div(decimal.NewFromInt(int64(months))).
		RoundBank(0))
}

// Apply originates a loan and disburses the principal into the account.
func (m *LoanManager) Apply(ctx context.Context, username string, amount int64, durationMonths int) (string, error) {
	if amount <= 0 {
		return "", fail(ErrInvalidAmount, "Loan amount must be positive")
	}
	if durationMonths <= 0 {
		return "", fail(ErrInvalidDuration, "Loan duration must be positive")
	}
	if m.maxMonths > 0 && durationMonths > m.maxMonths {
		return "", fail(ErrInvalidDuration, "Loan duration cannot exceed %d months", m.maxMonths)
	}
	payment, err := MonthlyPayment(amount, durationMonths, m.rate)
	if err != nil {
		return "", err
	}

	loanID := uuid.NewString()
	err = m.store.Update(ctx, func(tx *LedgerTx) error {
		acct, ok := tx.Account(username)
		if !ok {
			return fail(ErrNotFound, "Account %s not found", username)
		}
		now := tx.Now()
		if acct.Age(now) < m.minAge {
			return fail(ErrAccountTooNew, "Account must be at least %d months old to apply for a loan", int(m.minAge.Hours()/24/30))
		}
		for _, l := range m.loans[username] {
			if l.Status == models.LoanStatusActive {
				return fail(ErrActiveLoanExists, "You already have an active loan")
			}
		}

		loan := &models.Loan{
			LoanID:           loanID,
			Principal:        amount,
			DurationMonths:   durationMonths,
			InterestRate:     m.rate,
			MonthlyPayment:   payment,
			RemainingBalance: TotalOwed(amount, m.rate),
			StartDate:        now,
			Status:           models.LoanStatusActive,
		}
		if m.loans[username] == nil {
			m.loans[username] = make(map[string]*models.Loan)
		}
		m.loans[username][loanID] = loan
		tx.OnRollback(func() { delete(m.loans[username], loanID) })

		if err := tx.MutateBalance(username, amount); err != nil {
			return err
		}
		tx.Record(username, models.TxLoanDisbursement, amount, "", fmt.Sprintf("Loan ID: %s", loanID))
		return nil
	})
	if err != nil {
		log.Printf("[LOAN] Application failed for %s: %v", username, err)
		return "", err
	}

	m.audit.LogOperation(loanID, username, "LOAN_DISBURSEMENT", amount, fmt.Sprintf("%d months", durationMonths))
	return loanID, nil
}

// Pay applies a repayment. Checks run in a fixed order: loan exists, loan
// active, positive amount, sufficient funds, at least the monthly payment.
func (m *LoanManager) Pay(ctx context.Context, username, loanID string, amount int64) error {
	var paidOff bool
	err := m.store.Update(ctx, func(tx *LedgerTx) error {
		loan, ok := m.loans[username][loanID]
		if !ok {
			return fail(ErrNotFound, "Loan not found")
		}
		if loan.Status != models.LoanStatusActive {
			return fail(ErrNotActive, "Loan is not active")
		}
		if amount <= 0 {
			return fail(ErrInvalidAmount, "Payment amount must be positive")
		}
		acct, ok := tx.Account(username)
		if !ok || amount > acct.Balance {
			return fail(ErrInsufficientFunds, "Insufficient funds for payment")
		}
		if amount < loan.MonthlyPayment {
			return fail(ErrBelowMinimumPayment, "Minimum payment required: $%d", loan.MonthlyPayment)
		}

		prev := *loan
		tx.OnRollback(func() { *loan = prev })

		if err := tx.MutateBalance(username, -amount); err != nil {
			return err
		}
		loan.RemainingBalance = loan.RemainingBalance.Sub(decimal.NewFromInt(amount))
		loan.PaymentsMade++
		tx.Record(username, models.TxLoanPayment, amount, "", fmt.Sprintf("Loan ID: %s", loanID))

		if loan.RemainingBalance.LessThanOrEqual(decimal.Zero) {
			end := tx.Now()
			loan.Status = models.LoanStatusPaid
			loan.EndDate = &end
			paidOff = true
		}
		return nil
	})
	if err != nil {
		m.audit.LogError("LOAN_PAYMENT", username, err)
		return err
	}

	m.audit.LogOperation(loanID, username, "LOAN_PAYMENT", amount, "")
	if paidOff {
		log.Printf("[LOAN] Loan %s fully paid by %s", loanID, username)
	}
	return nil
}

// Loan returns a copy of one loan.
func (m *LoanManager) Loan(username, loanID string) (models.Loan, bool) {
	var (
		out models.Loan
		ok  bool
	)
	m.store.View(func(*LedgerView) {
		var l *models.Loan
		if l, ok = m.loans[username][loanID]; ok {
			out = *l
		}
	})
	return out, ok
}

// Loans lists a user's loans, oldest first.
func (m *LoanManager) Loans(username string) []models.Loan {
	var out []models.Loan
	m.store.View(func(*LedgerView) {
		for _, l := range m.loans[username] {
			out = append(out, *l)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}
