package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
)

// FixedDepositManager locks funds for a term and pays them out with prorated
// interest once matured.
type FixedDepositManager struct {
	store     *LedgerStore
	audit     *audit.Logger
	rate      decimal.Decimal
	monthDays int
	maxMonths int

	deposits map[string]map[string]*models.FixedDeposit // guarded by store lock
}

func NewFixedDepositManager(store *LedgerStore, auditLogger *audit.Logger, rate decimal.Decimal, monthDays, maxMonths int) *FixedDepositManager {
	m := &FixedDepositManager{
		store:     store,
		audit:     auditLogger,
		rate:      rate,
		monthDays: monthDays,
		maxMonths: maxMonths,
		deposits:  make(map[string]map[string]*models.FixedDeposit),
	}
	store.attach(m)
	return m
}

func (m *FixedDepositManager) exportTo(snap *models.Snapshot) {
	for username, byID := range m.deposits {
		out := make(map[string]models.FixedDeposit, len(byID))
		for id, fd := range byID {
			out[id] = *fd
		}
		snap.FixedDeposits[username] = out
	}
}

func (m *FixedDepositManager) restoreFrom(snap *models.Snapshot) {
	m.deposits = make(map[string]map[string]*models.FixedDeposit, len(snap.FixedDeposits))
	for username, byID := range snap.FixedDeposits {
		m.deposits[username] = make(map[string]*models.FixedDeposit, len(byID))
		for id, fd := range byID {
			deposit := fd
			deposit.FDID = id
			m.deposits[username][id] = &deposit
		}
	}
}

// MaturityAmount returns principal * (1 + rate * months/12), rounded half to even.
func MaturityAmount(principal int64, months int, rate decimal.Decimal) (int64, error) {
	years := decimal.NewFromInt(int64(months)).Div(decimal.NewFromInt(12))
	return toAmount(decimal.NewFromInt(principal).
		Mul(decimal.NewFromInt(1).Add(rate.Mul(years))).
		RoundBank(0))
}

// Create opens a fixed deposit funded from the account balance.
func (m *FixedDepositManager) Create(ctx context.Context, username string, amount int64, durationMonths int) (string, error) {
	if amount <= 0 {
		return "", fail(ErrInvalidAmount, "Amount must be positive")
	}
	if durationMonths <= 0 {
		return "", fail(ErrInvalidDuration, "Duration must be positive")
	}
	if m.maxMonths > 0 && durationMonths > m.maxMonths {
		return "", fail(ErrInvalidDuration, "Duration cannot exceed %d months", m.maxMonths)
	}
	maturity, err := MaturityAmount(amount, durationMonths, m.rate)
	if err != nil {
		return "", err
	}

	fdID := uuid.NewString()
	err = m.store.Update(ctx, func(tx *LedgerTx) error {
		acct, ok := tx.Account(username)
		if !ok {
			return fail(ErrNotFound, "Account %s not found", username)
		}
		if amount > acct.Balance {
			return fail(ErrInsufficientFunds, "Insufficient funds for fixed deposit")
		}

		now := tx.Now()
		fd := &models.FixedDeposit{
			FDID:           fdID,
			Principal:      amount,
			DurationMonths: durationMonths,
			InterestRate:   m.rate,
			MaturityAmount: maturity,
			StartDate:      now,
			MaturityDate:   now.AddDate(0, 0, m.monthDays*durationMonths),
			Status:         models.FixedDepositStatusActive,
		}
		if m.deposits[username] == nil {
			m.deposits[username] = make(map[string]*models.FixedDeposit)
		}
		m.deposits[username][fdID] = fd
		tx.OnRollback(func() { delete(m.deposits[username], fdID) })

		if err := tx.MutateBalance(username, -amount); err != nil {
			return err
		}
		tx.Record(username, models.TxFixedDepositCreation, amount, "", fmt.Sprintf("FD ID: %s", fdID))
		return nil
	})
	if err != nil {
		log.Printf("[FD] Creation failed for %s: %v", username, err)
		return "", err
	}

	m.audit.LogOperation(fdID, username, "FIXED_DEPOSIT_CREATION", amount, fmt.Sprintf("%d months", durationMonths))
	return fdID, nil
}

// Close pays out a matured deposit. It succeeds at most once per deposit.
func (m *FixedDepositManager) Close(ctx context.Context, username, fdID string) (int64, error) {
	var payout int64
	err := m.store.Update(ctx, func(tx *LedgerTx) error {
		fd, ok := m.deposits[username][fdID]
		if !ok {
			return fail(ErrNotFound, "Fixed deposit not found")
		}
		if fd.Status != models.FixedDepositStatusActive {
			return fail(ErrNotActive, "Fixed deposit is not active")
		}
		now := tx.Now()
		if !fd.Matured(now) {
			return fail(ErrNotMatured, "Fixed deposit has not matured yet")
		}

		prev := *fd
		tx.OnRollback(func() { *fd = prev })

		if err := tx.MutateBalance(username, fd.MaturityAmount); err != nil {
			return err
		}
		tx.Record(username, models.TxFixedDepositMaturity, fd.MaturityAmount, "", fmt.Sprintf("FD ID: %s", fdID))

		fd.Status = models.FixedDepositStatusClosed
		fd.ClosedDate = &now
		payout = fd.MaturityAmount
		return nil
	})
	if err != nil {
		m.audit.LogError("FIXED_DEPOSIT_MATURITY", username, err)
		return 0, err
	}

	m.audit.LogOperation(fdID, username, "FIXED_DEPOSIT_MATURITY", payout, "")
	return payout, nil
}

// Deposit returns a copy of one fixed deposit.
func (m *FixedDepositManager) Deposit(username, fdID string) (models.FixedDeposit, bool) {
	var (
		out models.FixedDeposit
		ok  bool
	)
	m.store.View(func(*LedgerView) {
		var fd *models.FixedDeposit
		if fd, ok = m.deposits[username][fdID]; ok {
			out = *fd
		}
	})
	return out, ok
}

// Deposits lists a user's fixed deposits, oldest first.
func (m *FixedDepositManager) Deposits(username string) []models.FixedDeposit {
	var out []models.FixedDeposit
	m.store.View(func(*LedgerView) {
		for _, fd := range m.deposits[username] {
			out = append(out, *fd)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}
