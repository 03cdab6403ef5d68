package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ruralpay/ledger/internal/models"
)

// Clock returns the current time. Tests inject fixed clocks.
type Clock func() time.Time

// SnapshotStore is the persistence gateway. Load runs once at startup,
// Save after every committed mutation.
type SnapshotStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
}

// snapshotPart is state owned by another component that rides along in the
// ledger snapshot. Both methods run with the store lock held.
type snapshotPart interface {
	exportTo(snap *models.Snapshot)
	restoreFrom(snap *models.Snapshot)
}

// LedgerStore is the single source of truth for accounts and their
// transaction histories. One mutex serializes every read and write; the loan,
// fixed-deposit, transfer and credential components keep their own maps but
// only touch them from inside View or Update.
type LedgerStore struct {
	mu         sync.Mutex
	accounts   map[string]*models.Account
	history    map[string][]models.Transaction
	emails     map[string]string // lower-cased email -> username
	accountIDs map[string]string // account ID -> username
	parts      []snapshotPart
	gateway    SnapshotStore
	now        Clock
}

func NewLedgerStore(gateway SnapshotStore, now Clock) *LedgerStore {
	if now == nil {
		now = time.Now
	}
	return &LedgerStore{
		accounts:   make(map[string]*models.Account),
		history:    make(map[string][]models.Transaction),
		emails:     make(map[string]string),
		accountIDs: make(map[string]string),
		gateway:    gateway,
		now:        now,
	}
}

func (s *LedgerStore) attach(part snapshotPart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts = append(s.parts, part)
}

// LedgerView is read access to ledger state under the store lock.
type LedgerView struct {
	store *LedgerStore
}

func (v *LedgerView) Now() time.Time { return v.store.now() }

// Account returns a copy of the account.
func (v *LedgerView) Account(username string) (models.Account, bool) {
	a, ok := v.store.accounts[username]
	if !ok {
		return models.Account{}, false
	}
	return *a, true
}

// Transactions returns a copy of the account history in recording order.
func (v *LedgerView) Transactions(username string) []models.Transaction {
	h := v.store.history[username]
	out := make([]models.Transaction, len(h))
	copy(out, h)
	return out
}

// LedgerTx is a unit of work. Every change it makes is undone if the
// surrounding Update fails, so callers never observe a partial mutation.
type LedgerTx struct {
	LedgerView
	undo []func()
}

// OnRollback registers fn to run if the unit of work is abandoned.
func (tx *LedgerTx) OnRollback(fn func()) {
	tx.undo = append(tx.undo, fn)
}

func (tx *LedgerTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// MutateBalance is the only path that changes a balance.
func (tx *LedgerTx) MutateBalance(username string, delta int64) error {
	a, ok := tx.store.accounts[username]
	if !ok {
		return fail(ErrNotFound, "Account %s not found", username)
	}
	if delta > 0 && a.Balance > math.MaxInt64-delta {
		return fail(ErrInvalidAmount, "Amount exceeds the maximum balance")
	}
	if a.Balance+delta < 0 {
		return fail(ErrInsufficientFunds, "Insufficient funds")
	}

	prev := a.Balance
	a.Balance += delta
	tx.OnRollback(func() { a.Balance = prev })
	return nil
}

// Record appends a transaction stamped with the account's current balance.
// The triggering balance mutation must already have been applied.
func (tx *LedgerTx) Record(username string, typ models.TxType, amount int64, transactionID, description string) string {
	if transactionID == "" {
		transactionID = uuid.NewString()
	}

	entry := models.Transaction{
		TransactionID: transactionID,
		Username:      username,
		Type:          typ,
		Amount:        amount,
		Timestamp:     tx.store.now(),
		BalanceAfter:  tx.store.accounts[username].Balance,
		Description:   description,
		Seq:           len(tx.store.history[username]) + 1,
	}

	prevLen := len(tx.store.history[username])
	tx.store.history[username] = append(tx.store.history[username], entry)
	tx.OnRollback(func() {
		tx.store.history[username] = tx.store.history[username][:prevLen]
	})
	return transactionID
}

// TouchLogin stamps the account's last-login time.
func (tx *LedgerTx) TouchLogin(username string, at time.Time) {
	a, ok := tx.store.accounts[username]
	if !ok {
		return
	}
	prev := a.LastLogin
	a.LastLogin = &at
	tx.OnRollback(func() { a.LastLogin = prev })
}

// View runs fn with the store locked. fn must not mutate ledger state.
func (s *LedgerStore) View(fn func(v *LedgerView)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&LedgerView{store: s})
}

// Update runs fn as one unit of work and persists the resulting snapshot
// before releasing the lock. If fn or the save fails, every change made
// through the LedgerTx is rolled back and the error is returned.
func (s *LedgerStore) Update(ctx context.Context, fn func(tx *LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &LedgerTx{LedgerView: LedgerView{store: s}}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}

	if s.gateway != nil {
		if err := s.gateway.Save(ctx, s.snapshotLocked()); err != nil {
			log.Printf("[LEDGER] Snapshot save failed, rolling back: %v", err)
			tx.rollback()
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}
	return nil
}

// CreateAccount opens an account and returns its generated account ID.
func (s *LedgerStore) CreateAccount(ctx context.Context, username, passwordHash, email string, initialDeposit int64) (string, error) {
	if initialDeposit < 0 {
		return "", fail(ErrInvalidAmount, "Initial deposit cannot be negative")
	}
	emailKey := strings.ToLower(strings.TrimSpace(email))

	var accountID string
	err := s.Update(ctx, func(tx *LedgerTx) error {
		if _, exists := s.accounts[username]; exists {
			return fail(ErrDuplicateUsername, "Username already exists")
		}
		if _, exists := s.emails[emailKey]; exists {
			return fail(ErrDuplicateEmail, "Email already registered with another account")
		}

		accountID = s.newAccountIDLocked()
		s.accounts[username] = &models.Account{
			Username:     username,
			PasswordHash: passwordHash,
			AccountID:    accountID,
			Email:        email,
			Balance:      initialDeposit,
			CreatedAt:    s.now(),
			AccountType:  "standard",
			Status:       models.AccountStatusActive,
		}
		s.emails[emailKey] = username
		s.accountIDs[accountID] = username
		tx.OnRollback(func() {
			delete(s.accounts, username)
			delete(s.emails, emailKey)
			delete(s.accountIDs, accountID)
		})

		if initialDeposit > 0 {
			tx.Record(username, models.TxAccountCreationDeposit, initialDeposit, "", "")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Printf("[LEDGER] Account created - username: %s, account ID: %s", username, accountID)
	return accountID, nil
}

func (s *LedgerStore) newAccountIDLocked() string {
	for {
		id := uuid.NewString()[:8]
		if _, taken := s.accountIDs[id]; !taken {
			return id
		}
	}
}

// Deposit credits a positive amount and records it.
func (s *LedgerStore) Deposit(ctx context.Context, username string, amount int64) (string, error) {
	return s.applySimple(ctx, username, amount, models.TxDeposit)
}

// Withdraw debits a positive amount and records it.
func (s *LedgerStore) Withdraw(ctx context.Context, username string, amount int64) (string, error) {
	return s.applySimple(ctx, username, amount, models.TxWithdrawal)
}

func (s *LedgerStore) applySimple(ctx context.Context, username string, amount int64, typ models.TxType) (string, error) {
	if amount <= 0 {
		return "", fail(ErrInvalidAmount, "Amount must be positive")
	}
	delta := amount
	if !typ.Credit() {
		delta = -amount
	}

	var txID string
	err := s.Update(ctx, func(tx *LedgerTx) error {
		if err := tx.MutateBalance(username, delta); err != nil {
			return err
		}
		txID = tx.Record(username, typ, amount, "", "")
		return nil
	})
	return txID, err
}

// Account returns a copy of the account.
func (s *LedgerStore) Account(username string) (models.Account, bool) {
	var (
		a  models.Account
		ok bool
	)
	s.View(func(v *LedgerView) { a, ok = v.Account(username) })
	return a, ok
}

// Balance returns the current balance or ErrNotFound.
func (s *LedgerStore) Balance(username string) (int64, error) {
	a, ok := s.Account(username)
	if !ok {
		return 0, fail(ErrNotFound, "Account %s not found", username)
	}
	return a.Balance, nil
}

// Transactions returns the account history in recording order.
func (s *LedgerStore) Transactions(username string) []models.Transaction {
	var out []models.Transaction
	s.View(func(v *LedgerView) { out = v.Transactions(username) })
	return out
}

// Snapshot exports the full state, including attached components.
func (s *LedgerStore) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *LedgerStore) snapshotLocked() *models.Snapshot {
	snap := models.NewSnapshot()
	for username, a := range s.accounts {
		snap.Accounts[username] = *a
	}
	for username, h := range s.history {
		byID := make(map[string]models.Transaction, len(h))
		for _, t := range h {
			byID[t.TransactionID] = t
		}
		snap.Transactions[username] = byID
	}
	for _, p := range s.parts {
		p.exportTo(snap)
	}
	return snap
}

// Restore replaces all state, including attached components, with snap.
func (s *LedgerStore) Restore(snap *models.Snapshot) {
	snap.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[string]*models.Account, len(snap.Accounts))
	s.history = make(map[string][]models.Transaction, len(snap.Transactions))
	s.emails = make(map[string]string, len(snap.Accounts))
	s.accountIDs = make(map[string]string, len(snap.Accounts))

	for username, a := range snap.Accounts {
		acct := a
		acct.Username = username
		s.accounts[username] = &acct
		s.emails[strings.ToLower(strings.TrimSpace(acct.Email))] = username
		s.accountIDs[acct.AccountID] = username
	}
	for username, byID := range snap.Transactions {
		h := make([]models.Transaction, 0, len(byID))
		for id, t := range byID {
			t.TransactionID = id
			t.Username = username
			h = append(h, t)
		}
		sort.SliceStable(h, func(i, j int) bool {
			if h[i].Seq != h[j].Seq {
				return h[i].Seq < h[j].Seq
			}
			if !h[i].Timestamp.Equal(h[j].Timestamp) {
				return h[i].Timestamp.Before(h[j].Timestamp)
			}
			return h[i].TransactionID < h[j].TransactionID
		})
		s.history[username] = h
	}
	for _, p := range s.parts {
		p.restoreFrom(snap)
	}
}

// Load restores state from the persistence gateway.
func (s *LedgerStore) Load(ctx context.Context) error {
	if s.gateway == nil {
		return nil
	}
	snap, err := s.gateway.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.Restore(snap)
	log.Printf("[LEDGER] Restored %d accounts from snapshot", len(snap.Accounts))
	return nil
}
