package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/config"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snapshot), args.Error(1)
}

func (m *MockSnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

// memoryGateway keeps the last saved snapshot.
type memoryGateway struct {
	mu    sync.Mutex
	last  *models.Snapshot
	saves int
}

func (g *memoryGateway) Load(ctx context.Context) (*models.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return models.NewSnapshot(), nil
	}
	return g.last, nil
}

func (g *memoryGateway) Save(ctx context.Context, snap *models.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = snap
	g.saves++
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() config.Config {
	cfg := *config.Default()
	cfg.Argon2 = config.Argon2Config{Time: 1, Memory: 64, Threads: 1, KeyLength: 32, Salt: "test-salt"}
	cfg.JWT = config.JWTConfig{SecretKey: "test-secret", Issuer: "ledger-test"}
	cfg.Products.LoanInterestRate = decimal.RequireFromString("0.05")
	cfg.Products.FixedDepositInterestRate = decimal.RequireFromString("0.07")
	return cfg
}

type fixture struct {
	clock     *fakeClock
	gateway   *memoryGateway
	store     *LedgerStore
	guard     *CredentialGuard
	transfers *TransferCoordinator
	loans     *LoanManager
	deposits  *FixedDepositManager
}

func newFixture() *fixture {
	cfg := testConfig()
	clock := newFakeClock()
	gateway := &memoryGateway{}
	store := NewLedgerStore(gateway, clock.Now)
	auditLogger := newQuietAudit(clock)

	return &fixture{
		clock:     clock,
		gateway:   gateway,
		store:     store,
		guard:     NewCredentialGuard(store, NewMemorySessionStore(), NewPasswordHasher(cfg.Argon2), cfg.Policy, cfg.JWT),
		transfers: NewTransferCoordinator(store, auditLogger, cfg.Products.PendingTransferTTL),
		loans:     NewLoanManager(store, auditLogger, cfg.Products.LoanInterestRate, cfg.Products.LoanMinAccountAge, cfg.Products.MaxTermMonths),
		deposits:  NewFixedDepositManager(store, auditLogger, cfg.Products.FixedDepositInterestRate, cfg.Products.FixedDepositMonthDays, cfg.Products.MaxTermMonths),
	}
}

const testPassword = "Secret#123"

func (f *fixture) open(t *testing.T, username string, deposit int64) string {
	t.Helper()
	id, err := f.store.CreateAccount(context.Background(), username, f.guard.Hash(testPassword), username+"@example.com", deposit)
	require.NoError(t, err)
	return id
}

func newQuietAudit(clock *fakeClock) *audit.Logger {
	return audit.NewLoggerWithSink(clock.Now, func(string, ...any) {})
}
