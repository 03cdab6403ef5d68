package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ruralpay/ledger/internal/config"
	"github.com/ruralpay/ledger/internal/models"
)

// CredentialGuard authenticates customers, enforces the failed-login lockout
// and issues sessions.
type CredentialGuard struct {
	store    *LedgerStore
	sessions SessionStore
	hasher   *PasswordHasher
	policy   config.Policy
	jwt      config.JWTConfig
	now      Clock

	failed map[string]models.FailedAttempt // guarded by store lock
}

func NewCredentialGuard(store *LedgerStore, sessions SessionStore, hasher *PasswordHasher, policy config.Policy, jwtCfg config.JWTConfig) *CredentialGuard {
	g := &CredentialGuard{
		store:    store,
		sessions: sessions,
		hasher:   hasher,
		policy:   policy,
		jwt:      jwtCfg,
		now:      store.now,
		failed:   make(map[string]models.FailedAttempt),
	}
	store.attach(g)
	return g
}

func (g *CredentialGuard) exportTo(snap *models.Snapshot) {
	for username, fa := range g.failed {
		snap.FailedAttempts[username] = fa
	}
}

func (g *CredentialGuard) restoreFrom(snap *models.Snapshot) {
	g.failed = make(map[string]models.FailedAttempt, len(snap.FailedAttempts))
	for username, fa := range snap.FailedAttempts {
		g.failed[username] = fa
	}
}

// Hash returns the stored digest for password.
func (g *CredentialGuard) Hash(password string) string {
	return g.hasher.Hash(password)
}

func (g *CredentialGuard) lockedLocked(username string, now time.Time) bool {
	fa, ok := g.failed[username]
	if !ok || fa.Count < g.policy.LockoutThreshold {
		return false
	}
	return now.Sub(fa.LastFailure) < g.policy.LockoutWindow
}

// Authenticate checks the password and opens a session.
func (g *CredentialGuard) Authenticate(ctx context.Context, username, password string) (*models.Session, error) {
	var (
		authErr error
		loginAt time.Time
	)

	err := g.store.Update(ctx, func(tx *LedgerTx) error {
		acct, ok := tx.Account(username)
		if !ok {
			return fail(ErrNotFound, "Username not found")
		}

		now := tx.Now()
		if g.lockedLocked(username, now) {
			return fail(ErrLocked, "Account locked due to too many failed attempts. Try again later.")
		}

		prev, had := g.failed[username]
		tx.OnRollback(func() {
			if had {
				g.failed[username] = prev
			} else {
				delete(g.failed, username)
			}
		})

		if !g.hasher.Verify(password, acct.PasswordHash) {
			fa := models.FailedAttempt{Count: prev.Count + 1, LastFailure: now}
			g.failed[username] = fa

			remaining := g.policy.LockoutThreshold - fa.Count
			if remaining <= 0 {
				authErr = fail(ErrLocked, "Account locked due to too many failed attempts. Try again later.")
			} else {
				authErr = &InvalidCredentialsError{Remaining: remaining}
			}
			return nil
		}

		delete(g.failed, username)
		tx.TouchLogin(username, now)
		loginAt = now
		return nil
	})
	if err != nil {
		log.Printf("[AUTH] Login failed for %s: %v", username, err)
		return nil, err
	}
	if authErr != nil {
		log.Printf("[AUTH] Invalid password for user: %s", username)
		return nil, authErr
	}

	session, err := g.issueSession(ctx, username, loginAt)
	if err != nil {
		log.Printf("[AUTH] Session creation failed for %s: %v", username, err)
		return nil, err
	}

	log.Printf("[AUTH] Login successful for %s", username)
	return session, nil
}

func (g *CredentialGuard) issueSession(ctx context.Context, username string, loginAt time.Time) (*models.Session, error) {
	id := uuid.NewString()
	expiresAt := loginAt.Add(g.policy.SessionTimeout)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Subject:   username,
		Issuer:    g.jwt.Issuer,
		IssuedAt:  jwt.NewNumericDate(loginAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(g.jwt.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	session := &models.Session{
		ID:        id,
		Token:     signed,
		Username:  username,
		LoginAt:   loginAt,
		ExpiresAt: expiresAt,
	}
	if err := g.sessions.Put(ctx, session, g.policy.SessionTimeout); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

// CheckSessionTimeout reports whether the session has outlived the session
// timeout, invalidating it if so. A missing session has nothing to expire.
func (g *CredentialGuard) CheckSessionTimeout(ctx context.Context, sessionID string, now Clock) bool {
	session, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return false
	}
	if now().Sub(session.LoginAt) <= g.policy.SessionTimeout {
		return false
	}

	if err := g.sessions.Delete(ctx, sessionID); err != nil {
		log.Printf("[AUTH] Failed to delete expired session %s: %v", sessionID, err)
	}
	log.Printf("[AUTH] Session timed out for %s", session.Username)
	return true
}

// Validate parses a bearer token and returns its live session. Expiry is
// checked against the stored session by CheckSessionTimeout, not by the parser.
func (g *CredentialGuard) Validate(ctx context.Context, tokenString string) (*models.Session, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(g.jwt.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, fail(ErrSessionNotFound, "Invalid session token")
	}

	if g.CheckSessionTimeout(ctx, claims.ID, g.now) {
		return nil, fail(ErrSessionNotFound, "Session timed out due to inactivity. Please login again.")
	}

	session, err := g.sessions.Get(ctx, claims.ID)
	if err != nil {
		// the store may already have dropped it on its own ttl
		if claims.ExpiresAt != nil && g.now().After(claims.ExpiresAt.Time) {
			return nil, fail(ErrSessionNotFound, "Session timed out due to inactivity. Please login again.")
		}
		return nil, fail(ErrSessionNotFound, "Session not found. Please login again.")
	}
	if session.Username != claims.Subject {
		return nil, fail(ErrSessionNotFound, "Invalid session token")
	}
	return session, nil
}

// Logout invalidates the session.
func (g *CredentialGuard) Logout(ctx context.Context, sessionID string) error {
	return g.sessions.Delete(ctx, sessionID)
}

// FailedAttempts returns the current failure state for username.
func (g *CredentialGuard) FailedAttempts(username string) (models.FailedAttempt, bool) {
	var (
		fa models.FailedAttempt
		ok bool
	)
	g.store.View(func(*LedgerView) { fa, ok = g.failed[username] })
	return fa, ok
}
