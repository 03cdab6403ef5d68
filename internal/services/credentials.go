package services

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ruralpay/ledger/internal/config"
	"golang.org/x/crypto/argon2"
)

const (
	minPasswordLength = 8
	passwordSymbols   = `!@#$%^&*(),.?":{}|<>`
)

// PasswordHasher derives a deterministic argon2id digest keyed by the configured salt
type PasswordHasher struct {
	cfg config.Argon2Config
}

func NewPasswordHasher(cfg config.Argon2Config) *PasswordHasher {
	return &PasswordHasher{cfg: cfg}
}

func (h *PasswordHasher) Hash(password string) string {
	key := argon2.IDKey([]byte(password), []byte(h.cfg.Salt),
		h.cfg.Time,
		h.cfg.Memory,
		h.cfg.Threads,
		h.cfg.KeyLength)
	return hex.EncodeToString(key)
}

func (h *PasswordHasher) Verify(password, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(h.Hash(password)), []byte(digest)) == 1
}

// CheckPasswordStrength reports whether password satisfies the complexity rules
// and, if not, which rule failed first.
func CheckPasswordStrength(password string) (bool, string) {
	if len(password) < minPasswordLength {
		return false, "Password must be at least 8 characters long"
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}

	if !upper {
		return false, "Password must contain at least one uppercase letter"
	}
	if !lower {
		return false, "Password must contain at least one lowercase letter"
	}
	if !digit {
		return false, "Password must contain at least one digit"
	}
	if !symbol {
		return false, "Password must contain at least one special character"
	}
	return true, "Password is strong"
}

var emailValidator = validator.New()

// ValidateEmail returns the normalized address on success or a reason on failure.
func ValidateEmail(email string) (bool, string) {
	email = strings.TrimSpace(email)
	if err := emailValidator.Var(email, "required,email"); err != nil {
		return false, "The email address is not valid"
	}
	return true, strings.ToLower(email)
}
