package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/models"
)

// TransferCoordinator runs the two-phase transfer protocol: Initiate stages a
// pending transfer without moving funds; Confirm commits both legs in one unit
// of work; Cancel discards it. Pending transfers are process-local and never
// persisted.
type TransferCoordinator struct {
	store *LedgerStore
	audit *audit.Logger
	ttl   time.Duration

	pending map[string]models.PendingTransfer // guarded by store lock
}

func NewTransferCoordinator(store *LedgerStore, auditLogger *audit.Logger, ttl time.Duration) *TransferCoordinator {
	return &TransferCoordinator{
		store:   store,
		audit:   auditLogger,
		ttl:     ttl,
		pending: make(map[string]models.PendingTransfer),
	}
}

// Initiate validates the transfer and stages it, returning the transfer ID.
func (c *TransferCoordinator) Initiate(sender, recipient, recipientAccountID string, amount int64, description string) (string, error) {
	if amount <= 0 {
		return "", fail(ErrInvalidAmount, "Amount must be positive")
	}

	var (
		transferID string
		err        error
	)
	c.store.View(func(v *LedgerView) {
		from, ok := v.Account(sender)
		if !ok {
			err = fail(ErrNotFound, "Account %s not found", sender)
			return
		}
		to, ok := v.Account(recipient)
		if !ok {
			err = fail(ErrRecipientNotFound, "Recipient username not found")
			return
		}
		if to.AccountID != recipientAccountID {
			err = fail(ErrAccountIDMismatch, "Account ID doesn't match the username")
			return
		}
		if sender == recipient {
			err = fail(ErrSelfTransfer, "Cannot transfer to yourself")
			return
		}
		if from.Balance < amount {
			err = fail(ErrInsufficientFunds, "Insufficient funds for transfer")
			return
		}

		now := v.Now()
		for id, p := range c.pending {
			if c.expired(p, now) {
				delete(c.pending, id)
			}
		}

		transferID = uuid.NewString()
		c.pending[transferID] = models.PendingTransfer{
			ID:                 transferID,
			Sender:             sender,
			Recipient:          recipient,
			RecipientAccountID: recipientAccountID,
			Amount:             amount,
			Description:        description,
			CreatedAt:          now,
		}
	})
	if err != nil {
		return "", err
	}

	log.Printf("[TRANSFER] Initiated %s: %s -> %s, amount: %d", transferID, sender, recipient, amount)
	return transferID, nil
}

// Pending returns a staged transfer that has not expired.
func (c *TransferCoordinator) Pending(transferID string) (models.PendingTransfer, bool) {
	var (
		p  models.PendingTransfer
		ok bool
	)
	c.store.View(func(v *LedgerView) {
		p, ok = c.pending[transferID]
		if ok && c.expired(p, v.Now()) {
			delete(c.pending, transferID)
			ok = false
		}
	})
	return p, ok
}

func (c *TransferCoordinator) expired(p models.PendingTransfer, now time.Time) bool {
	return c.ttl > 0 && now.Sub(p.CreatedAt) > c.ttl
}

// Confirm commits a staged transfer and returns the transaction ID shared by
// both legs. Sender funds are re-checked at commit time; on insufficient funds
// the pending transfer stays staged so the caller may cancel it.
func (c *TransferCoordinator) Confirm(ctx context.Context, transferID string) (string, error) {
	var (
		txID string
		p    models.PendingTransfer
	)
	err := c.store.Update(ctx, func(tx *LedgerTx) error {
		var ok bool
		p, ok = c.pending[transferID]
		if !ok {
			return fail(ErrUnknownTransfer, "Invalid transfer request")
		}
		if c.expired(p, tx.Now()) {
			delete(c.pending, transferID)
			return fail(ErrUnknownTransfer, "Transfer request expired")
		}

		if err := tx.MutateBalance(p.Sender, -p.Amount); err != nil {
			return fail(ErrInsufficientFunds, "Insufficient funds for transfer")
		}
		if err := tx.MutateBalance(p.Recipient, p.Amount); err != nil {
			return err
		}

		txID = uuid.NewString()
		tx.Record(p.Sender, models.TxTransferOut, p.Amount, txID, p.Description)
		tx.Record(p.Recipient, models.TxTransferIn, p.Amount, txID, p.Description)

		delete(c.pending, transferID)
		tx.OnRollback(func() { c.pending[transferID] = p })
		return nil
	})
	if err != nil {
		if p.Sender != "" {
			c.audit.LogError("TRANSFER", p.Sender, err)
		}
		return "", err
	}

	c.audit.LogTransfer(txID, p.Sender, p.Recipient, p.Amount, "SUCCESS")
	return txID, nil
}

// Cancel discards a staged transfer without side effects.
func (c *TransferCoordinator) Cancel(transferID string) error {
	var err error
	c.store.View(func(*LedgerView) {
		if _, ok := c.pending[transferID]; !ok {
			err = fail(ErrUnknownTransfer, "Invalid transfer request")
			return
		}
		delete(c.pending, transferID)
	})
	if err == nil {
		log.Printf("[TRANSFER] Cancelled %s", transferID)
	}
	return err
}
