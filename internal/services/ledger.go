package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
	"github.com/E-bethel/wholesaleNaja-backend/internal/settings"
	"github.com/E-bethel/wholesaleNaja-backend/internal/store"
)

// walletPageSize is the fixed transaction page size for wallet history.
const walletPageSize = 10

// Ledger owns wallet balances and the append-only transaction history. Every
// mutation goes through the store's ApplyLedgerEntry primitive, so a balance
// change and its audit record commit or roll back together.
type Ledger struct {
	repo     store.Repository
	settings settings.Accessor
	log      *logrus.Logger
}

// NewLedger constructs a Ledger.
func NewLedger(repo store.Repository, accessor settings.Accessor, log *logrus.Logger) *Ledger {
	return &Ledger{repo: repo, settings: accessor, log: log}
}

// GrantSignupBonus credits the one-time signup bonus. Idempotent: a second
// invocation, sequential or concurrent, returns the existing wallet and
// transaction without mutation. The existence check runs inside the atomic
// scope and a uniqueness guard catches the races the check cannot see.
func (l *Ledger) GrantSignupBonus(ctx context.Context, userID uuid.UUID) (*models.Wallet, *models.Transaction, error) {
	if txn, err := l.repo.FindTransactionByUserAndReason(ctx, userID, models.ReasonSignupBonus); err == nil {
		wallet, werr := l.repo.GetOrCreateWallet(ctx, userID)
		if werr != nil {
			return nil, nil, werr
		}
		return wallet, txn, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, nil, err
	}

	bonus := l.settings.GetInt(ctx, settings.KeySignupBonus, settings.DefaultSignupBonus)

	wallet, txn, err := l.repo.ApplyLedgerEntry(ctx, store.LedgerEntry{
		UserID:            userID,
		Delta:             bonus,
		Type:              models.TxTypeCredit,
		Reason:            models.ReasonSignupBonus,
		Meta:              models.Meta{},
		OncePerUserReason: true,
	})
	if errors.Is(err, store.ErrDuplicateEntry) {
		// Lost the race to a concurrent grant; return the winner's records.
		existing, ferr := l.repo.FindTransactionByUserAndReason(ctx, userID, models.ReasonSignupBonus)
		if ferr != nil {
			return nil, nil, ferr
		}
		wallet, werr := l.repo.GetOrCreateWallet(ctx, userID)
		if werr != nil {
			return nil, nil, werr
		}
		return wallet, existing, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("grant signup bonus: %w", err)
	}

	l.log.WithFields(logrus.Fields{"user_id": userID, "amount": bonus}).Info("signup bonus granted")
	return wallet, txn, nil
}

// Credit adds coins to a wallet, creating it if absent. A zero amount still
// records a transaction so underpaid events stay auditable instead of
// silently disappearing. The optional reference becomes the transaction's
// unique idempotency guard.
func (l *Ledger) Credit(ctx context.Context, userID uuid.UUID, amount int64, reason string, meta models.Meta, reference *string) (*models.Wallet, *models.Transaction, error) {
	if amount < 0 {
		return nil, nil, fmt.Errorf("credit amount must be non-negative, got %d", amount)
	}
	return l.repo.ApplyLedgerEntry(ctx, store.LedgerEntry{
		UserID:    userID,
		Delta:     amount,
		Type:      models.TxTypeCredit,
		Reason:    reason,
		Meta:      meta,
		Reference: reference,
	})
}

// Debit removes coins from a wallet. A missing wallet or a balance below the
// amount fails with ErrInsufficientBalance and performs no mutation.
func (l *Ledger) Debit(ctx context.Context, userID uuid.UUID, amount int64, reason string, meta models.Meta) (*models.Wallet, *models.Transaction, error) {
	if amount < 0 {
		return nil, nil, fmt.Errorf("debit amount must be non-negative, got %d", amount)
	}
	wallet, txn, err := l.repo.ApplyLedgerEntry(ctx, store.LedgerEntry{
		UserID: userID,
		Delta:  -amount,
		Type:   models.TxTypeDebit,
		Reason: reason,
		Meta:   meta,
	})
	if errors.Is(err, store.ErrInsufficientBalance) {
		return nil, nil, ErrInsufficientBalance
	}
	return wallet, txn, err
}

// GetWallet returns the wallet (materializing a persisted zero-balance one if
// absent) and a newest-first page of transactions. Pages are 1-indexed with a
// fixed size.
func (l *Ledger) GetWallet(ctx context.Context, userID uuid.UUID, page int) (*models.Wallet, []models.Transaction, error) {
	wallet, err := l.repo.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	txns, err := l.repo.ListTransactions(ctx, userID, page, walletPageSize)
	if err != nil {
		return nil, nil, err
	}
	return wallet, txns, nil
}
