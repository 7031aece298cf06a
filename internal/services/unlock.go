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

// SellerContact is what a paid unlock reveals.
type SellerContact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// UnlockResult reports an unlock outcome. Balance is only meaningful when a
// debit actually happened (AlreadyUnlocked false).
type UnlockResult struct {
	AlreadyUnlocked bool
	Balance         int64
	Contact         SellerContact
	Transaction     *models.Transaction
}

// UnlockFlow debits a buyer and records a permanent buyer-seller unlock grant.
type UnlockFlow struct {
	repo     store.Repository
	settings settings.Accessor
	log      *logrus.Logger
}

// NewUnlockFlow constructs an UnlockFlow.
func NewUnlockFlow(repo store.Repository, accessor settings.Accessor, log *logrus.Logger) *UnlockFlow {
	return &UnlockFlow{repo: repo, settings: accessor, log: log}
}

// Unlock reveals a seller's contact details, debiting the unlock cost the
// first time a buyer asks. Re-reads are free and idempotent. The debit and
// the grant insert share one atomic scope: a debit without a grant, or a
// grant without a debit, cannot be observed.
func (f *UnlockFlow) Unlock(ctx context.Context, buyerID, sellerID uuid.UUID) (*UnlockResult, error) {
	if buyerID == sellerID {
		return nil, ErrSelfUnlock
	}

	seller, err := f.repo.FindUserByID(ctx, sellerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSellerNotFound
	}
	if err != nil {
		return nil, err
	}
	contact := SellerContact{Phone: seller.Phone, Email: seller.Email}

	if _, err := f.repo.FindUnlock(ctx, buyerID, sellerID); err == nil {
		return &UnlockResult{AlreadyUnlocked: true, Contact: contact}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	cost := f.settings.GetInt(ctx, settings.KeyUnlockCost, settings.DefaultUnlockCost)

	wallet, txn, err := f.repo.ApplyLedgerEntry(ctx, store.LedgerEntry{
		UserID:        buyerID,
		Delta:         -cost,
		Type:          models.TxTypeDebit,
		Reason:        models.ReasonUnlockSeller,
		Meta:          models.Meta{"sellerId": sellerID.String()},
		GrantSellerID: &sellerID,
	})
	switch {
	case errors.Is(err, store.ErrInsufficientBalance):
		return nil, ErrPaymentRequired
	case errors.Is(err, store.ErrDuplicateEntry):
		// A concurrent request inserted the grant first; its debit stands and
		// ours was rolled back with the grant conflict.
		return &UnlockResult{AlreadyUnlocked: true, Contact: contact}, nil
	case err != nil:
		return nil, fmt.Errorf("debit unlock cost: %w", err)
	}

	f.log.WithFields(logrus.Fields{
		"buyer_id":  buyerID,
		"seller_id": sellerID,
		"cost":      cost,
	}).Info("seller contact unlocked")

	return &UnlockResult{
		Balance:     wallet.Balance,
		Contact:     contact,
		Transaction: txn,
	}, nil
}
