package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
	"github.com/E-bethel/wholesaleNaja-backend/internal/settings"
	"github.com/E-bethel/wholesaleNaja-backend/internal/store"
)

// PaymentEvent is a payment-confirmation delivery from the external provider.
// Providers deliver at-least-once; Reference is the idempotency key.
type PaymentEvent struct {
	Reference    string
	Status       string
	UserID       uuid.UUID
	AmountPaid   float64
	Provider     string
	PackID       string
	PaidCurrency string
}

// Ingest outcomes. Duplicate and ignored events are terminal success states,
// never errors, so the provider does not retry them.
const (
	IngestProcessed = "processed"
	IngestDuplicate = "duplicate"
	IngestIgnored   = "ignored"
)

// IngestResult reports what a webhook delivery did.
type IngestResult struct {
	Outcome     string
	Coins       int64
	Wallet      *models.Wallet
	Transaction *models.Transaction
}

// WebhookProcessor converts confirmed payments into coin credits exactly once
// per payment reference.
type WebhookProcessor struct {
	repo     store.Repository
	ledger   *Ledger
	settings settings.Accessor
	log      *logrus.Logger
}

// NewWebhookProcessor constructs a WebhookProcessor.
func NewWebhookProcessor(repo store.Repository, ledger *Ledger, accessor settings.Accessor, log *logrus.Logger) *WebhookProcessor {
	return &WebhookProcessor{repo: repo, ledger: ledger, settings: accessor, log: log}
}

// Ingest processes one payment event. The application-level existence check
// handles sequential redelivery cheaply; the unique reference column catches
// concurrent duplicates that race past it. Both collapse to a duplicate
// outcome, not an error.
func (p *WebhookProcessor) Ingest(ctx context.Context, event PaymentEvent) (*IngestResult, error) {
	if event.Reference == "" || event.UserID == uuid.Nil || event.AmountPaid <= 0 {
		return nil, ErrMalformedEvent
	}

	if _, err := p.repo.FindTransactionByReference(ctx, event.Reference); err == nil {
		p.log.WithField("reference", event.Reference).Info("webhook already processed")
		return &IngestResult{Outcome: IngestDuplicate}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if event.Status != "success" {
		p.log.WithFields(logrus.Fields{
			"reference": event.Reference,
			"status":    event.Status,
		}).Info("ignoring non-success payment event")
		return &IngestResult{Outcome: IngestIgnored}, nil
	}

	rate := p.settings.GetInt(ctx, settings.KeyNairaPerCoin, settings.DefaultNairaPerCoin)
	coins := CoinsFor(event.AmountPaid, rate)

	meta := models.Meta{
		"reference":    event.Reference,
		"provider":     event.Provider,
		"amountPaid":   event.AmountPaid,
		"paidCurrency": event.PaidCurrency,
		"packId":       event.PackID,
	}
	if coins == 0 {
		// Underpaid event: record a zero-amount credit for admin follow-up
		// rather than dropping the payment on the floor.
		meta["insufficient_amount"] = true
	}

	reference := event.Reference
	wallet, txn, err := p.ledger.Credit(ctx, event.UserID, coins, models.ReasonCoinPurchase, meta, &reference)
	if errors.Is(err, store.ErrDuplicateEntry) {
		return &IngestResult{Outcome: IngestDuplicate}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credit coin purchase: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"reference": event.Reference,
		"user_id":   event.UserID,
		"coins":     coins,
	}).Info("payment credited")

	return &IngestResult{
		Outcome:     IngestProcessed,
		Coins:       coins,
		Wallet:      wallet,
		Transaction: txn,
	}, nil
}

// CoinsFor converts a paid currency amount into whole coins at the given
// rate. Fractions are floored: clients must top up to reach the next coin,
// and no remainder is tracked.
func CoinsFor(amountPaid float64, nairaPerCoin int64) int64 {
	if nairaPerCoin <= 0 || amountPaid <= 0 {
		return 0
	}
	return int64(math.Floor(amountPaid / float64(nairaPerCoin)))
}
