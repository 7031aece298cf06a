package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
	"github.com/E-bethel/wholesaleNaja-backend/internal/settings"
)

func newTestProcessor(params staticSettings) (*WebhookProcessor, *memRepo) {
	repo := newMemRepo()
	ledger := NewLedger(repo, params, testLogger())
	return NewWebhookProcessor(repo, ledger, params, testLogger()), repo
}

func successEvent(userID uuid.UUID, reference string, amount float64) PaymentEvent {
	return PaymentEvent{
		Reference:    reference,
		Status:       "success",
		UserID:       userID,
		AmountPaid:   amount,
		Provider:     "paystack",
		PackID:       "starter",
		PaidCurrency: "NGN",
	}
}

func TestIngestMalformedEvent(t *testing.T) {
	processor, _ := newTestProcessor(staticSettings{})
	ctx := context.Background()
	userID := mustUUID(t, 10)

	tests := []struct {
		name  string
		event PaymentEvent
	}{
		{"missing reference", PaymentEvent{Status: "success", UserID: userID, AmountPaid: 500}},
		{"missing user", PaymentEvent{Reference: "ref-1", Status: "success", AmountPaid: 500}},
		{"missing amount", PaymentEvent{Reference: "ref-1", Status: "success", UserID: userID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := processor.Ingest(ctx, tt.event)
			if !errors.Is(err, ErrMalformedEvent) {
				t.Fatalf("expected ErrMalformedEvent, got %v", err)
			}
		})
	}
}

func TestIngestConversionFloors(t *testing.T) {
	processor, repo := newTestProcessor(staticSettings{settings.KeyNairaPerCoin: 500})
	ctx := context.Background()
	userID := mustUUID(t, 11)

	result, err := processor.Ingest(ctx, successEvent(userID, "ref-floor", 1250))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Outcome != IngestProcessed {
		t.Fatalf("expected processed, got %s", result.Outcome)
	}
	if result.Coins != 2 {
		t.Fatalf("1250 at 500 per coin must floor to 2, got %d", result.Coins)
	}
	if balance := repo.balance(userID); balance != 2 {
		t.Fatalf("expected balance 2, got %d", balance)
	}
}

func TestIngestDuplicateReference(t *testing.T) {
	processor, repo := newTestProcessor(staticSettings{settings.KeyNairaPerCoin: 500})
	ctx := context.Background()
	userID := mustUUID(t, 12)

	if _, err := processor.Ingest(ctx, successEvent(userID, "ref-dup", 1000)); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	result, err := processor.Ingest(ctx, successEvent(userID, "ref-dup", 1000))
	if err != nil {
		t.Fatalf("duplicate delivery must not error: %v", err)
	}
	if result.Outcome != IngestDuplicate {
		t.Fatalf("expected duplicate outcome, got %s", result.Outcome)
	}
	if n := repo.countByReason(userID, models.ReasonCoinPurchase); n != 1 {
		t.Fatalf("expected exactly one credit, got %d", n)
	}
	if balance := repo.balance(userID); balance != 2 {
		t.Fatalf("duplicate must not double-credit, got %d", balance)
	}
}

func TestIngestConcurrentDuplicates(t *testing.T) {
	processor, repo := newTestProcessor(staticSettings{settings.KeyNairaPerCoin: 100})
	ctx := context.Background()
	userID := mustUUID(t, 13)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := processor.Ingest(ctx, successEvent(userID, "ref-race", 300)); err != nil {
				t.Errorf("concurrent ingest: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := repo.countByReason(userID, models.ReasonCoinPurchase); n != 1 {
		t.Fatalf("expected exactly one credit under concurrent delivery, got %d", n)
	}
	if balance := repo.balance(userID); balance != 3 {
		t.Fatalf("expected one credit of 3, got balance %d", balance)
	}
}

func TestIngestFailedStatusIsNoOp(t *testing.T) {
	processor, repo := newTestProcessor(staticSettings{settings.KeyNairaPerCoin: 500})
	ctx := context.Background()
	userID := mustUUID(t, 14)

	event := successEvent(userID, "ref-failed", 1000)
	event.Status = "failed"

	result, err := processor.Ingest(ctx, event)
	if err != nil {
		t.Fatalf("failed payment is not a processing fault: %v", err)
	}
	if result.Outcome != IngestIgnored {
		t.Fatalf("expected ignored outcome, got %s", result.Outcome)
	}
	if n := repo.countByReason(userID, models.ReasonCoinPurchase); n != 0 {
		t.Fatalf("failed payment must not credit, got %d transactions", n)
	}
}

func TestIngestUnderpaymentRecordsZeroCredit(t *testing.T) {
	processor, repo := newTestProcessor(staticSettings{settings.KeyNairaPerCoin: 500})
	ctx := context.Background()
	userID := mustUUID(t, 15)

	result, err := processor.Ingest(ctx, successEvent(userID, "ref-under", 499))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Coins != 0 {
		t.Fatalf("expected 0 coins, got %d", result.Coins)
	}
	if result.Transaction == nil {
		t.Fatal("underpayment must still produce an audit transaction")
	}
	if flagged, _ := result.Transaction.Meta["insufficient_amount"].(bool); !flagged {
		t.Fatal("underpayment transaction must be flagged for follow-up")
	}
	if balance := repo.balance(userID); balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}
}

func TestCoinsFor(t *testing.T) {
	tests := []struct {
		name         string
		amountPaid   float64
		nairaPerCoin int64
		want         int64
	}{
		{"exact multiple", 1000, 500, 2},
		{"remainder floors", 1250, 500, 2},
		{"below one coin", 499, 500, 0},
		{"zero rate yields nothing", 1000, 0, 0},
		{"negative amount yields nothing", -100, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoinsFor(tt.amountPaid, tt.nairaPerCoin); got != tt.want {
				t.Fatalf("expected %d coins, got %d", tt.want, got)
			}
		})
	}
}
