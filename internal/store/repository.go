package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/E-bethel/wholesaleNaja-backend/internal/identity"
	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
)

var (
	// ErrNotFound is returned by lookups with no matching row.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientBalance is returned when a debit would take a wallet
	// below zero. The failing entry performs no mutation.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDuplicateEntry is returned when a ledger entry trips one of its
	// uniqueness guards (payment reference, once-per-user reason, or an
	// existing unlock grant). The entire entry was rolled back.
	ErrDuplicateEntry = errors.New("duplicate ledger entry")
	// ErrDuplicateUser is returned when a user insert collides on email or
	// phone uniqueness.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrStorageConflict is returned when a transient write conflict survived
	// the internal retry budget.
	ErrStorageConflict = errors.New("storage conflict")
)

// LedgerEntry describes one atomic wallet mutation plus its audit record.
// Delta is signed: positive credits, negative debits. The wallet
// read-modify-write, the transaction insert, and any grant insert commit or
// roll back together.
type LedgerEntry struct {
	UserID uuid.UUID
	Delta  int64
	Type   string
	Reason string
	Meta   models.Meta

	// Reference, when set, is written to the transaction's unique reference
	// column, the idempotency guard for externally-driven credits.
	Reference *string

	// OncePerUserReason enforces at most one transaction per (user, reason),
	// guarding the signup bonus against concurrent double-invocation.
	OncePerUserReason bool

	// GrantSellerID, when set, inserts an UnlockedSeller row referencing the
	// new transaction inside the same atomic scope.
	GrantSellerID *uuid.UUID
}

// Repository is the data-access contract consumed by the core services.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByIdentity(ctx context.Context, key identity.Key) (*models.User, error)

	CreateOtp(ctx context.Context, rec *models.OtpRecord) error
	CountOtpsSince(ctx context.Context, key string, since time.Time) (int64, error)
	LatestPendingOtp(ctx context.Context, key string, now time.Time) (*models.OtpRecord, error)
	LatestVerifiedOtp(ctx context.Context, key string) (*models.OtpRecord, error)
	IncrementOtpAttempts(ctx context.Context, id uuid.UUID) error
	MarkOtpVerified(ctx context.Context, id uuid.UUID) error
	DeleteOtps(ctx context.Context, key string) error

	ApplyLedgerEntry(ctx context.Context, entry LedgerEntry) (*models.Wallet, *models.Transaction, error)
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]models.Transaction, error)
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	FindTransactionByUserAndReason(ctx context.Context, userID uuid.UUID, reason string) (*models.Transaction, error)

	FindUnlock(ctx context.Context, buyerID, sellerID uuid.UUID) (*models.UnlockedSeller, error)
}
