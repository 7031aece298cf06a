package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/E-bethel/wholesaleNaja-backend/internal/identity"
	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
)

// Postgres SQLSTATE codes the ledger cares about.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// ledgerRetries bounds the internal retry loop for transient write conflicts.
const ledgerRetries = 3

// GormRepository is the Postgres-backed Repository implementation.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository constructs a GormRepository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

func (r *GormRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

func (r *GormRepository) FindUserByIdentity(ctx context.Context, key identity.Key) (*models.User, error) {
	column := "phone"
	if key.IsEmail() {
		column = "email"
	}

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, column+" = ?", key.Value).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

func (r *GormRepository) CreateOtp(ctx context.Context, rec *models.OtpRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *GormRepository) CountOtpsSince(ctx context.Context, key string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OtpRecord{}).
		Where("key = ? AND created_at >= ?", key, since).
		Count(&count).Error
	return count, err
}

func (r *GormRepository) LatestPendingOtp(ctx context.Context, key string, now time.Time) (*models.OtpRecord, error) {
	var rec models.OtpRecord
	err := r.db.WithContext(ctx).
		Where("key = ? AND verified = ? AND expires_at > ?", key, false, now).
		Order("created_at desc").
		First(&rec).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &rec, nil
}

func (r *GormRepository) LatestVerifiedOtp(ctx context.Context, key string) (*models.OtpRecord, error) {
	var rec models.OtpRecord
	err := r.db.WithContext(ctx).
		Where("key = ? AND verified = ?", key, true).
		Order("created_at desc").
		First(&rec).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &rec, nil
}

func (r *GormRepository) IncrementOtpAttempts(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OtpRecord{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *GormRepository) MarkOtpVerified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OtpRecord{}).
		Where("id = ?", id).
		Update("verified", true).Error
}

func (r *GormRepository) DeleteOtps(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&models.OtpRecord{}).Error
}

// ApplyLedgerEntry executes a wallet mutation and its audit insert as one
// database transaction. The wallet row is locked FOR UPDATE so concurrent
// debits serialize; uniqueness guards surface as ErrDuplicateEntry after
// rollback; serialization failures are retried a bounded number of times.
func (r *GormRepository) ApplyLedgerEntry(ctx context.Context, entry LedgerEntry) (*models.Wallet, *models.Transaction, error) {
	var (
		wallet models.Wallet
		txn    models.Transaction
	)

	for attempt := 0; attempt < ledgerRetries; attempt++ {
		wallet = models.Wallet{}
		txn = models.Transaction{}

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if entry.OncePerUserReason {
				var existing models.Transaction
				err := tx.Where("user_id = ? AND reason = ?", entry.UserID, entry.Reason).
					First(&existing).Error
				if err == nil {
					return ErrDuplicateEntry
				}
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			}

			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&wallet, "user_id = ?", entry.UserID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if entry.Delta < 0 {
					return ErrInsufficientBalance
				}
				wallet = models.Wallet{UserID: entry.UserID, Balance: 0}
				if err := tx.Create(&wallet).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			if entry.Delta < 0 && wallet.Balance+entry.Delta < 0 {
				return ErrInsufficientBalance
			}

			wallet.Balance += entry.Delta
			if err := tx.Model(&models.Wallet{}).
				Where("id = ?", wallet.ID).
				Update("balance", wallet.Balance).Error; err != nil {
				return err
			}

			txn = models.Transaction{
				UserID:    entry.UserID,
				Type:      entry.Type,
				Reason:    entry.Reason,
				Amount:    entry.Delta,
				Meta:      entry.Meta,
				Reference: entry.Reference,
			}
			if txn.Amount < 0 {
				txn.Amount = -txn.Amount
			}
			if err := tx.Create(&txn).Error; err != nil {
				return err
			}

			if entry.GrantSellerID != nil {
				grant := models.UnlockedSeller{
					BuyerID:       entry.UserID,
					SellerID:      *entry.GrantSellerID,
					TransactionID: txn.ID,
				}
				if err := tx.Create(&grant).Error; err != nil {
					return err
				}
			}

			return nil
		})

		switch {
		case err == nil:
			return &wallet, &txn, nil
		case isUniqueViolation(err):
			return nil, nil, ErrDuplicateEntry
		case errors.Is(err, ErrDuplicateEntry), errors.Is(err, ErrInsufficientBalance):
			return nil, nil, err
		case isTransientConflict(err):
			continue
		default:
			return nil, nil, err
		}
	}

	return nil, nil, ErrStorageConflict
}

func (r *GormRepository) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).First(&wallet, "user_id = ?", userID).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wallet = models.Wallet{UserID: userID, Balance: 0}
	if err := r.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost a creation race; the winner's row is authoritative.
			err = r.db.WithContext(ctx).First(&wallet, "user_id = ?", userID).Error
			if err != nil {
				return nil, err
			}
			return &wallet, nil
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *GormRepository) ListTransactions(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]models.Transaction, error) {
	if page < 1 {
		page = 1
	}

	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&txns).Error
	return txns, err
}

func (r *GormRepository) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).First(&txn, "reference = ?", reference).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &txn, nil
}

func (r *GormRepository) FindTransactionByUserAndReason(ctx context.Context, userID uuid.UUID, reason string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND reason = ?", userID, reason).
		Order("created_at asc").
		First(&txn).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &txn, nil
}

func (r *GormRepository) FindUnlock(ctx context.Context, buyerID, sellerID uuid.UUID) (*models.UnlockedSeller, error) {
	var grant models.UnlockedSeller
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND seller_id = ?", buyerID, sellerID).
		First(&grant).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &grant, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func isTransientConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}
