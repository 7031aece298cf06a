package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/E-bethel/wholesaleNaja-backend/internal/identity"
	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
	"github.com/E-bethel/wholesaleNaja-backend/internal/store"
)

// memRepo is an in-memory store.Repository honoring the same guard contracts
// as the Postgres implementation: unique payment references, once-per-user
// reasons, unique unlock pairs, and all-or-nothing ledger entries.
type memRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	otps    []*models.OtpRecord
	wallets map[uuid.UUID]*models.Wallet
	txns    []*models.Transaction
	grants  map[string]*models.UnlockedSeller
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:   make(map[uuid.UUID]*models.User),
		wallets: make(map[uuid.UUID]*models.Wallet),
		grants:  make(map[string]*models.UnlockedSeller),
	}
}

func pairKey(buyerID, sellerID uuid.UUID) string {
	return buyerID.String() + "|" + sellerID.String()
}

func (r *memRepo) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if user.Email != "" && existing.Email == user.Email {
			return store.ErrDuplicateUser
		}
		if user.Phone != "" && existing.Phone == user.Phone {
			return store.ErrDuplicateUser
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memRepo) FindUserByIdentity(ctx context.Context, key identity.Key) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if key.IsEmail() && user.Email == key.Value {
			copied := *user
			return &copied, nil
		}
		if !key.IsEmail() && user.Phone == key.Value {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *memRepo) CreateOtp(ctx context.Context, rec *models.OtpRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	copied := *rec
	r.otps = append(r.otps, &copied)
	return nil
}

func (r *memRepo) CountOtpsSince(ctx context.Context, key string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, rec := range r.otps {
		if rec.Key == key && !rec.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *memRepo) LatestPendingOtp(ctx context.Context, key string, now time.Time) (*models.OtpRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.otps) - 1; i >= 0; i-- {
		rec := r.otps[i]
		if rec.Key == key && !rec.Verified && rec.ExpiresAt.After(now) {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *memRepo) LatestVerifiedOtp(ctx context.Context, key string) (*models.OtpRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.otps) - 1; i >= 0; i-- {
		rec := r.otps[i]
		if rec.Key == key && rec.Verified {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *memRepo) IncrementOtpAttempts(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.otps {
		if rec.ID == id {
			rec.Attempts++
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *memRepo) MarkOtpVerified(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.otps {
		if rec.ID == id {
			rec.Verified = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *memRepo) DeleteOtps(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.otps[:0]
	for _, rec := range r.otps {
		if rec.Key != key {
			kept = append(kept, rec)
		}
	}
	r.otps = kept
	return nil
}

func (r *memRepo) ApplyLedgerEntry(ctx context.Context, entry store.LedgerEntry) (*models.Wallet, *models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Guards first: a tripped guard must leave no trace.
	if entry.OncePerUserReason {
		for _, txn := range r.txns {
			if txn.UserID == entry.UserID && txn.Reason == entry.Reason {
				return nil, nil, store.ErrDuplicateEntry
			}
		}
	}
	if entry.Reference != nil {
		for _, txn := range r.txns {
			if txn.Reference != nil && *txn.Reference == *entry.Reference {
				return nil, nil, store.ErrDuplicateEntry
			}
		}
	}
	if entry.GrantSellerID != nil {
		if _, exists := r.grants[pairKey(entry.UserID, *entry.GrantSellerID)]; exists {
			return nil, nil, store.ErrDuplicateEntry
		}
	}

	wallet, ok := r.wallets[entry.UserID]
	if !ok {
		if entry.Delta < 0 {
			return nil, nil, store.ErrInsufficientBalance
		}
		wallet = &models.Wallet{
			BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: time.Now()},
			UserID:    entry.UserID,
		}
		r.wallets[entry.UserID] = wallet
	}
	if entry.Delta < 0 && wallet.Balance+entry.Delta < 0 {
		return nil, nil, store.ErrInsufficientBalance
	}

	wallet.Balance += entry.Delta
	wallet.UpdatedAt = time.Now()

	amount := entry.Delta
	if amount < 0 {
		amount = -amount
	}
	txn := &models.Transaction{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: time.Now()},
		UserID:    entry.UserID,
		Type:      entry.Type,
		Reason:    entry.Reason,
		Amount:    amount,
		Meta:      entry.Meta,
		Reference: entry.Reference,
	}
	r.txns = append(r.txns, txn)

	if entry.GrantSellerID != nil {
		grant := &models.UnlockedSeller{
			BaseModel:     models.BaseModel{ID: uuid.New(), CreatedAt: time.Now()},
			BuyerID:       entry.UserID,
			SellerID:      *entry.GrantSellerID,
			TransactionID: txn.ID,
		}
		r.grants[pairKey(entry.UserID, *entry.GrantSellerID)] = grant
	}

	walletCopy := *wallet
	txnCopy := *txn
	return &walletCopy, &txnCopy, nil
}

func (r *memRepo) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[userID]
	if !ok {
		wallet = &models.Wallet{
			BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: time.Now()},
			UserID:    userID,
		}
		r.wallets[userID] = wallet
	}
	copied := *wallet
	return &copied, nil
}

func (r *memRepo) ListTransactions(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if page < 1 {
		page = 1
	}

	var mine []models.Transaction
	for i := len(r.txns) - 1; i >= 0; i-- {
		if r.txns[i].UserID == userID {
			mine = append(mine, *r.txns[i])
		}
	}

	start := (page - 1) * pageSize
	if start >= len(mine) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], nil
}

func (r *memRepo) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, txn := range r.txns {
		if txn.Reference != nil && *txn.Reference == reference {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *memRepo) FindTransactionByUserAndReason(ctx context.Context, userID uuid.UUID, reason string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, txn := range r.txns {
		if txn.UserID == userID && txn.Reason == reason {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *memRepo) FindUnlock(ctx context.Context, buyerID, sellerID uuid.UUID) (*models.UnlockedSeller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	grant, ok := r.grants[pairKey(buyerID, sellerID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *grant
	return &copied, nil
}

func (r *memRepo) countByReason(userID uuid.UUID, reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, txn := range r.txns {
		if txn.UserID == userID && txn.Reason == reason {
			count++
		}
	}
	return count
}

func (r *memRepo) balance(userID uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[userID]
	if !ok {
		return 0
	}
	return wallet.Balance
}

// fakeNotifier records deliveries and can be told to fail.
type fakeNotifier struct {
	mu       sync.Mutex
	codes    []string
	welcomes []string
	failSend bool
}

func (n *fakeNotifier) SendCode(ctx context.Context, key identity.Key, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failSend {
		return errors.New("delivery failed")
	}
	n.codes = append(n.codes, code)
	return nil
}

func (n *fakeNotifier) SendWelcome(ctx context.Context, email, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, email)
	return nil
}

func (n *fakeNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.codes) == 0 {
		return ""
	}
	return n.codes[len(n.codes)-1]
}

// staticSettings is a map-backed settings.Accessor.
type staticSettings map[string]int64

func (s staticSettings) GetInt(ctx context.Context, key string, fallback int64) int64 {
	if value, ok := s[key]; ok {
		return value
	}
	return fallback
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(discard{})
	return log
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func mustUUID(t interface{ Fatalf(string, ...any) }, seed int) uuid.UUID {
	id, err := uuid.Parse(fmt.Sprintf("00000000-0000-0000-0000-%012d", seed))
	if err != nil {
		t.Fatalf("bad uuid seed: %v", err)
	}
	return id
}
