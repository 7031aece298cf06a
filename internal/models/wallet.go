package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Transaction types.
const (
	TxTypeCredit = "CREDIT"
	TxTypeDebit  = "DEBIT"
)

// Transaction reasons.
const (
	ReasonSignupBonus     = "SIGNUP_BONUS"
	ReasonCoinPurchase    = "COIN_PURCHASE"
	ReasonUnlockSeller    = "UNLOCK_SELLER"
	ReasonAdminAdjustment = "ADMIN_ADJUSTMENT"
	ReasonRefund          = "REFUND"
)

// Meta carries structured transaction context, stored as jsonb.
type Meta map[string]any

// Value implements driver.Valuer.
func (m Meta) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Meta) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*m = Meta{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported meta column type %T", value)
}

// Wallet holds a user's coin balance. Exactly one wallet exists per user,
// lazily created on first access. Balance never goes negative: the debit
// precondition is enforced inside the ledger's atomic scope, not corrected
// after the fact.
type Wallet struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Balance int64     `gorm:"not null;default:0" json:"balance"`
}

// Transaction is an append-only audit record of a single wallet mutation.
// Reference carries the external payment reference for COIN_PURCHASE rows and
// is unique-indexed (nulls excluded) as the webhook idempotency guard.
type Transaction struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	Reason    string    `gorm:"size:32;not null" json:"reason"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Meta      Meta      `gorm:"type:jsonb" json:"meta"`
	Reference *string   `gorm:"uniqueIndex" json:"reference,omitempty"`
}

// UnlockedSeller records that a buyer has paid to view a seller's contact
// details. Unique on (buyer, seller); permanent once created.
type UnlockedSeller struct {
	BaseModel
	BuyerID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_unlock_pair,priority:1" json:"buyer_id"`
	SellerID      uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_unlock_pair,priority:2" json:"seller_id"`
	TransactionID uuid.UUID `gorm:"type:uuid" json:"transaction_id"`
}
