package settings

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
)

// Business parameter keys.
const (
	KeyNairaPerCoin = "nairaPerCoin"
	KeySignupBonus  = "signupBonus"
	KeyUnlockCost   = "unlockCost"
)

// Compiled defaults, used whenever a key is absent or unparseable.
const (
	DefaultNairaPerCoin int64 = 500
	DefaultSignupBonus  int64 = 10
	DefaultUnlockCost   int64 = 5
)

// AllowedKeys lists the settings an operator may change.
var AllowedKeys = []string{KeyNairaPerCoin, KeySignupBonus, KeyUnlockCost}

// Accessor is the read side handed to the ledger and webhook processor.
// Callers receive it explicitly rather than importing a shared singleton.
type Accessor interface {
	GetInt(ctx context.Context, key string, fallback int64) int64
}

// Service is the gorm-backed settings store.
type Service struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewService constructs a Service.
func NewService(db *gorm.DB, log *logrus.Logger) *Service {
	return &Service{db: db, log: log}
}

// GetInt reads a setting, falling back to the supplied default when the row is
// missing or its value does not parse as an integer.
func (s *Service) GetInt(ctx context.Context, key string, fallback int64) int64 {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			s.log.WithError(err).WithField("key", key).Warn("settings lookup failed, using default")
		}
		return fallback
	}

	value, err := strconv.ParseInt(strings.TrimSpace(setting.Value), 10, 64)
	if err != nil {
		s.log.WithField("key", key).WithField("value", setting.Value).Warn("unparseable setting, using default")
		return fallback
	}
	return value
}

// Upsert writes a setting value, creating the row if needed.
func (s *Service) Upsert(ctx context.Context, key, value string) (*models.Setting, error) {
	setting := models.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// Seed inserts the compiled defaults for any key not already present.
func (s *Service) Seed(ctx context.Context) error {
	defaults := []models.Setting{
		{Key: KeyNairaPerCoin, Value: strconv.FormatInt(DefaultNairaPerCoin, 10)},
		{Key: KeySignupBonus, Value: strconv.FormatInt(DefaultSignupBonus, 10)},
		{Key: KeyUnlockCost, Value: strconv.FormatInt(DefaultUnlockCost, 10)},
	}

	for i := range defaults {
		defaults[i].UpdatedAt = time.Now()
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&defaults[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// IsAllowedKey reports whether operators may set the given key.
func IsAllowedKey(key string) bool {
	for _, allowed := range AllowedKeys {
		if key == allowed {
			return true
		}
	}
	return false
}
