package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
	"github.com/E-bethel/wholesaleNaja-backend/internal/services"
	"github.com/E-bethel/wholesaleNaja-backend/internal/settings"
)

// AdminHandler exposes operator endpoints for business parameters and manual
// wallet corrections.
type AdminHandler struct {
	settings *settings.Service
	ledger   *services.Ledger
	log      *logrus.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(settingsService *settings.Service, ledger *services.Ledger, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{settings: settingsService, ledger: ledger, log: log}
}

type upsertSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UpsertSetting writes one business parameter.
func (h *AdminHandler) UpsertSetting(c *fiber.Ctx) error {
	var req upsertSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	key := strings.TrimSpace(req.Key)
	if !settings.IsAllowedKey(key) {
		return fiber.NewError(fiber.StatusBadRequest, "unknown setting key")
	}
	if strings.TrimSpace(req.Value) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "value is required")
	}

	setting, err := h.settings.Upsert(c.Context(), key, strings.TrimSpace(req.Value))
	if err != nil {
		h.log.WithError(err).WithField("key", key).Error("setting upsert failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error saving setting")
	}

	return c.JSON(fiber.Map{"success": true, "setting": setting})
}

// SeedSettings inserts compiled defaults for any missing business parameter.
func (h *AdminHandler) SeedSettings(c *fiber.Ctx) error {
	if err := h.settings.Seed(c.Context()); err != nil {
		h.log.WithError(err).Error("settings seed failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error seeding settings")
	}
	return c.JSON(fiber.Map{"success": true, "message": "defaults seeded"})
}

type adjustWalletRequest struct {
	UserID string `json:"userId"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

// AdjustWallet credits or debits a user's wallet for support corrections.
// Positive amounts credit, negative amounts debit.
func (h *AdminHandler) AdjustWallet(c *fiber.Ctx) error {
	var req adjustWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	if req.Amount == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be non-zero")
	}

	reason := req.Reason
	if reason == "" {
		reason = models.ReasonAdminAdjustment
	}
	if reason != models.ReasonAdminAdjustment && reason != models.ReasonRefund {
		return fiber.NewError(fiber.StatusBadRequest, "reason must be ADMIN_ADJUSTMENT or REFUND")
	}

	meta := models.Meta{}
	if req.Note != "" {
		meta["note"] = req.Note
	}

	var (
		wallet *models.Wallet
		txn    *models.Transaction
	)
	if req.Amount > 0 {
		wallet, txn, err = h.ledger.Credit(c.Context(), userID, req.Amount, reason, meta, nil)
	} else {
		wallet, txn, err = h.ledger.Debit(c.Context(), userID, -req.Amount, reason, meta)
	}
	if errors.Is(err, services.ErrInsufficientBalance) {
		return fiber.NewError(fiber.StatusBadRequest, "adjustment would overdraw the wallet")
	}
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("wallet adjustment failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error adjusting wallet")
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"balance":     wallet.Balance,
		"transaction": txn,
	})
}
