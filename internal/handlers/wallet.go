package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/E-bethel/wholesaleNaja-backend/internal/middleware"
	"github.com/E-bethel/wholesaleNaja-backend/internal/services"
)

// WalletHandler exposes wallet balances, history, unlocks, and the payment
// webhook.
type WalletHandler struct {
	ledger    *services.Ledger
	unlock    *services.UnlockFlow
	processor *services.WebhookProcessor
	log       *logrus.Logger
}

// NewWalletHandler constructs a WalletHandler.
func NewWalletHandler(ledger *services.Ledger, unlock *services.UnlockFlow, processor *services.WebhookProcessor, log *logrus.Logger) *WalletHandler {
	return &WalletHandler{ledger: ledger, unlock: unlock, processor: processor, log: log}
}

// GetWallet returns the caller's balance and a page of transaction history.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	wallet, txns, err := h.ledger.GetWallet(c.Context(), userID, page)
	if err != nil {
		h.log.WithError(err).Error("wallet lookup failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error fetching wallet")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"balance":      wallet.Balance,
		"transactions": txns,
		"page":         page,
	})
}

// GetTransactions returns a page of the caller's transaction history.
func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	_, txns, err := h.ledger.GetWallet(c.Context(), userID, page)
	if err != nil {
		h.log.WithError(err).Error("transaction listing failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error fetching transactions")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"transactions": txns,
		"page":         page,
	})
}

// UnlockSeller debits the unlock cost and reveals the seller's contact.
func (h *WalletHandler) UnlockSeller(c *fiber.Ctx) error {
	buyerID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	sellerID, err := uuid.Parse(c.Params("sellerId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid seller id")
	}

	result, err := h.unlock.Unlock(c.Context(), buyerID, sellerID)
	switch {
	case errors.Is(err, services.ErrSelfUnlock):
		return fiber.NewError(fiber.StatusBadRequest, "you cannot unlock yourself")
	case errors.Is(err, services.ErrSellerNotFound):
		return fiber.NewError(fiber.StatusNotFound, "seller not found")
	case errors.Is(err, services.ErrPaymentRequired):
		return fiber.NewError(fiber.StatusPaymentRequired, "insufficient coin balance")
	case err != nil:
		h.log.WithError(err).Error("unlock failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error unlocking seller")
	}

	response := fiber.Map{
		"success":          true,
		"already_unlocked": result.AlreadyUnlocked,
		"contact":          result.Contact,
	}
	if !result.AlreadyUnlocked {
		response["balance"] = result.Balance
	}
	return c.JSON(response)
}

type paymentWebhookRequest struct {
	Reference    string  `json:"reference"`
	Status       string  `json:"status"`
	UserID       string  `json:"userId"`
	AmountPaid   float64 `json:"amountPaid"`
	Provider     string  `json:"provider"`
	PackID       string  `json:"packId"`
	PaidCurrency string  `json:"paidCurrency"`
}

// PaymentWebhook ingests a payment-confirmation delivery. Everything except a
// malformed payload acknowledges with 200 so the provider stops retrying.
func (h *WalletHandler) PaymentWebhook(c *fiber.Ctx) error {
	var req paymentWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid webhook payload")
	}

	userID, _ := uuid.Parse(req.UserID)
	result, err := h.processor.Ingest(c.Context(), services.PaymentEvent{
		Reference:    req.Reference,
		Status:       req.Status,
		UserID:       userID,
		AmountPaid:   req.AmountPaid,
		Provider:     req.Provider,
		PackID:       req.PackID,
		PaidCurrency: req.PaidCurrency,
	})
	if errors.Is(err, services.ErrMalformedEvent) {
		return fiber.NewError(fiber.StatusBadRequest, "malformed payment event")
	}
	if err != nil {
		h.log.WithError(err).WithField("reference", req.Reference).Error("webhook ingestion failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error processing payment")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"outcome": result.Outcome,
		"coins":   result.Coins,
	})
}
