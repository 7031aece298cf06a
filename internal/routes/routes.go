package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/E-bethel/wholesaleNaja-backend/internal/config"
	"github.com/E-bethel/wholesaleNaja-backend/internal/handlers"
	"github.com/E-bethel/wholesaleNaja-backend/internal/middleware"
	"github.com/E-bethel/wholesaleNaja-backend/internal/notify"
	"github.com/E-bethel/wholesaleNaja-backend/internal/services"
	"github.com/E-bethel/wholesaleNaja-backend/internal/settings"
	"github.com/E-bethel/wholesaleNaja-backend/internal/store"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, log *logrus.Logger) {
	repo := store.NewGormRepository(db)
	settingsService := settings.NewService(db, log)

	mailer := notify.NewMailer(notify.MailerConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, log)
	sms := notify.NewTermiiClient(cfg.TermiiAPIKey, cfg.TermiiSender, log)
	notifier := notify.NewDispatcher(mailer, sms)

	ledger := services.NewLedger(repo, settingsService, log)
	otpEngine := services.NewOtpEngine(repo, notifier, log)
	provisioner := services.NewProvisioner(repo, ledger, notifier, log)
	unlockFlow := services.NewUnlockFlow(repo, settingsService, log)
	processor := services.NewWebhookProcessor(repo, ledger, settingsService, log)

	authHandler := handlers.NewAuthHandler(db, cfg, otpEngine, provisioner, log)
	walletHandler := handlers.NewWalletHandler(ledger, unlockFlow, processor, log)
	adminHandler := handlers.NewAdminHandler(settingsService, ledger, log)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/send-otp", authHandler.SendOtp)
	auth.Post("/verify-otp", authHandler.VerifyOtp)
	auth.Post("/complete-profile", authHandler.CompleteProfile)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)

	// Payment providers call this unauthenticated; the reference guard makes
	// redelivery harmless.
	api.Post("/wallet/webhook/payment", walletHandler.PaymentWebhook)

	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/auth/profile", authHandler.GetProfile)

	protected.Get("/wallet", walletHandler.GetWallet)
	protected.Get("/wallet/transactions", walletHandler.GetTransactions)
	protected.Post("/wallet/unlock/:sellerId", walletHandler.UnlockSeller)

	admin := protected.Group("/admin", middleware.RequireAdmin(db))
	admin.Post("/settings", adminHandler.UpsertSetting)
	admin.Post("/settings/seed", adminHandler.SeedSettings)
	admin.Post("/wallet/adjust", adminHandler.AdjustWallet)
}
