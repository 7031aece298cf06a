package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/E-bethel/wholesaleNaja-backend/internal/config"
	"github.com/E-bethel/wholesaleNaja-backend/internal/identity"
	"github.com/E-bethel/wholesaleNaja-backend/internal/middleware"
	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
	"github.com/E-bethel/wholesaleNaja-backend/internal/services"
	"github.com/E-bethel/wholesaleNaja-backend/internal/utils"
)

// AuthHandler bundles dependencies for OTP and account endpoints.
type AuthHandler struct {
	db          *gorm.DB
	cfg         *config.Config
	otp         *services.OtpEngine
	provisioner *services.Provisioner
	log         *logrus.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, otp *services.OtpEngine, provisioner *services.Provisioner, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, otp: otp, provisioner: provisioner, log: log}
}

type sendOtpRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// SendOtp issues a verification code to an email or phone number.
func (h *AuthHandler) SendOtp(c *fiber.Ctx) error {
	var req sendOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var key identity.Key
	switch {
	case req.Email != "":
		key = identity.Email(req.Email)
	case req.PhoneNumber != "":
		key = identity.Phone(req.PhoneNumber)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "provide either email or phoneNumber")
	}

	if err := h.otp.Issue(c.Context(), key); err != nil {
		if errors.Is(err, services.ErrRateLimited) {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many OTP requests for this key, try again later")
		}
		h.log.WithError(err).Error("OTP issuance failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error sending OTP")
	}

	channel := "SMS"
	if key.IsEmail() {
		channel = "email"
	}
	return c.JSON(fiber.Map{"success": true, "message": "OTP sent via " + channel})
}

type verifyOtpRequest struct {
	Key  string `json:"key"`
	Code string `json:"code"`
}

// VerifyOtp validates a submitted code against the active record for the key.
func (h *AuthHandler) VerifyOtp(c *fiber.Ctx) error {
	var req verifyOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	key, err := identity.Parse(req.Key)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "key is required")
	}
	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	switch err := h.otp.Verify(c.Context(), key, req.Code); {
	case err == nil:
		return c.JSON(fiber.Map{"success": true, "verified": true})
	case errors.Is(err, services.ErrOtpNotFound):
		return fiber.NewError(fiber.StatusNotFound, "verification code not found")
	case errors.Is(err, services.ErrTooManyAttempts):
		return fiber.NewError(fiber.StatusTooManyRequests, "too many attempts, request a new code")
	case errors.Is(err, services.ErrInvalidCode):
		return fiber.NewError(fiber.StatusBadRequest, "invalid verification code")
	default:
		h.log.WithError(err).Error("OTP verification failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error verifying OTP")
	}
}

type completeProfileRequest struct {
	Key      string `json:"key"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Address  string `json:"address"`
}

// CompleteProfile creates an account from a verified OTP.
func (h *AuthHandler) CompleteProfile(c *fiber.Ctx) error {
	var req completeProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	key, err := identity.Parse(req.Key)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "key is required")
	}
	if req.FullName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "fullName is required")
	}

	result, err := h.provisioner.CompleteProfile(c.Context(), key, services.ProfileInput{
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
		Address:  req.Address,
	})
	switch {
	case errors.Is(err, services.ErrOtpNotVerified):
		return fiber.NewError(fiber.StatusBadRequest, "OTP not verified")
	case errors.Is(err, services.ErrUserExists):
		return fiber.NewError(fiber.StatusConflict, "account already exists for this key")
	case err != nil:
		h.log.WithError(err).Error("profile completion failed")
		return fiber.NewError(fiber.StatusInternalServerError, "error completing profile")
	}

	user := result.User
	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}
	setTokenCookie(c, token, h.cfg.TokenExpires)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":       true,
		"message":       "Profile created successfully",
		"bonus_granted": result.BonusGranted,
		"user": fiber.Map{
			"id":        user.ID,
			"full_name": user.FullName,
			"email":     user.Email,
			"phone":     user.Phone,
			"role":      user.Role,
		},
		"token": token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login authenticates an existing user by email or phone plus password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var key identity.Key
	switch {
	case req.Email != "":
		key = identity.Email(req.Email)
	case req.Phone != "":
		key = identity.Phone(req.Phone)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "email or phone is required")
	}

	column := "phone"
	if key.IsEmail() {
		column = "email"
	}

	var user models.User
	if err := h.db.First(&user, column+" = ?", key.Value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if user.PasswordHash == "" || !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}
	setTokenCookie(c, token, h.cfg.TokenExpires)

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":        user.ID,
			"full_name": user.FullName,
			"email":     user.Email,
			"phone":     user.Phone,
			"role":      user.Role,
		},
		"token": token,
	})
}

// Logout clears the token cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}

// GetProfile returns the authenticated user's profile.
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "user": user})
}

func setTokenCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
