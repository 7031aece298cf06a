package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/E-bethel/wholesaleNaja-backend/internal/identity"
	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
	"github.com/E-bethel/wholesaleNaja-backend/internal/notify"
	"github.com/E-bethel/wholesaleNaja-backend/internal/store"
	"github.com/E-bethel/wholesaleNaja-backend/internal/utils"
)

// welcomeTimeout bounds the detached welcome-email send.
const welcomeTimeout = 15 * time.Second

// ProfileInput carries the fields a user supplies after OTP verification.
type ProfileInput struct {
	FullName string
	Password string
	Role     string
	Address  string
}

// ProvisionResult reports the created user and whether the signup bonus
// landed. A failed bonus grant degrades the response, it does not roll back
// the account.
type ProvisionResult struct {
	User         *models.User
	BonusGranted bool
}

// Provisioner turns a verified OTP into a new account.
type Provisioner struct {
	repo     store.Repository
	ledger   *Ledger
	notifier notify.Notifier
	log      *logrus.Logger
}

// NewProvisioner constructs a Provisioner.
func NewProvisioner(repo store.Repository, ledger *Ledger, notifier notify.Notifier, log *logrus.Logger) *Provisioner {
	return &Provisioner{repo: repo, ledger: ledger, notifier: notifier, log: log}
}

// CompleteProfile creates a user for an identity key whose latest OTP record
// is verified, deletes every OTP row for the key so the verification cannot
// seed a second account, grants the signup bonus, and fires the welcome email
// in the background when an email exists.
func (p *Provisioner) CompleteProfile(ctx context.Context, key identity.Key, input ProfileInput) (*ProvisionResult, error) {
	if _, err := p.repo.LatestVerifiedOtp(ctx, key.Value); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOtpNotVerified
		}
		return nil, fmt.Errorf("load verified OTP: %w", err)
	}

	user := &models.User{
		FullName: input.FullName,
		Role:     normalizeRole(input.Role),
		Address:  input.Address,
	}
	if key.IsEmail() {
		user.Email = key.Value
	} else {
		user.Phone = key.Value
	}

	if input.Password != "" {
		hash, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := p.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := p.repo.DeleteOtps(ctx, key.Value); err != nil {
		// The account exists; surface nothing but keep a trace.
		p.log.WithError(err).WithField("key", key.Value).Error("failed to clear consumed OTP records")
	}

	bonusGranted := true
	if _, _, err := p.ledger.GrantSignupBonus(ctx, user.ID); err != nil {
		bonusGranted = false
		p.log.WithError(err).WithField("user_id", user.ID).Error("signup bonus grant failed")
	}

	if user.Email != "" {
		p.sendWelcome(user.Email, user.FullName)
	}

	return &ProvisionResult{User: user, BonusGranted: bonusGranted}, nil
}

// sendWelcome fires the welcome email on a detached context so the
// provisioning response never waits on it. Failures are logged only.
func (p *Provisioner) sendWelcome(email, name string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), welcomeTimeout)
		defer cancel()
		if err := p.notifier.SendWelcome(ctx, email, name); err != nil {
			p.log.WithError(err).WithField("email", email).Warn("welcome email failed")
		}
	}()
}

func normalizeRole(role string) string {
	switch role {
	case models.RoleSeller:
		return models.RoleSeller
	case models.RoleAdmin:
		// Admin accounts are not self-service; ignore the request.
		return models.RoleBuyer
	default:
		return models.RoleBuyer
	}
}
