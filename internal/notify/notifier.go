package notify

import (
	"context"

	"github.com/E-bethel/wholesaleNaja-backend/internal/identity"
)

// Notifier delivers plaintext OTP codes and welcome messages. Implementations
// do not retry; a delivery failure fails the surrounding operation where the
// caller says so.
type Notifier interface {
	SendCode(ctx context.Context, key identity.Key, code string) error
	SendWelcome(ctx context.Context, email, name string) error
}

// Dispatcher routes code delivery by identity kind: email keys go to the
// mailer, phone keys to the SMS sender.
type Dispatcher struct {
	mailer *Mailer
	sms    *TermiiClient
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(mailer *Mailer, sms *TermiiClient) *Dispatcher {
	return &Dispatcher{mailer: mailer, sms: sms}
}

// SendCode delivers an OTP over the channel the key implies.
func (d *Dispatcher) SendCode(ctx context.Context, key identity.Key, code string) error {
	if key.IsEmail() {
		return d.mailer.SendOtp(ctx, key.Value, code)
	}
	return d.sms.SendOtp(ctx, key.Value, code)
}

// SendWelcome delivers the post-signup welcome email.
func (d *Dispatcher) SendWelcome(ctx context.Context, email, name string) error {
	return d.mailer.SendWelcome(ctx, email, name)
}
