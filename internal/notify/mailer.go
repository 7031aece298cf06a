package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// MailerConfig holds SMTP connection settings.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends transactional email over SMTP.
type Mailer struct {
	cfg MailerConfig
	log *logrus.Logger
}

// NewMailer constructs a Mailer.
func NewMailer(cfg MailerConfig, log *logrus.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// SendOtp emails a verification code.
func (m *Mailer) SendOtp(ctx context.Context, to, code string) error {
	subject := "Your WholesaleNaija verification code"
	body := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	if err := m.send(ctx, to, subject, body); err != nil {
		m.log.WithError(err).WithField("to", to).Error("failed to send OTP email")
		return err
	}
	return nil
}

// SendWelcome emails the post-signup greeting.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	subject := "Welcome to WholesaleNaija"
	body := fmt.Sprintf("Hi %s,\n\nYour account is ready. Your signup bonus coins are waiting in your wallet.\n\nWholesaleNaija Team", name)
	if err := m.send(ctx, to, subject, body); err != nil {
		m.log.WithError(err).WithField("to", to).Error("failed to send welcome email")
		return err
	}
	return nil
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m.cfg.Host == "" {
		m.log.Warn("SMTP host not configured, dropping email")
		return fmt.Errorf("smtp not configured")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	client, err := m.dial(ctx, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(fromAddress(m.cfg.From)); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(buildMessage(m.cfg.From, to, subject, body))); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func (m *Mailer) dial(ctx context.Context, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{}
	if m.cfg.Port == 465 {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: m.cfg.Host})
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, m.cfg.Host)
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return nil, err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

func buildMessage(from, to, subject, body string) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}
	return strings.Join(headers, "\r\n")
}

func fromAddress(from string) string {
	start := strings.Index(from, "<")
	end := strings.Index(from, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(from[start+1 : end])
	}
	return strings.TrimSpace(from)
}
