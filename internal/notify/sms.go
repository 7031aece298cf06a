package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const termiiSendURL = "https://v3.api.termii.com/sms/send"

// TermiiClient sends SMS through the Termii gateway.
type TermiiClient struct {
	apiKey     string
	senderName string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewTermiiClient constructs a TermiiClient.
func NewTermiiClient(apiKey, senderName string, log *logrus.Logger) *TermiiClient {
	if senderName == "" {
		senderName = "WSNaija"
	}
	return &TermiiClient{
		apiKey:     apiKey,
		senderName: senderName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type termiiRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	SMS     string `json:"sms"`
	Type    string `json:"type"`
	APIKey  string `json:"api_key"`
	Channel string `json:"channel"`
}

type termiiResponse struct {
	MessageID string `json:"message_id"`
	Code      string `json:"code"`
}

// SendOtp delivers a verification code by SMS.
func (c *TermiiClient) SendOtp(ctx context.Context, phone, code string) error {
	if c.apiKey == "" {
		c.log.Warn("Termii API key not configured, dropping SMS")
		return fmt.Errorf("sms gateway not configured")
	}

	payload := termiiRequest{
		To:      phone,
		From:    c.senderName,
		SMS:     fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code),
		Type:    "plain",
		APIKey:  c.apiKey,
		Channel: "generic",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, termiiSendURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("phone", phone).Error("failed to send SMS")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.WithField("status", resp.StatusCode).Error("unexpected Termii status")
		return fmt.Errorf("termii returned status %d", resp.StatusCode)
	}

	var parsed termiiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return err
	}
	c.log.WithField("message_id", parsed.MessageID).Debug("SMS accepted by Termii")
	return nil
}
