package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neuroread/neuroread-api/pkg/config"
)

// WhatsAppSender delivers a WhatsApp message and returns the provider message SID.
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, body string) (string, error)
}

// TwilioClient sends WhatsApp messages through the Twilio REST API.
type TwilioClient struct {
	accountSID  string
	authToken   string
	from        string
	countryCode string
	baseURL     string
	httpClient  *http.Client
}

// NewTwilioClient builds a Twilio messaging client from configuration.
func NewTwilioClient(cfg config.MessagingConfig) *TwilioClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &TwilioClient{
		accountSID:  strings.TrimSpace(cfg.AccountSID),
		authToken:   strings.TrimSpace(cfg.AuthToken),
		from:        strings.TrimSpace(cfg.From),
		countryCode: strings.TrimSpace(cfg.CountryCode),
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

// SendWhatsApp posts a message to the Twilio Messages endpoint.
// Bare national numbers get the configured country code and whatsapp: prefix.
func (c *TwilioClient) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	if c.accountSID == "" || c.authToken == "" {
		return "", fmt.Errorf("twilio credentials not configured")
	}
	if strings.TrimSpace(to) == "" || strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("recipient and message body required")
	}

	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", c.normalize(to))
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	var parsed twilioMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil && resp.StatusCode < 400 {
		return "", fmt.Errorf("decode twilio response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if parsed.Message != "" {
			return "", fmt.Errorf("twilio api error: %s", parsed.Message)
		}
		return "", fmt.Errorf("twilio api error: %s", resp.Status)
	}

	return parsed.SID, nil
}

func (c *TwilioClient) normalize(to string) string {
	to = strings.TrimSpace(to)
	if strings.HasPrefix(to, "whatsapp:") {
		return to
	}
	if strings.HasPrefix(to, "+") {
		return "whatsapp:" + to
	}
	return "whatsapp:" + c.countryCode + to
}
