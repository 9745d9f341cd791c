package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/colin330smith/callbot-ai-sub000/config"
	"github.com/colin330smith/callbot-ai-sub000/model"
)

// ErrInvalidSignature means a webhook payload failed signature checks.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// signatureTolerance bounds how stale a signed webhook timestamp may be.
const signatureTolerance = 5 * time.Minute

// StripeService creates checkout sessions and decodes webhook events.
type StripeService struct {
	config     *config.StripeConfig
	baseURL    string
	httpClient *http.Client
}

func NewStripeService(cfg *config.StripeConfig) *StripeService {
	return &StripeService{
		config:  cfg,
		baseURL: "https://api.stripe.com",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CheckoutSession is the subset of the session object the backend uses.
type CheckoutSession struct {
	ID           string            `json:"id"`
	URL          string            `json:"url"`
	Subscription string            `json:"subscription"`
	Customer     string            `json:"customer"`
	Metadata     map[string]string `json:"metadata"`
}

// StripeSubscription is the subset of the subscription object the
// backend reconciles from webhooks.
type StripeSubscription struct {
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	Customer          string            `json:"customer"`
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// Period returns the current billing period, falling back to a 30-day
// window when the subscription carries no items.
func (s *StripeSubscription) Period() (time.Time, time.Time) {
	if len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		return time.Unix(item.CurrentPeriodStart, 0), time.Unix(item.CurrentPeriodEnd, 0)
	}
	now := time.Now()
	return now, now.Add(30 * 24 * time.Hour)
}

// WebhookEvent is a decoded Stripe event envelope.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// PriceID maps a tier and billing interval to its configured Stripe price.
func (s *StripeService) PriceID(tier string, annual bool) string {
	switch tier {
	case model.TierPro:
		if annual {
			return s.config.ProAnnualPriceID
		}
		return s.config.ProMonthlyPriceID
	case model.TierTeam:
		if annual {
			return s.config.TeamAnnualPriceID
		}
		return s.config.TeamMonthlyPriceID
	case model.TierBusiness:
		if annual {
			return s.config.BusinessAnnualPriceID
		}
		return s.config.BusinessMonthlyPriceID
	}
	return ""
}

// CreateCheckoutSession creates a subscription-mode checkout session and
// returns its hosted payment URL.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID, email, tier string, annual bool) (string, error) {
	priceID := s.PriceID(tier, annual)
	if priceID == "" {
		return "", fmt.Errorf("no price configured for tier %q (annual=%t)", tier, annual)
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("customer_email", email)
	form.Set("success_url", s.config.SuccessURL)
	form.Set("cancel_url", s.config.CancelURL)
	form.Set("metadata[user_id]", userID)
	form.Set("metadata[tier]", tier)
	form.Set("subscription_data[metadata][user_id]", userID)
	form.Set("subscription_data[metadata][tier]", tier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach Stripe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var stripeErr stripeErrorBody
		if json.Unmarshal(body, &stripeErr) == nil && stripeErr.Error.Message != "" {
			return "", fmt.Errorf("stripe error: %s", stripeErr.Error.Message)
		}
		return "", fmt.Errorf("stripe returned status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("failed to parse session: %w", err)
	}
	return session.URL, nil
}

// RetrieveSubscription fetches one subscription object by ID.
func (s *StripeService) RetrieveSubscription(ctx context.Context, id string) (*StripeSubscription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/subscriptions/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach Stripe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stripe returned status %d", resp.StatusCode)
	}

	var sub StripeSubscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse subscription: %w", err)
	}
	return &sub, nil
}

// VerifyAndParseEvent checks the Stripe-Signature header against the raw
// payload and decodes the event envelope.
// Signature scheme: HMAC-SHA256 over "<timestamp>.<payload>".
func (s *StripeService) VerifyAndParseEvent(payload []byte, sigHeader string) (*WebhookEvent, error) {
	if err := verifySignature(payload, sigHeader, s.config.WebhookSecret, time.Now()); err != nil {
		return nil, err
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	return &event, nil
}

func verifySignature(payload []byte, sigHeader, secret string, now time.Time) error {
	var timestamp string
	var signatures []string

	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return ErrInvalidSignature
}
