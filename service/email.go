package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/colin330smith/callbot-ai-sub000/config"
)

// EmailService sends transactional email through the Resend API. Send
// failures are logged by callers and never fail the triggering request.
type EmailService struct {
	config     *config.ResendConfig
	baseURL    string
	httpClient *http.Client
}

func NewEmailService(cfg *config.ResendConfig) *EmailService {
	return &EmailService{
		config:  cfg,
		baseURL: "https://api.resend.com",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Enabled reports whether an API key is configured.
func (s *EmailService) Enabled() bool {
	return s.config.APIKey != ""
}

// Send delivers one email. A missing API key disables sending quietly so
// local development works without Resend credentials.
func (s *EmailService) Send(ctx context.Context, to, subject, html string) error {
	if s.config.APIKey == "" {
		return nil
	}

	body, err := json.Marshal(resendRequest{
		From:    s.config.FromAddress,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend returned status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome greets a captured lead from the preview funnel.
func (s *EmailService) SendWelcome(ctx context.Context, to string) error {
	html := `<p>Thanks for trying SubShield.</p>
<p>Your free preview flagged the top risks in your subcontract. The full report covers
every issue with word-for-word negotiation language for each clause.</p>
<p>Upload your next contract any time at subshield.app.</p>`
	return s.Send(ctx, to, "Your SubShield contract preview", html)
}

// SendTeamInvite notifies an invited team member.
func (s *EmailService) SendTeamInvite(ctx context.Context, to, ownerEmail string) error {
	html := fmt.Sprintf(`<p>%s invited you to their SubShield team.</p>
<p>Sign in with this email address to access the team's contract reports.</p>`, ownerEmail)
	return s.Send(ctx, to, "You've been invited to a SubShield team", html)
}
