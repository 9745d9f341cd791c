package service

import (
	"context"
	"fmt"
	"time"

	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
)

// Drip schedule, measured from lead capture. Leads older than the window
// are left alone; a lead captured long ago should not get a stale pitch.
const (
	nurtureWindow    = 7 * 24 * time.Hour
	educationalAfter = 24 * time.Hour
	urgencyAfter     = 72 * time.Hour
)

// NurtureLeadSource is the slice of the lead store the drip sequence
// needs.
type NurtureLeadSource interface {
	ListNurturable(ctx context.Context, capturedAfter time.Time) ([]model.Lead, error)
	SetNurtureStage(ctx context.Context, id string, stage int) error
}

// NurtureService sends the timed follow-up emails to captured leads.
// Stage 0 is the welcome email sent at capture; stage 1 is the
// educational email after one day; stage 2 the final offer after three.
type NurtureService struct {
	leads NurtureLeadSource
	email *EmailService
}

func NewNurtureService(leads NurtureLeadSource, email *EmailService) *NurtureService {
	return &NurtureService{
		leads: leads,
		email: email,
	}
}

// NurtureResult summarizes one sweep of the drip sequence.
type NurtureResult struct {
	LeadsProcessed int `json:"leadsProcessed"`
	EmailsSent     int `json:"emailsSent"`
}

// Run advances every eligible lead by at most one email per stage. A
// failed send is logged and retried on the next sweep; the stage only
// advances after a successful delivery.
func (s *NurtureService) Run(ctx context.Context) (*NurtureResult, error) {
	now := time.Now()

	leads, err := s.leads.ListNurturable(ctx, now.Add(-nurtureWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	result := &NurtureResult{LeadsProcessed: len(leads)}

	for _, lead := range leads {
		age := now.Sub(lead.CreatedAt)

		if lead.NurtureStage < 1 && age >= educationalAfter {
			if s.sendStage(ctx, lead, 1, educationalSubject(lead.RiskScore), educationalBody(lead.RiskScore)) {
				lead.NurtureStage = 1
				result.EmailsSent++
			}
		}

		if lead.NurtureStage < 2 && age >= urgencyAfter {
			if s.sendStage(ctx, lead, 2, "Before You Sign That Contract...", urgencyBody(lead.RiskScore)) {
				result.EmailsSent++
			}
		}
	}

	return result, nil
}

func (s *NurtureService) sendStage(ctx context.Context, lead model.Lead, stage int, subject, body string) bool {
	if err := s.email.Send(ctx, lead.Email, subject, body); err != nil {
		logger.Warn(ctx, "nurture email failed", "error", err, "stage", stage)
		return false
	}
	if err := s.leads.SetNurtureStage(ctx, lead.ID, stage); err != nil {
		logger.Error(ctx, "failed to record nurture stage", "error", err, "lead_id", lead.ID, "stage", stage)
		return false
	}
	return true
}

func educationalSubject(riskScore int) string {
	if riskScore >= 7 {
		return "The 3 Contract Clauses That Bankrupt Subcontractors"
	}
	return "3 Contract Red Flags Every Subcontractor Should Know"
}

func educationalBody(riskScore int) string {
	body := `<p>Yesterday you ran your contract through SubShield. Before you sign, here are the three clauses that cause the most financial damage to subcontractors:</p>
<p><strong>1. Pay-If-Paid Clauses</strong> &mdash; payment conditioned on the owner paying the GC shifts owner non-payment risk entirely to you.</p>
<p><strong>2. Broad Form Indemnification</strong> &mdash; "indemnify, defend, and hold harmless" language can make you liable for the GC's own negligence.</p>
<p><strong>3. No-Damage-For-Delay Clauses</strong> &mdash; if the GC causes delays, you cannot recover extended overhead or equipment costs.</p>
<p>Most GCs expect you to negotiate. Silence is acceptance.</p>`
	if riskScore >= 7 {
		body += fmt.Sprintf(`
<p><strong>Your contract scored %d/10</strong> &mdash; there's a good chance one or more of these clauses is in there. Your full report shows exactly which clauses to negotiate.</p>`, riskScore)
	}
	return body
}

func urgencyBody(riskScore int) string {
	body := `<p>Quick question: have you signed that contract yet?</p>
<p>Most subcontracts contain at least one clause that unfairly shifts risk to the sub, and most of those are negotiable once you know they're there.</p>`
	if riskScore > 0 {
		body += fmt.Sprintf(`
<p>Your contract scored <strong>%d/10</strong> on our risk assessment. That means there are specific clauses that need attention before you sign.</p>`, riskScore)
	}
	body += `
<p>A construction attorney charges hundreds to review a contract and can take a week. SubShield does it in sixty seconds.</p>
<p>Don't let one bad clause cost you your business.</p>`
	return body
}
