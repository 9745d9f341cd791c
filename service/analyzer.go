package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/colin330smith/callbot-ai-sub000/config"
	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
)

// PreviewTextLimit caps the contract text sent for a preview analysis.
// A deliberate cost and latency control, not a bug.
const PreviewTextLimit = 20000

// ErrParse means the model response contained no decodable JSON object.
// Never degraded to a fabricated result.
var ErrParse = errors.New("could not parse analysis from model response")

const previewPrompt = `Analyze this construction subcontract quickly from the subcontractor's perspective. Return JSON with:
{
  "riskScore": 1-10,
  "recommendation": "SIGN" or "NEGOTIATE" or "WALK AWAY",
  "executiveSummary": "2-3 sentences",
  "topThreeIssues": [
    {"title": "Issue name", "severity": "CRITICAL/WARNING/CAUTION", "preview": "One sentence description"}
  ],
  "totalIssuesFound": number
}

CONTRACT:
`

const fullPrompt = `You are an expert construction contract attorney who specializes in protecting subcontractors. Analyze this subcontract and identify every clause that could harm the subcontractor.

Review all 15 risk categories:
1. Payment terms and pay-if-paid / pay-when-paid conditions
2. Retainage amount and release conditions
3. Cash flow and billing cycle risks
4. Indemnification scope (especially broad form)
5. Insurance requirements and additional insured obligations
6. Liquidated damages and whether they are proportionate
7. Termination for convenience and for cause
8. Warranty periods and response requirements
9. Change order processes and pricing
10. Delay clauses and no-damage-for-delay provisions
11. Schedule acceleration and recovery obligations
12. Dispute resolution venue and waiver requirements
13. Scope of work ambiguity and incorporation by reference
14. Lien waiver timing and conditional language
15. Safety, compliance and jobsite responsibility shifting

For each risky clause found:
1. Quote the EXACT contract language
2. Explain in plain English what it means and why it's dangerous
3. Rate severity: CRITICAL (deal-breaker), WARNING (significant risk), or CAUTION (minor concern)
4. Provide specific word-for-word negotiation language to fix it

Format your response as JSON with this structure:
{
  "riskScore": 8,
  "recommendation": "NEGOTIATE",
  "executiveSummary": "This contract contains several concerning clauses...",
  "criticalIssues": [
    {
      "title": "Pay-If-Paid Clause",
      "category": "Payment Terms",
      "clauseLocation": "Section 4.2",
      "clauseText": "exact quote from contract",
      "explanation": "plain English explanation",
      "worstCase": "worst case financial outcome",
      "negotiationScript": "suggested replacement language"
    }
  ],
  "warningIssues": [...],
  "cautionIssues": [...],
  "contractSummary": {
    "projectName": "",
    "contractValue": "",
    "paymentTerms": "",
    "retainage": "",
    "liquidatedDamages": "",
    "warrantyPeriod": "",
    "insuranceRequirements": ""
  },
  "estimatedExposure": "estimated dollar exposure if the worst clauses are enforced",
  "negotiationPriority": [{"issue": "", "reason": ""}],
  "stateSpecificNotes": "notes on state law if the contract names a state"
}

CONTRACT TO ANALYZE:
`

// TextCompleter is the slice of the Anthropic client the analyzer needs.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Analyzer builds prompts, calls the model and decodes the response.
type Analyzer struct {
	client           TextCompleter
	previewMaxTokens int
	fullMaxTokens    int
}

func NewAnalyzer(client TextCompleter, cfg *config.AnthropicConfig) *Analyzer {
	return &Analyzer{
		client:           client,
		previewMaxTokens: cfg.PreviewMaxTokens,
		fullMaxTokens:    cfg.FullMaxTokens,
	}
}

// Preview runs the shortened free analysis over a truncated prefix of the
// contract text.
func (a *Analyzer) Preview(ctx context.Context, contractText string) (*model.PreviewAnalysis, error) {
	contractText = truncateToRune(contractText, PreviewTextLimit)

	raw, err := a.complete(ctx, previewPrompt+contractText, a.previewMaxTokens)
	if err != nil {
		return nil, err
	}

	analysis, err := model.DecodePreview(raw)
	if err != nil {
		logger.Error(ctx, "preview analysis decode failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	a.logOutOfRange(ctx, analysis.OutOfRange())
	return analysis, nil
}

// Full runs the complete paid analysis over the whole contract text.
func (a *Analyzer) Full(ctx context.Context, contractText string) (*model.FullAnalysis, error) {
	contractText = truncateToRune(contractText, MaxTextLength)

	raw, err := a.complete(ctx, fullPrompt+contractText, a.fullMaxTokens)
	if err != nil {
		return nil, err
	}

	analysis, err := model.DecodeFull(raw)
	if err != nil {
		logger.Error(ctx, "full analysis decode failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	a.logOutOfRange(ctx, analysis.OutOfRange())
	return analysis, nil
}

func (a *Analyzer) complete(ctx context.Context, prompt string, maxTokens int) ([]byte, error) {
	response, err := a.client.Complete(ctx, prompt, maxTokens)
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(response)
	if err != nil {
		logger.Error(ctx, "no JSON object in model response", "response_length", len(response))
		return nil, err
	}
	return raw, nil
}

// Out-of-range values are passed through uncorrected, but never silently.
func (a *Analyzer) logOutOfRange(ctx context.Context, issues []string) {
	if len(issues) > 0 {
		logger.Warn(ctx, "model returned out-of-range values", "values", strings.Join(issues, ", "))
	}
}

// extractJSON pulls the JSON object out of a free-form model response.
// If a fenced code block is present its contents are used; within that,
// the span from the first "{" to the last "}" is taken greedily.
func extractJSON(response string) ([]byte, error) {
	text := response

	if start := strings.Index(text, "```"); start >= 0 {
		rest := text[start+3:]
		// Skip a language tag like "json" on the fence line.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			text = rest[:end]
		} else {
			text = rest
		}
	}

	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first < 0 || last < first {
		return nil, ErrParse
	}

	return []byte(text[first : last+1]), nil
}
