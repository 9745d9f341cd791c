package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity buckets for contract issues.
const (
	SeverityCritical = "CRITICAL"
	SeverityWarning  = "WARNING"
	SeverityCaution  = "CAUTION"
)

// Recommendation values for the overall verdict.
const (
	RecommendSign      = "SIGN"
	RecommendNegotiate = "NEGOTIATE"
	RecommendWalkAway  = "WALK AWAY"
)

// DefaultRiskScore is used when the model response omits a score.
const DefaultRiskScore = 5

const defaultSummary = "Analysis completed. Review the identified issues below."

// PreviewIssue is one of the top three issues shown in the free preview.
type PreviewIssue struct {
	Title    string `json:"title"`
	Severity string `json:"severity"`
	Preview  string `json:"preview"`
}

// Issue is a fully analyzed contract clause in the paid report.
type Issue struct {
	Title             string `json:"title"`
	Category          string `json:"category"`
	ClauseLocation    string `json:"clauseLocation,omitempty"`
	ClauseText        string `json:"clauseText"`
	Explanation       string `json:"explanation"`
	WorstCase         string `json:"worstCase,omitempty"`
	NegotiationScript string `json:"negotiationScript"`
}

// PriorityItem is one entry of the suggested negotiation order.
type PriorityItem struct {
	Issue  string `json:"issue"`
	Reason string `json:"reason"`
}

// PreviewAnalysis is the unauthenticated, free risk summary.
type PreviewAnalysis struct {
	RiskScore        int            `json:"riskScore"`
	Recommendation   string         `json:"recommendation"`
	ExecutiveSummary string         `json:"executiveSummary"`
	TopThreeIssues   []PreviewIssue `json:"topThreeIssues"`
	TotalIssuesFound int            `json:"totalIssuesFound"`
}

// FullAnalysis is the complete quota-gated risk report.
type FullAnalysis struct {
	RiskScore           int               `json:"riskScore"`
	Recommendation      string            `json:"recommendation"`
	ExecutiveSummary    string            `json:"executiveSummary"`
	CriticalIssues      []Issue           `json:"criticalIssues"`
	WarningIssues       []Issue           `json:"warningIssues"`
	CautionIssues       []Issue           `json:"cautionIssues"`
	ContractSummary     map[string]string `json:"contractSummary"`
	EstimatedExposure   string            `json:"estimatedExposure,omitempty"`
	NegotiationPriority []PriorityItem    `json:"negotiationPriority,omitempty"`
	StateSpecificNotes  string            `json:"stateSpecificNotes,omitempty"`
}

// DecodeError reports every field that could not be decoded from a model
// response, so a bad response is diagnosable in one log line.
type DecodeError struct {
	Fields []string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("analysis decode failed: %s", strings.Join(e.Fields, "; "))
}

func (e *DecodeError) add(field, problem string) {
	e.Fields = append(e.Fields, field+": "+problem)
}

type rawObject map[string]json.RawMessage

// DecodePreview decodes a preview-mode JSON object into a typed result.
// Missing scalar fields get the documented defaults; fields of the wrong
// type are collected into a DecodeError.
func DecodePreview(data []byte) (*PreviewAnalysis, error) {
	var raw rawObject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Fields: []string{"(root): not a JSON object"}}
	}

	decErr := &DecodeError{}
	out := &PreviewAnalysis{
		RiskScore:        decodeInt(raw, "riskScore", DefaultRiskScore, decErr),
		Recommendation:   decodeString(raw, "recommendation", RecommendNegotiate, decErr),
		ExecutiveSummary: decodeString(raw, "executiveSummary", defaultSummary, decErr),
		TotalIssuesFound: decodeInt(raw, "totalIssuesFound", 0, decErr),
	}

	if msg, ok := raw["topThreeIssues"]; ok {
		if err := json.Unmarshal(msg, &out.TopThreeIssues); err != nil {
			decErr.add("topThreeIssues", "not an issue list")
		}
	}
	if out.TopThreeIssues == nil {
		out.TopThreeIssues = []PreviewIssue{}
	}
	if out.TotalIssuesFound == 0 {
		out.TotalIssuesFound = len(out.TopThreeIssues)
	}

	if len(decErr.Fields) > 0 {
		return nil, decErr
	}
	return out, nil
}

// DecodeFull decodes a full-mode JSON object into a typed report. Issue
// lists default to empty so downstream consumers never see null.
func DecodeFull(data []byte) (*FullAnalysis, error) {
	var raw rawObject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Fields: []string{"(root): not a JSON object"}}
	}

	decErr := &DecodeError{}
	out := &FullAnalysis{
		RiskScore:          decodeInt(raw, "riskScore", DefaultRiskScore, decErr),
		Recommendation:     decodeString(raw, "recommendation", RecommendNegotiate, decErr),
		ExecutiveSummary:   decodeString(raw, "executiveSummary", defaultSummary, decErr),
		CriticalIssues:     decodeIssues(raw, "criticalIssues", decErr),
		WarningIssues:      decodeIssues(raw, "warningIssues", decErr),
		CautionIssues:      decodeIssues(raw, "cautionIssues", decErr),
		EstimatedExposure:  decodeString(raw, "estimatedExposure", "", decErr),
		StateSpecificNotes: decodeString(raw, "stateSpecificNotes", "", decErr),
	}

	if msg, ok := raw["contractSummary"]; ok {
		if err := json.Unmarshal(msg, &out.ContractSummary); err != nil {
			decErr.add("contractSummary", "not a string map")
		}
	}
	if out.ContractSummary == nil {
		out.ContractSummary = map[string]string{}
	}

	if msg, ok := raw["negotiationPriority"]; ok {
		if err := json.Unmarshal(msg, &out.NegotiationPriority); err != nil {
			decErr.add("negotiationPriority", "not a priority list")
		}
	}

	if len(decErr.Fields) > 0 {
		return nil, decErr
	}
	return out, nil
}

func decodeInt(raw rawObject, field string, def int, decErr *DecodeError) int {
	msg, ok := raw[field]
	if !ok {
		return def
	}
	// Some model responses emit scores as floats.
	var f float64
	if err := json.Unmarshal(msg, &f); err != nil {
		decErr.add(field, "not a number")
		return def
	}
	return int(f)
}

func decodeString(raw rawObject, field, def string, decErr *DecodeError) string {
	msg, ok := raw[field]
	if !ok {
		return def
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		decErr.add(field, "not a string")
		return def
	}
	if s == "" {
		return def
	}
	return s
}

func decodeIssues(raw rawObject, field string, decErr *DecodeError) []Issue {
	msg, ok := raw[field]
	if !ok {
		return []Issue{}
	}
	var issues []Issue
	if err := json.Unmarshal(msg, &issues); err != nil {
		decErr.add(field, "not an issue list")
		return []Issue{}
	}
	if issues == nil {
		issues = []Issue{}
	}
	return issues
}

// OutOfRange lists values the model returned outside the documented
// ranges. They are passed through unchanged but logged by the caller.
func (a *PreviewAnalysis) OutOfRange() []string {
	var out []string
	out = appendRangeIssues(out, a.RiskScore, a.Recommendation)
	for _, issue := range a.TopThreeIssues {
		if !validSeverity(issue.Severity) {
			out = append(out, "severity "+issue.Severity)
		}
	}
	return out
}

// OutOfRange lists values the model returned outside the documented ranges.
func (a *FullAnalysis) OutOfRange() []string {
	return appendRangeIssues(nil, a.RiskScore, a.Recommendation)
}

func appendRangeIssues(out []string, score int, rec string) []string {
	if score < 0 || score > 10 {
		out = append(out, fmt.Sprintf("riskScore %d", score))
	}
	switch rec {
	case RecommendSign, RecommendNegotiate, RecommendWalkAway:
	default:
		out = append(out, "recommendation "+rec)
	}
	return out
}

func validSeverity(s string) bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityCaution:
		return true
	}
	return false
}
