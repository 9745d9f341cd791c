package model

import (
	"time"
)

// Contract is a persisted full-analysis report. Created once per completed
// full analysis and never mutated by the analysis pipeline afterwards.
type Contract struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	Filename         string        `json:"filename"`
	FileSize         int64         `json:"file_size,omitempty"`
	GCName           string        `json:"gc_name,omitempty"`
	ProjectName      string        `json:"project_name,omitempty"`
	StorageKey       string        `json:"storage_key,omitempty"`
	RiskScore        int           `json:"risk_score"`
	Recommendation   string        `json:"recommendation"`
	ExecutiveSummary string        `json:"executive_summary"`
	Analysis         *FullAnalysis `json:"analysis,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Lead is a captured prospect email from the preview funnel. NurtureStage
// is the highest drip email already delivered (0 = welcome only).
type Lead struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	RiskScore    int       `json:"risk_score,omitempty"`
	Source       string    `json:"source"`
	NurtureStage int       `json:"nurture_stage"`
	Converted    bool      `json:"converted"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service request types for the done-for-you review offerings.
const (
	ServiceExpressReview   = "express_review"
	ServiceMonthlyRetainer = "monthly_retainer"
	ServicePremiumRetainer = "premium_retainer"
	ServiceEnterprise      = "enterprise"
)

// ValidServiceType reports whether t names a known service offering.
func ValidServiceType(t string) bool {
	switch t {
	case ServiceExpressReview, ServiceMonthlyRetainer, ServicePremiumRetainer, ServiceEnterprise:
		return true
	}
	return false
}

// ServiceRequest is an inquiry for a human contract-review service.
type ServiceRequest struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Company     string    `json:"company,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	ServiceType string    `json:"service_type"`
	Message     string    `json:"message,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// TeamMember is an invitation to share a team or business account.
type TeamMember struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	MemberEmail string     `json:"member_email"`
	Role        string     `json:"role"`
	InvitedAt   time.Time  `json:"invited_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
}

// Team member roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)
