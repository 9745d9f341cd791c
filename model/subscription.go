package model

import (
	"time"
)

// Subscription tiers.
const (
	TierFree     = "free"
	TierPro      = "pro"
	TierTeam     = "team"
	TierBusiness = "business"
)

// Subscription statuses.
const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
	StatusPastDue  = "past_due"
	StatusTrialing = "trialing"
)

// UnlimitedContracts marks a tier without a monthly contract cap.
const UnlimitedContracts = -1

// Subscription is one user's plan and monthly usage counters.
type Subscription struct {
	ID                     string     `json:"id"`
	UserID                 string     `json:"user_id"`
	Tier                   string     `json:"tier"`
	Status                 string     `json:"status"`
	StripeCustomerID       string     `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID   string     `json:"stripe_subscription_id,omitempty"`
	CurrentPeriodStart     *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool       `json:"cancel_at_period_end"`
	ContractsUsedThisMonth int        `json:"contracts_used_this_month"`
	ContractsLimit         int        `json:"contracts_limit"`
}

// TierLimits describes what a plan allows per month.
type TierLimits struct {
	Contracts   int
	TeamMembers int
}

var tierLimits = map[string]TierLimits{
	TierFree:     {Contracts: 1, TeamMembers: 0},
	TierPro:      {Contracts: 10, TeamMembers: 0},
	TierTeam:     {Contracts: 25, TeamMembers: 5},
	TierBusiness: {Contracts: UnlimitedContracts, TeamMembers: 15},
}

// LimitsForTier returns the limits for a tier, falling back to free for
// unknown tier strings.
func LimitsForTier(tier string) TierLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[TierFree]
}

// ValidTier reports whether tier names a known plan.
func ValidTier(tier string) bool {
	_, ok := tierLimits[tier]
	return ok
}

// Usage is the usage snapshot returned alongside a full analysis.
type Usage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}
