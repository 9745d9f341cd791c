package store

import (
	"context"
	"errors"
	"time"

	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrQuotaExceeded means the monthly contract quota is used up.
var ErrQuotaExceeded = errors.New("monthly contract quota exceeded")

// ErrNotFound means no matching row exists.
var ErrNotFound = errors.New("not found")

// SubscriptionRepository reads and mutates subscription rows.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.Subscription, error)
	EnsureForUser(ctx context.Context, userID, email string) (*model.Subscription, error)
	ReserveUsage(ctx context.Context, userID string) (*model.Usage, error)
	ReleaseUsage(ctx context.Context, userID string) error
	ApplyCheckout(ctx context.Context, userID, tier, customerID, subscriptionID string, periodStart, periodEnd time.Time) error
	ApplyUpdate(ctx context.Context, userID, tier, status string, cancelAtPeriodEnd bool, periodStart, periodEnd time.Time) error
	Downgrade(ctx context.Context, userID string) error
	ResetAllUsage(ctx context.Context) (int64, error)
}

type subscriptionRepository struct{ db *pgxpool.Pool }

func NewSubscriptionRepository(db *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

const subscriptionColumns = `id, user_id, tier, status,
    COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''),
    current_period_start, current_period_end, cancel_at_period_end,
    contracts_used_this_month, contracts_limit`

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	row := r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id=$1`, userID)
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.Tier, &s.Status,
		&s.StripeCustomerID, &s.StripeSubscriptionID,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd,
		&s.ContractsUsedThisMonth, &s.ContractsLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// EnsureForUser guarantees a user row and a free-tier subscription row
// exist for a first-time caller, then returns the subscription.
func (r *subscriptionRepository) EnsureForUser(ctx context.Context, userID, email string) (*model.Subscription, error) {
	if _, err := r.db.Exec(ctx, `INSERT INTO users(id, email) VALUES($1, $2)
        ON CONFLICT (id) DO NOTHING`, userID, email); err != nil {
		return nil, err
	}

	limits := model.LimitsForTier(model.TierFree)
	if _, err := r.db.Exec(ctx, `INSERT INTO subscriptions(id, user_id, tier, status, contracts_limit)
        VALUES($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), userID, model.TierFree, model.StatusActive, limits.Contracts); err != nil {
		return nil, err
	}

	return r.GetByUserID(ctx, userID)
}

// ReserveUsage claims one analysis slot with a single conditional update,
// so concurrent requests from the same user cannot overrun the quota.
func (r *subscriptionRepository) ReserveUsage(ctx context.Context, userID string) (*model.Usage, error) {
	row := r.db.QueryRow(ctx, `UPDATE subscriptions
        SET contracts_used_this_month = contracts_used_this_month + 1, updated_at = NOW()
        WHERE user_id = $1
          AND (contracts_limit = -1 OR contracts_used_this_month < contracts_limit)
        RETURNING contracts_used_this_month, contracts_limit`, userID)

	var usage model.Usage
	err := row.Scan(&usage.Used, &usage.Limit)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either no subscription row or the quota is spent.
		if _, getErr := r.GetByUserID(ctx, userID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrQuotaExceeded
	}
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// ReleaseUsage returns a previously reserved slot after a failed
// analysis. Best effort.
func (r *subscriptionRepository) ReleaseUsage(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `UPDATE subscriptions
        SET contracts_used_this_month = GREATEST(contracts_used_this_month - 1, 0), updated_at = NOW()
        WHERE user_id = $1`, userID)
	return err
}

// ApplyCheckout activates a paid tier after checkout completes, resetting
// monthly usage for the new billing period.
func (r *subscriptionRepository) ApplyCheckout(ctx context.Context, userID, tier, customerID, subscriptionID string, periodStart, periodEnd time.Time) error {
	limits := model.LimitsForTier(tier)
	_, err := r.db.Exec(ctx, `UPDATE subscriptions
        SET tier=$1, status=$2, stripe_customer_id=$3, stripe_subscription_id=$4,
            current_period_start=$5, current_period_end=$6,
            contracts_limit=$7, contracts_used_this_month=0, updated_at=NOW()
        WHERE user_id=$8`,
		tier, model.StatusActive, customerID, subscriptionID,
		periodStart, periodEnd, limits.Contracts, userID)
	return err
}

// ApplyUpdate reconciles a subscription change pushed by the billing
// provider.
func (r *subscriptionRepository) ApplyUpdate(ctx context.Context, userID, tier, status string, cancelAtPeriodEnd bool, periodStart, periodEnd time.Time) error {
	if tier != "" {
		limits := model.LimitsForTier(tier)
		_, err := r.db.Exec(ctx, `UPDATE subscriptions
            SET tier=$1, status=$2, cancel_at_period_end=$3,
                current_period_start=$4, current_period_end=$5,
                contracts_limit=$6, updated_at=NOW()
            WHERE user_id=$7`,
			tier, status, cancelAtPeriodEnd, periodStart, periodEnd, limits.Contracts, userID)
		return err
	}
	_, err := r.db.Exec(ctx, `UPDATE subscriptions
        SET status=$1, cancel_at_period_end=$2,
            current_period_start=$3, current_period_end=$4, updated_at=NOW()
        WHERE user_id=$5`,
		status, cancelAtPeriodEnd, periodStart, periodEnd, userID)
	return err
}

// Downgrade returns a user to the free tier after cancellation.
func (r *subscriptionRepository) Downgrade(ctx context.Context, userID string) error {
	limits := model.LimitsForTier(model.TierFree)
	_, err := r.db.Exec(ctx, `UPDATE subscriptions
        SET tier=$1, status=$2, stripe_subscription_id=NULL,
            current_period_start=NULL, current_period_end=NULL,
            cancel_at_period_end=FALSE, contracts_limit=$3, updated_at=NOW()
        WHERE user_id=$4`,
		model.TierFree, model.StatusActive, limits.Contracts, userID)
	return err
}

// ResetAllUsage zeroes every monthly usage counter. Run by the calendar
// reset job.
func (r *subscriptionRepository) ResetAllUsage(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE subscriptions
        SET contracts_used_this_month = 0, updated_at = NOW()
        WHERE contracts_used_this_month > 0`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
