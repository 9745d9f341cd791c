package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/colin330smith/callbot-ai-sub000/pkg/logger"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/colin330smith/callbot-ai-sub000/store"
	"github.com/gin-gonic/gin"
)

// WebhookHandler reconciles billing events into subscription rows.
type WebhookHandler struct {
	stripe        *service.StripeService
	subscriptions store.SubscriptionRepository
}

func NewWebhookHandler(stripe *service.StripeService, subs store.SubscriptionRepository) *WebhookHandler {
	return &WebhookHandler{
		stripe:        stripe,
		subscriptions: subs,
	}
}

// HandleStripe processes POST /api/stripe/webhook. The raw body is
// signature-checked before any decoding.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	event, err := h.stripe.VerifyAndParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.Warn(ctx, "webhook signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		err = h.handleCheckoutCompleted(c, event.Data.Object)
	case "customer.subscription.updated":
		err = h.handleSubscriptionUpdated(c, event.Data.Object)
	case "customer.subscription.deleted":
		err = h.handleSubscriptionDeleted(c, event.Data.Object)
	default:
		logger.Debug(ctx, "ignoring webhook event", "type", event.Type)
	}

	if err != nil {
		logger.Error(ctx, "webhook processing failed", "type", event.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) handleCheckoutCompleted(c *gin.Context, object json.RawMessage) error {
	ctx := c.Request.Context()

	var session service.CheckoutSession
	if err := json.Unmarshal(object, &session); err != nil {
		return err
	}

	userID := session.Metadata["user_id"]
	tier := session.Metadata["tier"]
	if userID == "" || tier == "" {
		logger.Warn(ctx, "checkout session missing metadata", "session_id", session.ID)
		return nil
	}

	sub, err := h.stripe.RetrieveSubscription(ctx, session.Subscription)
	if err != nil {
		return err
	}
	periodStart, periodEnd := sub.Period()

	logger.Info(ctx, "activating subscription",
		"user_id", userID, "tier", tier, "stripe_subscription_id", sub.ID)

	return h.subscriptions.ApplyCheckout(ctx, userID, tier, session.Customer, sub.ID, periodStart, periodEnd)
}

func (h *WebhookHandler) handleSubscriptionUpdated(c *gin.Context, object json.RawMessage) error {
	ctx := c.Request.Context()

	var sub service.StripeSubscription
	if err := json.Unmarshal(object, &sub); err != nil {
		return err
	}

	userID := sub.Metadata["user_id"]
	if userID == "" {
		logger.Warn(ctx, "subscription event missing user metadata", "stripe_subscription_id", sub.ID)
		return nil
	}

	status := normalizeStatus(sub.Status)
	periodStart, periodEnd := sub.Period()

	return h.subscriptions.ApplyUpdate(ctx, userID, sub.Metadata["tier"], status, sub.CancelAtPeriodEnd, periodStart, periodEnd)
}

func (h *WebhookHandler) handleSubscriptionDeleted(c *gin.Context, object json.RawMessage) error {
	ctx := c.Request.Context()

	var sub service.StripeSubscription
	if err := json.Unmarshal(object, &sub); err != nil {
		return err
	}

	userID := sub.Metadata["user_id"]
	if userID == "" {
		return nil
	}

	logger.Info(ctx, "downgrading canceled subscription", "user_id", userID)
	return h.subscriptions.Downgrade(ctx, userID)
}

func normalizeStatus(s string) string {
	switch s {
	case "active", "trialing", "past_due", "canceled":
		return s
	default:
		return "canceled"
	}
}
