package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/colin330smith/callbot-ai-sub000/config"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/gin-gonic/gin"
)

const webhookSecret = "whsec_test"

func signWebhook(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func webhookRouter(subs *fakeSubscriptionRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	stripe := service.NewStripeService(&config.StripeConfig{WebhookSecret: webhookSecret})
	h := NewWebhookHandler(stripe, subs)

	router := gin.New()
	router.POST("/api/stripe/webhook", h.HandleStripe)
	return router
}

func postWebhook(router *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	subs := &fakeSubscriptionRepo{}
	router := webhookRouter(subs)
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.deleted"}`)

	w := postWebhook(router, payload, "t=123,v1=deadbeef")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if len(subs.downgradedUsers) != 0 {
		t.Error("Expected no repository writes for unsigned payload")
	}
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	router := webhookRouter(&fakeSubscriptionRepo{})
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.deleted"}`)

	w := postWebhook(router, payload, "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestWebhookSubscriptionUpdated(t *testing.T) {
	subs := &fakeSubscriptionRepo{}
	router := webhookRouter(subs)
	payload := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_1",
			"status": "past_due",
			"metadata": {"user_id": "user-123", "tier": "pro"},
			"items": {"data": [{"current_period_start": 1756080000, "current_period_end": 1758758400}]}
		}}
	}`)

	w := postWebhook(router, payload, signWebhook(payload))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if subs.updatedUserID != "user-123" {
		t.Errorf("Expected update for user-123, got %q", subs.updatedUserID)
	}
	if subs.updatedTier != "pro" {
		t.Errorf("Expected tier pro, got %q", subs.updatedTier)
	}
	if subs.updatedStatus != "past_due" {
		t.Errorf("Expected status past_due, got %q", subs.updatedStatus)
	}
}

func TestWebhookSubscriptionUpdatedUnknownStatus(t *testing.T) {
	subs := &fakeSubscriptionRepo{}
	router := webhookRouter(subs)
	payload := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_1",
			"status": "incomplete_expired",
			"metadata": {"user_id": "user-123", "tier": "pro"}
		}}
	}`)

	w := postWebhook(router, payload, signWebhook(payload))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if subs.updatedStatus != "canceled" {
		t.Errorf("Expected unknown status normalized to canceled, got %q", subs.updatedStatus)
	}
}

func TestWebhookSubscriptionDeleted(t *testing.T) {
	subs := &fakeSubscriptionRepo{}
	router := webhookRouter(subs)
	payload := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "metadata": {"user_id": "user-123"}}}
	}`)

	w := postWebhook(router, payload, signWebhook(payload))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(subs.downgradedUsers) != 1 || subs.downgradedUsers[0] != "user-123" {
		t.Errorf("Expected user-123 downgraded, got %v", subs.downgradedUsers)
	}
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	subs := &fakeSubscriptionRepo{}
	router := webhookRouter(subs)
	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`)

	w := postWebhook(router, payload, signWebhook(payload))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for ignored event, got %d", w.Code)
	}
}

func TestWebhookMissingMetadataIsAccepted(t *testing.T) {
	subs := &fakeSubscriptionRepo{}
	router := webhookRouter(subs)
	payload := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "metadata": {}}}
	}`)

	w := postWebhook(router, payload, signWebhook(payload))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if len(subs.downgradedUsers) != 0 {
		t.Error("Expected no downgrade without user metadata")
	}
}
