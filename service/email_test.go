package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/colin330smith/callbot-ai-sub000/config"
)

func TestSendWithoutAPIKeyIsNoop(t *testing.T) {
	svc := NewEmailService(&config.ResendConfig{})

	if err := svc.Send(context.Background(), "to@example.com", "subject", "<p>hi</p>"); err != nil {
		t.Errorf("Expected no error without API key, got %v", err)
	}
}

func TestSend(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("Expected /emails, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer re_test" {
			t.Errorf("Expected bearer auth, got %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	svc := NewEmailService(&config.ResendConfig{
		APIKey:      "re_test",
		FromAddress: "SubShield <hello@subshield.app>",
	})
	svc.baseURL = srv.URL

	if err := svc.SendWelcome(context.Background(), "lead@example.com"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(got.To) != 1 || got.To[0] != "lead@example.com" {
		t.Errorf("Expected recipient lead@example.com, got %v", got.To)
	}
	if got.From != "SubShield <hello@subshield.app>" {
		t.Errorf("Unexpected from address: %s", got.From)
	}
	if got.Subject == "" || got.HTML == "" {
		t.Error("Expected subject and body")
	}
}

func TestSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	svc := NewEmailService(&config.ResendConfig{APIKey: "re_test"})
	svc.baseURL = srv.URL

	if err := svc.Send(context.Background(), "to@example.com", "subject", "<p>hi</p>"); err == nil {
		t.Error("Expected error on non-2xx response")
	}
}
