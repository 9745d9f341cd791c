package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/colin330smith/callbot-ai-sub000/config"
	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/colin330smith/callbot-ai-sub000/service"
	"github.com/colin330smith/callbot-ai-sub000/store"
	"github.com/gin-gonic/gin"
)

type fakeTeamRepo struct {
	members   []model.TeamMember
	inviteErr error
	removeErr error
}

func (f *fakeTeamRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.TeamMember, error) {
	return f.members, nil
}

func (f *fakeTeamRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return len(f.members), nil
}

func (f *fakeTeamRepo) Invite(ctx context.Context, m *model.TeamMember) error {
	if f.inviteErr != nil {
		return f.inviteErr
	}
	m.ID = "member-1"
	f.members = append(f.members, *m)
	return nil
}

func (f *fakeTeamRepo) Remove(ctx context.Context, id, ownerID string) error {
	return f.removeErr
}

func teamRouter(teams *fakeTeamRepo, subs *fakeSubscriptionRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	email := service.NewEmailService(&config.ResendConfig{})
	h := NewTeamHandler(teams, subs, email)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "owner-1")
		c.Set("email", "owner@example.com")
	})
	router.GET("/api/team", h.List)
	router.POST("/api/team", h.Invite)
	router.DELETE("/api/team/:memberId", h.Remove)
	return router
}

func postInvite(router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/team", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestTeamInviteOnTeamTier(t *testing.T) {
	teams := &fakeTeamRepo{}
	router := teamRouter(teams, &fakeSubscriptionRepo{tier: model.TierTeam})

	w := postInvite(router, InviteRequest{Email: "Estimator@Example.com", Role: "member"})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(teams.members) != 1 {
		t.Fatalf("Expected 1 member, got %d", len(teams.members))
	}
	if teams.members[0].MemberEmail != "estimator@example.com" {
		t.Errorf("Expected lowercased email, got %s", teams.members[0].MemberEmail)
	}
}

func TestTeamInviteRejectedOnFreeTier(t *testing.T) {
	router := teamRouter(&fakeTeamRepo{}, &fakeSubscriptionRepo{tier: model.TierFree})

	w := postInvite(router, InviteRequest{Email: "estimator@example.com"})

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestTeamInviteRejectedOnProTier(t *testing.T) {
	router := teamRouter(&fakeTeamRepo{}, &fakeSubscriptionRepo{tier: model.TierPro})

	w := postInvite(router, InviteRequest{Email: "estimator@example.com"})

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestTeamInviteMemberLimitReached(t *testing.T) {
	teams := &fakeTeamRepo{}
	for i := 0; i < 5; i++ {
		teams.members = append(teams.members, model.TeamMember{OwnerID: "owner-1"})
	}
	router := teamRouter(teams, &fakeSubscriptionRepo{tier: model.TierTeam})

	w := postInvite(router, InviteRequest{Email: "sixth@example.com"})

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 at member cap, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "limit") {
		t.Errorf("Expected limit message, got %s", w.Body.String())
	}
}

func TestTeamInviteDuplicate(t *testing.T) {
	teams := &fakeTeamRepo{inviteErr: store.ErrDuplicateMember}
	router := teamRouter(teams, &fakeSubscriptionRepo{tier: model.TierBusiness})

	w := postInvite(router, InviteRequest{Email: "estimator@example.com"})

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestTeamInviteInvalidInput(t *testing.T) {
	router := teamRouter(&fakeTeamRepo{}, &fakeSubscriptionRepo{tier: model.TierTeam})

	tests := []struct {
		name string
		req  InviteRequest
	}{
		{"missing email", InviteRequest{Role: "member"}},
		{"not an email", InviteRequest{Email: "not-an-email"}},
		{"bad role", InviteRequest{Email: "estimator@example.com", Role: "owner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postInvite(router, tt.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestTeamList(t *testing.T) {
	teams := &fakeTeamRepo{members: []model.TeamMember{
		{ID: "member-1", OwnerID: "owner-1", MemberEmail: "pm@example.com", Role: "member"},
	}}
	router := teamRouter(teams, &fakeSubscriptionRepo{tier: model.TierTeam})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/team", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "pm@example.com") {
		t.Errorf("Expected member in response, got %s", w.Body.String())
	}
}

func TestTeamRemoveNotFound(t *testing.T) {
	teams := &fakeTeamRepo{removeErr: store.ErrNotFound}
	router := teamRouter(teams, &fakeSubscriptionRepo{tier: model.TierTeam})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/team/member-404", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
