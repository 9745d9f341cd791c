package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/gin-gonic/gin"
)

type fakeServiceRequestRepo struct {
	createErr error
	created   []*model.ServiceRequest
}

func (f *fakeServiceRequestRepo) Create(ctx context.Context, sr *model.ServiceRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, sr)
	return nil
}

func serviceRequestRouter(requests *fakeServiceRequestRepo, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewServiceRequestHandler(requests)

	router := gin.New()
	router.POST("/api/service-request", func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
	}, h.Create)
	return router
}

func postServiceRequest(router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/service-request", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCreateServiceRequest(t *testing.T) {
	requests := &fakeServiceRequestRepo{}
	router := serviceRequestRouter(requests, "")

	w := postServiceRequest(router, serviceRequestInput{
		Name:        "Dana Ortiz",
		Email:       "Dana@Ortiz-Drywall.com",
		Company:     "Ortiz Drywall LLC",
		Phone:       "555-0134",
		Message:     "Need this reviewed before Friday",
		ServiceType: model.ServiceExpressReview,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(requests.created) != 1 {
		t.Fatalf("Expected 1 request stored, got %d", len(requests.created))
	}

	sr := requests.created[0]
	if sr.Email != "dana@ortiz-drywall.com" {
		t.Errorf("Expected email lowercased, got %s", sr.Email)
	}
	if sr.UserID != "" {
		t.Errorf("Expected anonymous request, got user %s", sr.UserID)
	}
	if sr.ServiceType != model.ServiceExpressReview {
		t.Errorf("Expected express_review, got %s", sr.ServiceType)
	}
}

func TestCreateServiceRequestAttachesUser(t *testing.T) {
	requests := &fakeServiceRequestRepo{}
	router := serviceRequestRouter(requests, "user-42")

	w := postServiceRequest(router, serviceRequestInput{
		Name:        "Dana Ortiz",
		Email:       "dana@ortiz-drywall.com",
		ServiceType: model.ServiceMonthlyRetainer,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if requests.created[0].UserID != "user-42" {
		t.Errorf("Expected request attached to user-42, got %q", requests.created[0].UserID)
	}
}

func TestCreateServiceRequestInvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		input serviceRequestInput
	}{
		{"missing name", serviceRequestInput{Email: "a@b.com", ServiceType: model.ServiceExpressReview}},
		{"missing email", serviceRequestInput{Name: "Dana", ServiceType: model.ServiceExpressReview}},
		{"missing service type", serviceRequestInput{Name: "Dana", Email: "a@b.com"}},
		{"bad email", serviceRequestInput{Name: "Dana", Email: "not-an-email", ServiceType: model.ServiceExpressReview}},
		{"unknown service type", serviceRequestInput{Name: "Dana", Email: "a@b.com", ServiceType: "gold_plan"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requests := &fakeServiceRequestRepo{}
			router := serviceRequestRouter(requests, "")

			if w := postServiceRequest(router, tc.input); w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			if len(requests.created) != 0 {
				t.Errorf("Expected nothing stored, got %d", len(requests.created))
			}
		})
	}
}

func TestCreateServiceRequestStoreFailure(t *testing.T) {
	requests := &fakeServiceRequestRepo{createErr: errors.New("connection refused")}
	router := serviceRequestRouter(requests, "")

	w := postServiceRequest(router, serviceRequestInput{
		Name:        "Dana Ortiz",
		Email:       "dana@ortiz-drywall.com",
		ServiceType: model.ServiceEnterprise,
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}
