package store

import (
	"context"

	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceRequestRepository stores inquiries for human review services.
type ServiceRequestRepository interface {
	Create(ctx context.Context, sr *model.ServiceRequest) error
}

type serviceRequestRepository struct{ db *pgxpool.Pool }

func NewServiceRequestRepository(db *pgxpool.Pool) ServiceRequestRepository {
	return &serviceRequestRepository{db: db}
}

func (r *serviceRequestRepository) Create(ctx context.Context, sr *model.ServiceRequest) error {
	if sr.ID == "" {
		sr.ID = uuid.NewString()
	}
	if sr.Status == "" {
		sr.Status = "pending"
	}
	_, err := r.db.Exec(ctx, `INSERT INTO service_requests(id, user_id, name, email, company, phone, service_type, message, status)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		sr.ID, nullable(sr.UserID), sr.Name, sr.Email, nullable(sr.Company), nullable(sr.Phone),
		sr.ServiceType, nullable(sr.Message), sr.Status)
	return err
}
