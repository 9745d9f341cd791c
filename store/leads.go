package store

import (
	"context"
	"time"

	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeadRepository stores emails captured from the preview funnel and
// tracks their position in the nurture sequence.
type LeadRepository interface {
	Create(ctx context.Context, l *model.Lead) error
	ListNurturable(ctx context.Context, capturedAfter time.Time) ([]model.Lead, error)
	SetNurtureStage(ctx context.Context, id string, stage int) error
}

type leadRepository struct{ db *pgxpool.Pool }

func NewLeadRepository(db *pgxpool.Pool) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) Create(ctx context.Context, l *model.Lead) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Source == "" {
		l.Source = "preview"
	}
	var score any
	if l.RiskScore > 0 {
		score = l.RiskScore
	}
	_, err := r.db.Exec(ctx, `INSERT INTO leads(id, email, risk_score, source) VALUES($1,$2,$3,$4)`,
		l.ID, l.Email, score, l.Source)
	return err
}

// ListNurturable returns unconverted leads captured after the cutoff that
// have not yet received the whole drip sequence.
func (r *leadRepository) ListNurturable(ctx context.Context, capturedAfter time.Time) ([]model.Lead, error) {
	rows, err := r.db.Query(ctx, `SELECT id, email, COALESCE(risk_score, 0), source, nurture_stage, converted, created_at
        FROM leads
        WHERE converted = FALSE AND nurture_stage < 2 AND created_at >= $1
        ORDER BY created_at`, capturedAfter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.Email, &l.RiskScore, &l.Source, &l.NurtureStage, &l.Converted, &l.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (r *leadRepository) SetNurtureStage(ctx context.Context, id string, stage int) error {
	_, err := r.db.Exec(ctx, `UPDATE leads SET nurture_stage = $2 WHERE id = $1 AND nurture_stage < $2`, id, stage)
	return err
}
