package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContractRepository persists completed full-analysis reports.
type ContractRepository interface {
	Create(ctx context.Context, c *model.Contract) error
	GetByID(ctx context.Context, id, userID string) (*model.Contract, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Contract, error)
	Delete(ctx context.Context, id, userID string) error
}

type contractRepository struct{ db *pgxpool.Pool }

func NewContractRepository(db *pgxpool.Pool) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) Create(ctx context.Context, c *model.Contract) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	analysisJSON, err := json.Marshal(c.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	if _, err := r.db.Exec(ctx, `INSERT INTO contracts(id, user_id, filename, file_size, gc_name, project_name, storage_key, risk_score, recommendation, executive_summary, analysis_json)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.UserID, c.Filename, c.FileSize, nullable(c.GCName), nullable(c.ProjectName), nullable(c.StorageKey),
		c.RiskScore, c.Recommendation, c.ExecutiveSummary, analysisJSON); err != nil {
		return err
	}
	return nil
}

func (r *contractRepository) GetByID(ctx context.Context, id, userID string) (*model.Contract, error) {
	row := r.db.QueryRow(ctx, `SELECT id, user_id, filename, COALESCE(file_size, 0), COALESCE(gc_name, ''), COALESCE(project_name, ''), COALESCE(storage_key, ''), risk_score, recommendation, executive_summary, analysis_json, created_at
        FROM contracts WHERE id=$1 AND user_id=$2`, id, userID)

	var c model.Contract
	var analysisJSON []byte
	err := row.Scan(&c.ID, &c.UserID, &c.Filename, &c.FileSize, &c.GCName, &c.ProjectName, &c.StorageKey,
		&c.RiskScore, &c.Recommendation, &c.ExecutiveSummary, &analysisJSON, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(analysisJSON, &c.Analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return &c, nil
}

// ListByUser returns contract rows without the analysis body, newest first.
func (r *contractRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Contract, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `SELECT id, user_id, filename, COALESCE(file_size, 0), COALESCE(gc_name, ''), COALESCE(project_name, ''), COALESCE(storage_key, ''), risk_score, recommendation, executive_summary, created_at
        FROM contracts WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Contract
	for rows.Next() {
		var c model.Contract
		if err := rows.Scan(&c.ID, &c.UserID, &c.Filename, &c.FileSize, &c.GCName, &c.ProjectName, &c.StorageKey,
			&c.RiskScore, &c.Recommendation, &c.ExecutiveSummary, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *contractRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contracts WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// nullable maps empty strings to NULL so optional columns stay NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
