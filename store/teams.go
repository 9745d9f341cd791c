package store

import (
	"context"
	"errors"

	"github.com/colin330smith/callbot-ai-sub000/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateMember means the email is already invited to this team.
var ErrDuplicateMember = errors.New("member already invited")

// TeamRepository manages team membership for team/business accounts.
type TeamRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]model.TeamMember, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Invite(ctx context.Context, m *model.TeamMember) error
	Remove(ctx context.Context, id, ownerID string) error
}

type teamRepository struct{ db *pgxpool.Pool }

func NewTeamRepository(db *pgxpool.Pool) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.TeamMember, error) {
	rows, err := r.db.Query(ctx, `SELECT id, team_owner_id, member_email, role, invited_at, accepted_at
        FROM team_members WHERE team_owner_id=$1 ORDER BY invited_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TeamMember
	for rows.Next() {
		var m model.TeamMember
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.MemberEmail, &m.Role, &m.InvitedAt, &m.AcceptedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *teamRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM team_members WHERE team_owner_id=$1`, ownerID).Scan(&count)
	return count, err
}

func (r *teamRepository) Invite(ctx context.Context, m *model.TeamMember) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Role == "" {
		m.Role = model.RoleMember
	}

	tag, err := r.db.Exec(ctx, `INSERT INTO team_members(id, team_owner_id, member_email, role)
        VALUES($1,$2,$3,$4) ON CONFLICT (team_owner_id, member_email) DO NOTHING`,
		m.ID, m.OwnerID, m.MemberEmail, m.Role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateMember
	}
	return nil
}

func (r *teamRepository) Remove(ctx context.Context, id, ownerID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM team_members WHERE id=$1 AND team_owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
