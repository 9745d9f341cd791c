package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema. Statements are idempotent so the runner is
// safe to execute on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            email TEXT UNIQUE NOT NULL,
            full_name TEXT,
            company_name TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
            id UUID PRIMARY KEY,
            user_id UUID UNIQUE NOT NULL REFERENCES users(id),
            tier TEXT NOT NULL DEFAULT 'free',
            status TEXT NOT NULL DEFAULT 'active',
            stripe_customer_id TEXT,
            stripe_subscription_id TEXT,
            current_period_start TIMESTAMPTZ,
            current_period_end TIMESTAMPTZ,
            cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
            contracts_used_this_month INT NOT NULL DEFAULT 0,
            contracts_limit INT NOT NULL DEFAULT 1,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS contracts (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id),
            filename TEXT NOT NULL,
            file_size BIGINT,
            gc_name TEXT,
            project_name TEXT,
            storage_key TEXT,
            risk_score INT NOT NULL,
            recommendation TEXT NOT NULL,
            executive_summary TEXT NOT NULL,
            analysis_json JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_contracts_user_id ON contracts(user_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS team_members (
            id UUID PRIMARY KEY,
            team_owner_id UUID NOT NULL REFERENCES users(id),
            member_email TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'member',
            invited_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            accepted_at TIMESTAMPTZ,
            UNIQUE (team_owner_id, member_email)
        );`,
		`CREATE TABLE IF NOT EXISTS leads (
            id UUID PRIMARY KEY,
            email TEXT NOT NULL,
            risk_score INT,
            source TEXT NOT NULL DEFAULT 'preview',
            nurture_stage INT NOT NULL DEFAULT 0,
            converted BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);`,
		`CREATE INDEX IF NOT EXISTS idx_leads_nurture ON leads(converted, nurture_stage, created_at);`,
		`CREATE TABLE IF NOT EXISTS service_requests (
            id UUID PRIMARY KEY,
            user_id UUID REFERENCES users(id),
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            company TEXT,
            phone TEXT,
            service_type TEXT NOT NULL,
            message TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
