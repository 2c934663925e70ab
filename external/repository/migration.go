package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE assessment_mode AS ENUM ('read', 'listen'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS assessments (
		id UUID PRIMARY KEY,
		mode assessment_mode NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL,
		question_count INTEGER NOT NULL,
		overall_score DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assessments_completed ON assessments (completed_at DESC)`,
	`CREATE TABLE IF NOT EXISTS assessment_answers (
		assessment_id UUID NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
		question_index INTEGER NOT NULL,
		prompt TEXT NOT NULL,
		transcript TEXT NOT NULL,
		duration_seconds DOUBLE PRECISION NOT NULL,
		pronunciation_score DOUBLE PRECISION NOT NULL,
		fluency_score DOUBLE PRECISION NOT NULL,
		grammar_score DOUBLE PRECISION NOT NULL,
		accuracy_score DOUBLE PRECISION NOT NULL,
		final_score DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (assessment_id, question_index)
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
