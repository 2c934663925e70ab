package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/foxseedlab/speakscore/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

// SaveAssessment writes the assessment and its answers in one transaction.
func (r *PostgresRepository) SaveAssessment(ctx context.Context, input repository.SaveAssessmentInput) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO assessments (id, mode, started_at, completed_at, question_count, overall_score)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			input.SessionID, input.Mode, input.StartedAt, input.CompletedAt, len(input.Answers), input.OverallScore); err != nil {
			return fmt.Errorf("insert assessment: %w", err)
		}

		batch := &pgx.Batch{}
		for i, a := range input.Answers {
			batch.Queue(
				`INSERT INTO assessment_answers (assessment_id, question_index, prompt, transcript, duration_seconds,
				   pronunciation_score, fluency_score, grammar_score, accuracy_score, final_score)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				input.SessionID, i, a.Prompt, a.Transcript, a.DurationSeconds,
				a.PronunciationScore, a.FluencyScore, a.GrammarScore, a.AccuracyScore, a.FinalScore)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert assessment answers: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) GetAssessment(ctx context.Context, id string) (*repository.Assessment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, mode, started_at, completed_at, question_count, overall_score, created_at
		 FROM assessments WHERE id = $1`,
		id)
	var a repository.Assessment
	err := row.Scan(&a.ID, &a.Mode, &a.StartedAt, &a.CompletedAt, &a.QuestionCount, &a.OverallScore, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT assessment_id, question_index, prompt, transcript, duration_seconds,
		   pronunciation_score, fluency_score, grammar_score, accuracy_score, final_score
		 FROM assessment_answers WHERE assessment_id = $1 ORDER BY question_index ASC`,
		id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ans repository.Answer
		if err := rows.Scan(&ans.AssessmentID, &ans.QuestionIndex, &ans.Prompt, &ans.Transcript, &ans.DurationSeconds,
			&ans.PronunciationScore, &ans.FluencyScore, &ans.GrammarScore, &ans.AccuracyScore, &ans.FinalScore); err != nil {
			return nil, err
		}
		a.Answers = append(a.Answers, ans)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListRecentAssessments returns assessment headers, newest first, without answers.
func (r *PostgresRepository) ListRecentAssessments(ctx context.Context, limit int) ([]repository.Assessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, mode, started_at, completed_at, question_count, overall_score, created_at
		 FROM assessments ORDER BY completed_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Assessment
	for rows.Next() {
		var a repository.Assessment
		if err := rows.Scan(&a.ID, &a.Mode, &a.StartedAt, &a.CompletedAt, &a.QuestionCount, &a.OverallScore, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
