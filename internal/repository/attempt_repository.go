package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-learn/internal/model"
)

// AttemptRepository handles exam attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a graded attempt. ID must be set by the caller.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (id, learner_id, course_id, answers, score, correct_count, total_questions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING submitted_at`,
		a.ID, a.UserID, a.CourseID, a.Answers, a.Score, a.CorrectCount, a.TotalQuestions,
	).Scan(&a.SubmittedAt)
}

// GetByID retrieves an attempt including its answers.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, learner_id, course_id, answers, score, correct_count, total_questions, submitted_at
		 FROM attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.UserID, &a.CourseID, &a.Answers, &a.Score, &a.CorrectCount, &a.TotalQuestions, &a.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}
