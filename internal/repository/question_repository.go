package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-learn/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByCourse retrieves the full bank of a course, answers included.
func (r *QuestionRepository) ListByCourse(ctx context.Context, courseID int) ([]model.BankQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, question_text, option_a, option_b, option_c, option_d, correct_option
		 FROM questions WHERE course_id = $1
		 ORDER BY id`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.BankQuestion
	for rows.Next() {
		var q model.BankQuestion
		if err := rows.Scan(&q.ID, &q.CourseID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceCourseBank swaps the bank of a course in one transaction. New rows
// are loaded with COPY.
func (r *QuestionRepository) ReplaceCourseBank(ctx context.Context, courseID int, questions []model.BankQuestion) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE course_id = $1`, courseID); err != nil {
		return 0, fmt.Errorf("clear bank: %w", err)
	}

	rows := make([][]any, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, []any{courseID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption})
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"course_id", "question_text", "option_a", "option_b", "option_c", "option_d", "correct_option"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy questions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
