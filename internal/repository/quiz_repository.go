package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizhub-backend/internal/model"
)

// QuizRepository handles quiz data access.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

const quizColumns = `q.id, q.creator_id, q.title, q.description, q.duration, q.is_published, q.created_at, q.updated_at`

func scanQuiz(row interface{ Scan(...any) error }, extra ...any) (*model.Quiz, error) {
	q := &model.Quiz{}
	dest := append([]any{&q.ID, &q.CreatorID, &q.Title, &q.Description, &q.Duration, &q.IsPublished, &q.CreatedAt, &q.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a quiz by its UUID.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes q WHERE q.id = $1`, id))
}

// Create inserts a new quiz.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	return insertQuiz(ctx, r.pool, q)
}

func insertQuiz(ctx context.Context, db querier, q *model.Quiz) error {
	return db.QueryRow(ctx,
		`INSERT INTO quizzes (creator_id, title, description, duration, is_published)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		q.CreatorID, q.Title, q.Description, q.Duration, q.IsPublished,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update writes the editable metadata of a quiz.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	return r.pool.QueryRow(ctx,
		`UPDATE quizzes SET title = $1, description = $2, duration = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING updated_at`,
		q.Title, q.Description, q.Duration, q.ID,
	).Scan(&q.UpdatedAt)
}

// SetPublished flips the publish flag.
func (r *QuizRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET is_published = $1, updated_at = NOW() WHERE id = $2`, published, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a quiz. Questions and attempts cascade.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByCreatorPaginated retrieves a creator's quizzes, newest first.
func (r *QuizRepository) ListByCreatorPaginated(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]model.QuizSummary, int, error) {
	return r.listSummaries(ctx, `q.creator_id = $1`, []any{creatorID}, limit, offset)
}

// ListPublishedPaginated retrieves the published catalog, newest first.
func (r *QuizRepository) ListPublishedPaginated(ctx context.Context, limit, offset int) ([]model.QuizSummary, int, error) {
	return r.listSummaries(ctx, `q.is_published`, nil, limit, offset)
}

func (r *QuizRepository) listSummaries(ctx context.Context, where string, args []any, limit, offset int) ([]model.QuizSummary, int, error) {
	// 1. Get total count
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quizzes q WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// 2. Get paginated data
	n := len(args)
	query := fmt.Sprintf(
		`SELECT %s, (SELECT COUNT(*) FROM questions qs WHERE qs.quiz_id = q.id)
		 FROM quizzes q
		 WHERE %s
		 ORDER BY q.created_at DESC
		 LIMIT $%d OFFSET $%d`, quizColumns, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quizzes []model.QuizSummary
	for rows.Next() {
		var count int
		q, err := scanQuiz(rows, &count)
		if err != nil {
			return nil, 0, err
		}
		quizzes = append(quizzes, model.QuizSummary{Quiz: *q, QuestionCount: count})
	}
	return quizzes, total, rows.Err()
}

// ListPublished retrieves every published quiz. Used for cache prewarming.
func (r *QuizRepository) ListPublished(ctx context.Context) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes q WHERE q.is_published ORDER BY q.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, rows.Err()
}

// CreateWithQuestions inserts a quiz and all of its questions in one transaction.
// IDs are written back into quiz and questions.
func (r *QuizRepository) CreateWithQuestions(ctx context.Context, quiz *model.Quiz, questions []model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertQuiz(ctx, tx, quiz); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		for i := range questions {
			questions[i].QuizID = quiz.ID
			if err := insertQuestion(ctx, tx, &questions[i]); err != nil {
				return fmt.Errorf("insert question %d: %w", i+1, err)
			}
		}
		return nil
	})
}
