package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizhub-backend/internal/model"
)

// AttemptRepository handles attempt and draft-answer data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// DraftAnswer is one autosaved answer waiting for submission.
type DraftAnswer struct {
	AttemptID       uuid.UUID
	QuestionID      uuid.UUID
	SelectedAnswers []string
}

const attemptColumns = `a.id, a.quiz_id, a.user_id, a.answers, a.score, a.total_points, a.started_at, a.completed_at, a.is_completed`

func scanAttempt(row interface{ Scan(...any) error }, extra ...any) (*model.Attempt, error) {
	a := &model.Attempt{}
	dest := append([]any{&a.ID, &a.QuizID, &a.UserID, &a.Answers, &a.Score, &a.TotalPoints, &a.StartedAt, &a.CompletedAt, &a.IsCompleted}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts a WHERE a.id = $1`, id))
}

// GetInProgress retrieves the incomplete attempt of a user on a quiz.
func (r *AttemptRepository) GetInProgress(ctx context.Context, quizID, userID uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts a
		 WHERE a.quiz_id = $1 AND a.user_id = $2 AND NOT a.is_completed`, quizID, userID))
}

// Start inserts a new attempt unless one is already in progress for the same
// (quiz, user), in which case the existing attempt is returned. created reports
// which of the two happened. Concurrent starts converge on one row.
func (r *AttemptRepository) Start(ctx context.Context, quizID, userID uuid.UUID) (attempt *model.Attempt, created bool, err error) {
	a := &model.Attempt{QuizID: quizID, UserID: userID, Answers: []model.AttemptAnswer{}}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO attempts (quiz_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (quiz_id, user_id) WHERE NOT is_completed DO NOTHING
		 RETURNING id, started_at`,
		quizID, userID,
	).Scan(&a.ID, &a.StartedAt)
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	existing, err := r.GetInProgress(ctx, quizID, userID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Complete records the graded result. It only touches an attempt that is still
// in progress and returns pgx.ErrNoRows otherwise.
func (r *AttemptRepository) Complete(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`UPDATE attempts
		 SET answers = $1, score = $2, total_points = $3, completed_at = $4, is_completed = TRUE
		 WHERE id = $5 AND NOT is_completed
		 RETURNING started_at`,
		a.Answers, a.Score, a.TotalPoints, a.CompletedAt, a.ID,
	).Scan(&a.StartedAt)
}

// ListByUser retrieves a user's attempts joined with quiz titles, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.AttemptWithQuiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`, q.title
		 FROM attempts a
		 JOIN quizzes q ON q.id = a.quiz_id
		 WHERE a.user_id = $1
		 ORDER BY a.started_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AttemptWithQuiz
	for rows.Next() {
		var title string
		a, err := scanAttempt(rows, &title)
		if err != nil {
			return nil, err
		}
		out = append(out, model.AttemptWithQuiz{Attempt: *a, QuizTitle: title})
	}
	return out, rows.Err()
}

// ListCompleted retrieves every completed attempt in completion order.
// Answers are not loaded.
func (r *AttemptRepository) ListCompleted(ctx context.Context) ([]model.Attempt, error) {
	return r.listCompleted(ctx,
		`SELECT id, quiz_id, user_id, score, total_points, started_at, completed_at
		 FROM attempts
		 WHERE is_completed
		 ORDER BY completed_at, id`)
}

// ListCompletedByQuiz retrieves the completed attempts of one quiz in completion order.
func (r *AttemptRepository) ListCompletedByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Attempt, error) {
	return r.listCompleted(ctx,
		`SELECT id, quiz_id, user_id, score, total_points, started_at, completed_at
		 FROM attempts
		 WHERE is_completed AND quiz_id = $1
		 ORDER BY completed_at, id`, quizID)
}

func (r *AttemptRepository) listCompleted(ctx context.Context, query string, args ...any) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Attempt
	for rows.Next() {
		a := model.Attempt{IsCompleted: true}
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Score, &a.TotalPoints, &a.StartedAt, &a.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ─── Draft answers ───────────────────────────────────────────────────

// SaveDraftAnswers upserts a batch of autosaved answers in one round trip.
// Answers for attempts that are already completed are dropped. Later entries
// win when the batch holds several answers for the same question.
func (r *AttemptRepository) SaveDraftAnswers(ctx context.Context, drafts []DraftAnswer) error {
	if len(drafts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range drafts {
		selected := d.SelectedAnswers
		if selected == nil {
			selected = []string{}
		}
		batch.Queue(
			`INSERT INTO attempt_answers (attempt_id, question_id, selected_answers)
			 SELECT $1::uuid, $2::uuid, $3::text[]
			 WHERE EXISTS (SELECT 1 FROM attempts WHERE id = $1::uuid AND NOT is_completed)
			 ON CONFLICT (attempt_id, question_id) DO UPDATE
			 SET selected_answers = EXCLUDED.selected_answers, updated_at = NOW()`,
			d.AttemptID, d.QuestionID, selected,
		)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// ListDraftAnswers retrieves the autosaved answers of an attempt.
func (r *AttemptRepository) ListDraftAnswers(ctx context.Context, attemptID uuid.UUID) ([]model.AttemptAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, selected_answers FROM attempt_answers WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AttemptAnswer
	for rows.Next() {
		var a model.AttemptAnswer
		if err := rows.Scan(&a.QuestionID, &a.SelectedAnswers); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
