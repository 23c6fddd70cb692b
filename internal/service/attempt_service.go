package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/observability"
	"github.com/stemsi/quizhub-backend/internal/repository"
	"github.com/stemsi/quizhub-backend/internal/scoring"
	"go.opentelemetry.io/otel/attribute"
)

// AttemptService handles starting, autosaving and grading attempts.
type AttemptService struct {
	attemptRepo *repository.AttemptRepository
	quizService *QuizService
	rdb         *redis.Client
	grader      scoring.Grader
	log         zerolog.Logger
	now         func() time.Time
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attemptRepo *repository.AttemptRepository,
	quizService *QuizService,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		quizService: quizService,
		rdb:         rdb,
		grader:      scoring.Grader{Strict: cfg.GradingStrict},
		log:         log.With().Str("component", "attempt_service").Logger(),
		now:         time.Now,
	}
}

// Start opens an attempt on a published quiz. Calling it again while an
// attempt is in progress returns that attempt with created=false.
func (s *AttemptService) Start(ctx context.Context, quizID, userID uuid.UUID) (*model.Attempt, bool, error) {
	if _, err := s.quizService.GetPublished(ctx, quizID); err != nil {
		return nil, false, err
	}

	existing, err := s.attemptRepo.GetInProgress(ctx, quizID, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("get in-progress attempt: %w", err)
	}

	attempt, created, err := s.attemptRepo.Start(ctx, quizID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("start attempt: %w", err)
	}
	if created {
		s.log.Info().
			Str("attempt_id", attempt.ID.String()).
			Str("quiz_id", quizID.String()).
			Str("user_id", userID.String()).
			Msg("Attempt started")
	}
	return attempt, created, nil
}

// Get retrieves an attempt owned by userID.
func (s *AttemptService) Get(ctx context.Context, id, userID uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if attempt.UserID != userID {
		return nil, ErrNotAttemptOwner
	}
	return attempt, nil
}

// ListMine retrieves the caller's attempts, newest first.
func (s *AttemptService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.AttemptWithQuiz, error) {
	attempts, err := s.attemptRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(attempts), nil
}

// Deadline returns startedAt + duration for a timed quiz. ok is false when
// the quiz has no time limit.
func (s *AttemptService) Deadline(ctx context.Context, attempt *model.Attempt) (deadline time.Time, ok bool, err error) {
	quiz, err := s.quizService.GetByID(ctx, attempt.QuizID)
	if err != nil {
		return time.Time{}, false, err
	}
	if quiz.Duration == nil {
		return time.Time{}, false, nil
	}
	return attempt.StartedAt.Add(time.Duration(*quiz.Duration) * time.Minute), true, nil
}

// ─── Autosave ────────────────────────────────────────────────────────

// Autosave stores the current answer of one question in Redis and queues it
// for persistence by the autosave worker.
func (s *AttemptService) Autosave(ctx context.Context, attempt *model.Attempt, questionID uuid.UUID, answers []string) error {
	if attempt.IsCompleted {
		return ErrAttemptCompleted
	}

	questions, err := s.quizService.GetQuestionSet(ctx, attempt.QuizID)
	if err != nil {
		return err
	}
	if !containsQuestion(questions, questionID) {
		return scoring.ErrUnknownQuestion
	}

	if answers == nil {
		answers = []string{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	msg, err := json.Marshal(model.DraftAnswerMessage{
		AttemptID:  attempt.ID,
		QuestionID: questionID,
		Answers:    answers,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, config.CacheKey.AttemptAnswersKey(attempt.ID.String()), questionID.String(), answersJSON)
	pipe.RPush(ctx, config.WorkerKey.PersistAnswersQueue, msg)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	return nil
}

// draftAnswers merges the persisted drafts with the newer ones still in Redis,
// keeping only questions that belong to the quiz.
func (s *AttemptService) draftAnswers(ctx context.Context, attemptID uuid.UUID, questions []model.Question) ([]model.AttemptAnswer, error) {
	merged := make(map[uuid.UUID][]string)

	persisted, err := s.attemptRepo.ListDraftAnswers(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list draft answers: %w", err)
	}
	for _, a := range persisted {
		merged[a.QuestionID] = a.SelectedAnswers
	}

	cached, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(attemptID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get cached answers: %w", err)
	}
	for field, raw := range cached {
		qid, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		var answers []string
		if err := json.Unmarshal([]byte(raw), &answers); err != nil {
			s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Skipping unreadable cached answer")
			continue
		}
		merged[qid] = answers
	}

	out := make([]model.AttemptAnswer, 0, len(merged))
	for _, q := range questions {
		if answers, ok := merged[q.ID]; ok {
			out = append(out, model.AttemptAnswer{QuestionID: q.ID, SelectedAnswers: answers})
		}
	}
	return out, nil
}

// ─── Submit ──────────────────────────────────────────────────────────

// Submit grades an attempt and completes it. A nil submissions slice grades
// the autosaved answers. A second submit returns ErrAttemptCompleted.
func (s *AttemptService) Submit(ctx context.Context, id, userID uuid.UUID, submissions []model.AttemptAnswer) (*model.AttemptSubmission, error) {
	attempt, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, attempt, submissions)
}

// ForceSubmit completes an attempt with its autosaved answers once the
// deadline has passed.
func (s *AttemptService) ForceSubmit(ctx context.Context, attempt *model.Attempt) (*model.AttemptSubmission, error) {
	return s.complete(ctx, attempt, nil)
}

func (s *AttemptService) complete(ctx context.Context, attempt *model.Attempt, submissions []model.AttemptAnswer) (*model.AttemptSubmission, error) {
	ctx, span := observability.Tracer().Start(ctx, "AttemptService.complete")
	defer span.End()
	span.SetAttributes(attribute.String("attempt.id", attempt.ID.String()))

	if attempt.IsCompleted {
		return nil, ErrAttemptCompleted
	}

	questions, err := s.quizService.GetQuestionSet(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	if submissions == nil {
		submissions, err = s.draftAnswers(ctx, attempt.ID, questions)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.grader.Grade(questions, submissions)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	graded := *attempt
	graded.Answers = nonNil(submissions)
	graded.Score = result.Score
	graded.TotalPoints = result.TotalPoints
	graded.CompletedAt = &now
	graded.IsCompleted = true

	if err := s.attemptRepo.Complete(ctx, &graded); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptCompleted
		}
		return nil, fmt.Errorf("complete attempt: %w", err)
	}

	err = s.rdb.Del(ctx,
		config.CacheKey.AttemptAnswersKey(attempt.ID.String()),
		config.CacheKey.GlobalLeaderboardKey(),
		config.CacheKey.QuizLeaderboardKey(attempt.QuizID.String()),
	).Err()
	if err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Failed to clear attempt caches")
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Float64("score", result.Score).
		Float64("total_points", result.TotalPoints).
		Msg("Attempt graded")

	return &model.AttemptSubmission{Attempt: graded, Results: result.Results}, nil
}

func containsQuestion(questions []model.Question, id uuid.UUID) bool {
	for _, q := range questions {
		if q.ID == id {
			return true
		}
	}
	return false
}
