package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/codec"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
)

// QuestionService handles question CRUD for quizzes owned by the caller.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	quizService  *QuizService
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, quizService *QuizService, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		quizService:  quizService,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// List returns the questions of a quiz, ordered by order_num.
func (s *QuestionService) List(ctx context.Context, quizID, userID uuid.UUID) ([]model.Question, error) {
	if _, err := s.quizService.GetOwned(ctx, quizID, userID); err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return nonNil(questions), nil
}

// Add appends a question. Without an explicit order it goes to the end.
func (s *QuestionService) Add(ctx context.Context, quizID, userID uuid.UUID, req model.QuestionRequest) (*model.Question, error) {
	if _, err := s.quizService.GetOwned(ctx, quizID, userID); err != nil {
		return nil, err
	}

	next := 0
	if req.OrderNum == nil {
		n, err := s.questionRepo.NextOrderNum(ctx, quizID)
		if err != nil {
			return nil, fmt.Errorf("next order: %w", err)
		}
		next = n
	}

	q := req.ToQuestion(quizID, next)
	if err := codec.ValidateQuestion(q); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Create(ctx, &q); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateOrderNum
		}
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.quizService.InvalidateCache(ctx, quizID)
	return &q, nil
}

// Update overwrites a question. Without an explicit order the current one is kept.
func (s *QuestionService) Update(ctx context.Context, quizID, questionID, userID uuid.UUID, req model.QuestionRequest) (*model.Question, error) {
	if _, err := s.quizService.GetOwned(ctx, quizID, userID); err != nil {
		return nil, err
	}

	existing, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, notFound(err)
	}
	if existing.QuizID != quizID {
		return nil, ErrNotFound
	}

	q := req.ToQuestion(quizID, existing.OrderNum)
	q.ID = questionID
	if err := codec.ValidateQuestion(q); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Update(ctx, &q); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateOrderNum
		}
		return nil, notFound(err)
	}

	s.quizService.InvalidateCache(ctx, quizID)
	return &q, nil
}

// Delete removes a question. The last question of a published quiz cannot be removed.
func (s *QuestionService) Delete(ctx context.Context, quizID, questionID, userID uuid.UUID) error {
	quiz, err := s.quizService.GetOwned(ctx, quizID, userID)
	if err != nil {
		return err
	}

	if quiz.IsPublished {
		n, err := s.questionRepo.Count(ctx, quizID)
		if err != nil {
			return fmt.Errorf("count questions: %w", err)
		}
		if n <= 1 {
			return ErrNoQuestions
		}
	}

	if err := s.questionRepo.Delete(ctx, quizID, questionID); err != nil {
		return notFound(err)
	}

	s.quizService.InvalidateCache(ctx, quizID)
	return nil
}

// ReplaceAll swaps the whole question set in one transaction. Questions
// without an explicit order are numbered by their position.
func (s *QuestionService) ReplaceAll(ctx context.Context, quizID, userID uuid.UUID, reqs []model.QuestionRequest) ([]model.Question, error) {
	quiz, err := s.quizService.GetOwned(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}
	if quiz.IsPublished && len(reqs) == 0 {
		return nil, ErrNoQuestions
	}

	questions := make([]model.Question, len(reqs))
	for i, r := range reqs {
		questions[i] = r.ToQuestion(quizID, i)
	}
	if err := codec.ValidateQuestionSet(questions); err != nil {
		return nil, err
	}

	if err := s.questionRepo.ReplaceAll(ctx, quizID, questions); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateOrderNum
		}
		return nil, fmt.Errorf("replace questions: %w", err)
	}

	s.quizService.InvalidateCache(ctx, quizID)
	s.log.Info().
		Str("quiz_id", quizID.String()).
		Int("questions", len(questions)).
		Msg("Questions replaced")
	return questions, nil
}
