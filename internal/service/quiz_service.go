package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/codec"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/observability"
	"github.com/stemsi/quizhub-backend/internal/repository"
	"github.com/stemsi/quizhub-backend/internal/response"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// QuizService handles quiz authoring, interchange and the question cache.
type QuizService struct {
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	cacheTTL     time.Duration
	log          zerolog.Logger
	now          func() time.Time
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		cacheTTL:     cfg.QuizCacheTTL,
		log:          log.With().Str("component", "quiz_service").Logger(),
		now:          time.Now,
	}
}

// GetByID retrieves a quiz by its UUID.
func (s *QuizService) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return quiz, nil
}

// GetOwned retrieves a quiz and checks that userID created it.
func (s *QuizService) GetOwned(ctx context.Context, id, userID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quiz.CreatorID != userID {
		return nil, ErrNotQuizCreator
	}
	return quiz, nil
}

// GetPublished retrieves a quiz that is visible to takers.
func (s *QuizService) GetPublished(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, ErrQuizNotPublished
	}
	return quiz, nil
}

// ─── Authoring ───────────────────────────────────────────────────────

// Create inserts a new unpublished quiz owned by creatorID.
func (s *QuizService) Create(ctx context.Context, creatorID uuid.UUID, req model.CreateQuizRequest) (*model.Quiz, error) {
	quiz := &model.Quiz{
		CreatorID:   creatorID,
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
	}
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	s.log.Info().Str("quiz_id", quiz.ID.String()).Msg("Quiz created")
	return quiz, nil
}

// Update modifies quiz metadata. A zero duration clears the time limit.
func (s *QuizService) Update(ctx context.Context, id, userID uuid.UUID, req model.UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.Duration != nil {
		if *req.Duration == 0 {
			quiz.Duration = nil
		} else {
			quiz.Duration = req.Duration
		}
	}

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("update quiz: %w", notFound(err))
	}
	s.InvalidateCache(ctx, quiz.ID)
	return quiz, nil
}

// Delete removes a quiz with its questions and attempts.
func (s *QuizService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.GetOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.quizRepo.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.InvalidateCache(ctx, id)

	s.log.Info().Str("quiz_id", id.String()).Msg("Quiz deleted")
	return nil
}

// ListMine retrieves the quizzes created by userID.
func (s *QuizService) ListMine(ctx context.Context, userID uuid.UUID, page, perPage int) ([]model.QuizSummary, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)
	quizzes, total, err := s.quizRepo.ListByCreatorPaginated(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	return nonNil(quizzes), paginate(page, perPage, total), nil
}

// ListPublished retrieves the published catalog.
func (s *QuizService) ListPublished(ctx context.Context, page, perPage int) ([]model.QuizSummary, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)
	quizzes, total, err := s.quizRepo.ListPublishedPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	return nonNil(quizzes), paginate(page, perPage, total), nil
}

// Publish makes a quiz visible to takers and warms its cache.
// A quiz needs at least one question to be published.
func (s *QuizService) Publish(ctx context.Context, id, userID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	n, err := s.questionRepo.Count(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	if n == 0 {
		return nil, ErrNoQuestions
	}

	if err := s.quizRepo.SetPublished(ctx, id, true); err != nil {
		return nil, fmt.Errorf("publish: %w", notFound(err))
	}
	quiz.IsPublished = true

	if err := s.WarmQuizCache(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", id.String()).Msg("Failed to warm cache after publish")
	}

	s.log.Info().Str("quiz_id", id.String()).Msg("Quiz published")
	return quiz, nil
}

// Unpublish hides a quiz from takers. Existing attempts are kept.
func (s *QuizService) Unpublish(ctx context.Context, id, userID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.quizRepo.SetPublished(ctx, id, false); err != nil {
		return nil, fmt.Errorf("unpublish: %w", notFound(err))
	}
	quiz.IsPublished = false
	s.InvalidateCache(ctx, id)

	s.log.Info().Str("quiz_id", id.String()).Msg("Quiz unpublished")
	return quiz, nil
}

// Duplicate copies a quiz and its questions into a new unpublished quiz
// owned by userID. The copy is written in one transaction.
func (s *QuizService) Duplicate(ctx context.Context, id, userID uuid.UUID, title string) (*model.Quiz, []model.Question, error) {
	quiz, questions, err := s.loadOwnedWithQuestions(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}

	clone, copies := CloneQuiz(*quiz, questions, title)
	clone.CreatorID = userID
	if err := s.quizRepo.CreateWithQuestions(ctx, &clone, copies); err != nil {
		return nil, nil, fmt.Errorf("duplicate quiz: %w", err)
	}

	s.log.Info().
		Str("source_id", id.String()).
		Str("quiz_id", clone.ID.String()).
		Int("questions", len(copies)).
		Msg("Quiz duplicated")
	return &clone, copies, nil
}

// ─── Interchange ─────────────────────────────────────────────────────

// Export renders a quiz and its questions as an interchange document.
func (s *QuizService) Export(ctx context.Context, id, userID uuid.UUID, format codec.Format) ([]byte, *model.Quiz, error) {
	ctx, span := observability.Tracer().Start(ctx, "QuizService.Export")
	defer span.End()
	span.SetAttributes(attribute.String("quiz.id", id.String()), attribute.String("quiz.format", string(format)))

	quiz, questions, err := s.loadOwnedWithQuestions(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}

	doc := codec.NewDocument(*quiz, questions, s.now())
	data, err := codec.Encode(format, doc)
	if err != nil {
		return nil, nil, err
	}
	return data, quiz, nil
}

// Import decodes an interchange document, validates it and stores the quiz
// with all of its questions in one transaction. Nothing is written when the
// document is malformed or fails validation.
func (s *QuizService) Import(ctx context.Context, userID uuid.UUID, format codec.Format, data []byte) (*model.Quiz, []model.Question, error) {
	ctx, span := observability.Tracer().Start(ctx, "QuizService.Import")
	defer span.End()
	span.SetAttributes(attribute.String("quiz.format", string(format)), attribute.Int("import.bytes", len(data)))

	doc, err := codec.Decode(format, data)
	if err != nil {
		return nil, nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, nil, err
	}

	quiz, questions := doc.ToModel(userID)
	if err := s.quizRepo.CreateWithQuestions(ctx, &quiz, questions); err != nil {
		return nil, nil, fmt.Errorf("import quiz: %w", err)
	}

	if quiz.IsPublished {
		if err := s.WarmQuizCache(ctx, &quiz); err != nil {
			s.log.Warn().Err(err).Str("quiz_id", quiz.ID.String()).Msg("Failed to warm cache after import")
		}
	}

	s.log.Info().
		Str("quiz_id", quiz.ID.String()).
		Str("format", string(format)).
		Int("questions", len(questions)).
		Msg("Quiz imported")
	return &quiz, questions, nil
}

// loadOwnedWithQuestions fetches a quiz and its questions concurrently.
func (s *QuizService) loadOwnedWithQuestions(ctx context.Context, id, userID uuid.UUID) (*model.Quiz, []model.Question, error) {
	var (
		quiz      *model.Quiz
		questions []model.Question
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quiz, err = s.GetOwned(gctx, id, userID)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = s.questionRepo.ListByQuiz(gctx, id)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return quiz, questions, nil
}

// ─── Cache ───────────────────────────────────────────────────────────

// WarmQuizCache loads a quiz's questions and taker paper from PostgreSQL into Redis.
func (s *QuizService) WarmQuizCache(ctx context.Context, quiz *model.Quiz) error {
	questions, err := s.questionRepo.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	return s.cacheQuestions(ctx, quiz, questions)
}

type cacheEntry struct {
	key   string
	value []byte
}

// questionCacheEntries builds the Redis entries for a quiz's question set. The
// taker paper is only cached while the quiz is published.
func questionCacheEntries(quiz *model.Quiz, questions []model.Question) ([]cacheEntry, error) {
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	entries := []cacheEntry{{config.CacheKey.QuizQuestionsKey(quiz.ID.String()), questionsJSON}}
	if !quiz.IsPublished {
		return entries, nil
	}

	paperJSON, err := json.Marshal(BuildPaper(quiz, questions))
	if err != nil {
		return nil, fmt.Errorf("marshal paper: %w", err)
	}
	return append(entries, cacheEntry{config.CacheKey.QuizPaperKey(quiz.ID.String()), paperJSON}), nil
}

func (s *QuizService) cacheQuestions(ctx context.Context, quiz *model.Quiz, questions []model.Question) error {
	entries, err := questionCacheEntries(quiz, questions)
	if err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	for _, e := range entries {
		pipe.Set(ctx, e.key, e.value, s.cacheTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("quiz_id", quiz.ID.String()).
		Int("questions", len(questions)).
		Bool("paper", quiz.IsPublished).
		Msg("Cache warmed")
	return nil
}

// InvalidateCache drops the cached questions and paper of a quiz.
func (s *QuizService) InvalidateCache(ctx context.Context, quizID uuid.UUID) {
	err := s.rdb.Del(ctx,
		config.CacheKey.QuizQuestionsKey(quizID.String()),
		config.CacheKey.QuizPaperKey(quizID.String()),
		config.CacheKey.QuizLeaderboardKey(quizID.String()),
	).Err()
	if err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Failed to invalidate quiz cache")
	}
}

// PrewarmAllCaches loads all published quizzes into Redis on application startup.
func (s *QuizService) PrewarmAllCaches(ctx context.Context) error {
	quizzes, err := s.quizRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published quizzes: %w", err)
	}

	if len(quizzes) == 0 {
		s.log.Info().Msg("No published quizzes to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(quizzes)).Msg("Prewarming published quizzes...")

	warmed := 0
	for i := range quizzes {
		if err := s.WarmQuizCache(ctx, &quizzes[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("quiz_id", quizzes[i].ID.String()).
				Msg("Failed to warm quiz, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(quizzes)).
		Msg("Prewarming complete")
	return nil
}

// GetQuestionSet returns the questions of a quiz, served from Redis when cached.
func (s *QuizService) GetQuestionSet(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.QuizQuestionsKey(quizID.String())).Bytes()
	if err == nil {
		var questions []model.Question
		if err := json.Unmarshal(data, &questions); err == nil {
			return questions, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Question cache lookup failed")
	}

	quiz, err := s.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) > 0 {
		if err := s.cacheQuestions(ctx, quiz, questions); err != nil {
			s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Failed to cache questions")
		}
	}
	return questions, nil
}

// GetPaper returns the taker-facing view of a published quiz.
func (s *QuizService) GetPaper(ctx context.Context, quizID uuid.UUID) (*model.QuizPaper, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.QuizPaperKey(quizID.String())).Bytes()
	if err == nil {
		var paper model.QuizPaper
		if err := json.Unmarshal(data, &paper); err == nil {
			return &paper, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Paper cache lookup failed")
	}

	quiz, err := s.GetPublished(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if err := s.cacheQuestions(ctx, quiz, questions); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Failed to cache paper")
	}
	return BuildPaper(quiz, questions), nil
}

// BuildPaper strips the correct answers from a question set.
func BuildPaper(quiz *model.Quiz, questions []model.Question) *model.QuizPaper {
	paper := &model.QuizPaper{
		QuizID:      quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Duration:    quiz.Duration,
		Questions:   make([]model.QuestionForTaker, len(questions)),
	}
	for i, q := range questions {
		paper.TotalPoints += q.Points
		paper.Questions[i] = model.QuestionForTaker{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Options:      q.Options,
			Points:       q.Points,
			OrderNum:     q.OrderNum,
		}
	}
	return paper
}

// ─── Helpers ─────────────────────────────────────────────────────────

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

func paginate(page, perPage, total int) *response.Pagination {
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
