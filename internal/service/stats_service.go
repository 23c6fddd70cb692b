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
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
	"github.com/stemsi/quizhub-backend/internal/scoring"
	"golang.org/x/sync/errgroup"
)

// StatsService serves user statistics and leaderboards. Rankings are
// computed from completed attempts and cached in Redis for a short TTL.
type StatsService struct {
	attemptRepo  *repository.AttemptRepository
	userRepo     *repository.UserRepository
	quizService  *QuizService
	rdb          *redis.Client
	cacheTTL     time.Duration
	defaultLimit int
	maxLimit     int
	log          zerolog.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(
	attemptRepo *repository.AttemptRepository,
	userRepo *repository.UserRepository,
	quizService *QuizService,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *StatsService {
	return &StatsService{
		attemptRepo:  attemptRepo,
		userRepo:     userRepo,
		quizService:  quizService,
		rdb:          rdb,
		cacheTTL:     cfg.LeaderboardCacheTTL,
		defaultLimit: cfg.LeaderboardDefaultLimit,
		maxLimit:     cfg.LeaderboardMaxLimit,
		log:          log.With().Str("component", "stats_service").Logger(),
	}
}

// ClampLimit applies the configured default and maximum leaderboard sizes.
func (s *StatsService) ClampLimit(limit int) int {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}
	return limit
}

// UserStats returns the caller's summary and global rank.
func (s *StatsService) UserStats(ctx context.Context, user *model.User) (scoring.UserSummary, error) {
	ranking, err := s.ranking(ctx)
	if err != nil {
		return scoring.UserSummary{}, err
	}
	for _, u := range ranking {
		if u.UserID == user.ID {
			return u, nil
		}
	}
	return scoring.UserSummary{UserID: user.ID, Name: user.Name}, nil
}

// GlobalLeaderboard returns the top users by total score.
func (s *StatsService) GlobalLeaderboard(ctx context.Context, limit int) ([]scoring.UserSummary, error) {
	ranking, err := s.ranking(ctx)
	if err != nil {
		return nil, err
	}
	ranking = nonNil(ranking)
	if limit = s.ClampLimit(limit); len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// QuizLeaderboard returns the best completed attempts of one quiz.
func (s *StatsService) QuizLeaderboard(ctx context.Context, quizID uuid.UUID, limit int) ([]scoring.QuizEntry, error) {
	key := config.CacheKey.QuizLeaderboardKey(quizID.String())

	var entries []scoring.QuizEntry
	if !s.readCache(ctx, key, &entries) {
		var attempts []model.Attempt

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			_, err := s.quizService.GetByID(gctx, quizID)
			return err
		})
		g.Go(func() error {
			var err error
			attempts, err = s.attemptRepo.ListCompletedByQuiz(gctx, quizID)
			if err != nil {
				return fmt.Errorf("list quiz attempts: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		entries = scoring.QuizLeaderboard(quizID, attempts, 0)
		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			ids[i] = e.UserID
		}
		names, err := s.userRepo.NamesByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load names: %w", err)
		}
		for i := range entries {
			entries[i].Name = names[entries[i].UserID]
		}
		s.writeCache(ctx, key, entries)
	}

	entries = nonNil(entries)
	if limit = s.ClampLimit(limit); len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ranking returns every user with completed attempts, best first, with names.
func (s *StatsService) ranking(ctx context.Context) ([]scoring.UserSummary, error) {
	key := config.CacheKey.GlobalLeaderboardKey()

	var ranking []scoring.UserSummary
	if s.readCache(ctx, key, &ranking) {
		return ranking, nil
	}

	attempts, err := s.attemptRepo.ListCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	ranking = scoring.Ranking(attempts)

	ids := make([]uuid.UUID, len(ranking))
	for i, u := range ranking {
		ids[i] = u.UserID
	}
	names, err := s.userRepo.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load names: %w", err)
	}
	for i := range ranking {
		ranking[i].Name = names[ranking[i].UserID]
	}

	s.writeCache(ctx, key, ranking)
	return ranking, nil
}

func (s *StatsService) readCache(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("Leaderboard cache lookup failed")
		}
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *StatsService) writeCache(ctx context.Context, key string, v any) {
	if s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache leaderboard")
	}
}
