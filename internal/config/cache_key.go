package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserByExternalIDKey returns the cache key for the internal user mapped to an identity-provider subject
func (r *CacheKeyStruct) UserByExternalIDKey(externalID string) string {
	return fmt.Sprintf("user:ext:%s", externalID)
}

// QuizQuestionsKey returns the cache key for a quiz's full question set (with answers)
func (r *CacheKeyStruct) QuizQuestionsKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:questions", quizID)
}

// QuizPaperKey returns the cache key for a quiz's answer-free paper
func (r *CacheKeyStruct) QuizPaperKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:paper", quizID)
}

// AttemptAnswersKey returns the cache key for an attempt's autosaved answers
func (r *CacheKeyStruct) AttemptAnswersKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:answers", attemptID)
}

// GlobalLeaderboardKey returns the cache key for the global leaderboard
func (r *CacheKeyStruct) GlobalLeaderboardKey() string {
	return "leaderboard:global"
}

// QuizLeaderboardKey returns the cache key for one quiz's leaderboard
func (r *CacheKeyStruct) QuizLeaderboardKey(quizID string) string {
	return fmt.Sprintf("leaderboard:quiz:%s", quizID)
}

var CacheKey = NewCacheKeyStruct()
