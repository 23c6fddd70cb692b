package scoring

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizhub-backend/internal/model"
)

// UserSummary aggregates one user's completed attempts.
type UserSummary struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name,omitempty"`
	TotalQuizzes int       `json:"total_quizzes"`
	TotalScore   float64   `json:"total_score"`
	AverageScore float64   `json:"average_score"`
	BestScore    float64   `json:"best_score"`
	Rank         int       `json:"rank"`
}

// QuizEntry is one completed attempt on a quiz leaderboard.
type QuizEntry struct {
	Rank             int       `json:"rank"`
	AttemptID        uuid.UUID `json:"attempt_id"`
	UserID           uuid.UUID `json:"user_id"`
	Name             string    `json:"name,omitempty"`
	Score            float64   `json:"score"`
	TotalPoints      float64   `json:"total_points"`
	Percentage       float64   `json:"percentage"`
	TimeTakenSeconds int64     `json:"time_taken_seconds"`
	CompletedAt      time.Time `json:"completed_at"`

	TimeTaken time.Duration `json:"-"`
}

// Ranking sums completed attempts per user and orders users by total score,
// highest first. Users with equal totals keep the order in which they first
// appear in attempts.
func Ranking(attempts []model.Attempt) []UserSummary {
	index := make(map[uuid.UUID]int)
	var users []UserSummary

	for _, a := range attempts {
		if !a.IsCompleted {
			continue
		}
		i, ok := index[a.UserID]
		if !ok {
			i = len(users)
			index[a.UserID] = i
			users = append(users, UserSummary{UserID: a.UserID, BestScore: a.Score})
		}
		u := &users[i]
		u.TotalQuizzes++
		u.TotalScore += a.Score
		if a.Score > u.BestScore {
			u.BestScore = a.Score
		}
	}

	for i := range users {
		users[i].AverageScore = users[i].TotalScore / float64(users[i].TotalQuizzes)
	}

	slices.SortStableFunc(users, func(a, b UserSummary) int {
		return compareDesc(a.TotalScore, b.TotalScore)
	})
	for i := range users {
		users[i].Rank = i + 1
	}
	return users
}

// UserStats returns the summary for userID computed over all attempts. A user
// without completed attempts gets a zero summary with Rank 0.
func UserStats(userID uuid.UUID, attempts []model.Attempt) UserSummary {
	for _, u := range Ranking(attempts) {
		if u.UserID == userID {
			return u
		}
	}
	return UserSummary{UserID: userID}
}

// GlobalLeaderboard returns the top users by total score. A limit of zero or
// less returns every user.
func GlobalLeaderboard(attempts []model.Attempt, limit int) []UserSummary {
	return truncate(Ranking(attempts), limit)
}

// QuizLeaderboard ranks the completed attempts of a single quiz by raw score.
// Attempts on other quizzes are ignored.
func QuizLeaderboard(quizID uuid.UUID, attempts []model.Attempt, limit int) []QuizEntry {
	var entries []QuizEntry
	for _, a := range attempts {
		if !a.IsCompleted || a.QuizID != quizID {
			continue
		}
		e := QuizEntry{
			AttemptID:   a.ID,
			UserID:      a.UserID,
			Score:       a.Score,
			TotalPoints: a.TotalPoints,
		}
		if a.TotalPoints > 0 {
			e.Percentage = a.Score / a.TotalPoints * 100
		}
		if a.CompletedAt != nil {
			e.CompletedAt = *a.CompletedAt
			e.TimeTaken = a.CompletedAt.Sub(a.StartedAt)
			e.TimeTakenSeconds = int64(e.TimeTaken / time.Second)
		}
		entries = append(entries, e)
	}

	slices.SortStableFunc(entries, func(a, b QuizEntry) int {
		return compareDesc(a.Score, b.Score)
	})
	entries = truncate(entries, limit)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
