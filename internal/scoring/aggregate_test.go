package scoring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizhub-backend/internal/model"
)

func completed(user uuid.UUID, score float64) model.Attempt {
	done := time.Now()
	return model.Attempt{
		ID:          uuid.New(),
		UserID:      user,
		Score:       score,
		TotalPoints: 20,
		StartedAt:   done.Add(-time.Minute),
		CompletedAt: &done,
		IsCompleted: true,
	}
}

func TestUserStats_RankWithTies(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	attempts := []model.Attempt{completed(a, 10), completed(b, 7), completed(c, 10)}

	if got := UserStats(b, attempts).Rank; got != 3 {
		t.Fatalf("expected rank 3, got %d", got)
	}
	if got := UserStats(a, attempts).Rank; got != 1 {
		t.Fatalf("expected rank 1 for the first of the tied users, got %d", got)
	}
	if got := UserStats(c, attempts).Rank; got != 2 {
		t.Fatalf("expected rank 2 for the second of the tied users, got %d", got)
	}
}

func TestUserStats_Totals(t *testing.T) {
	user := uuid.New()
	pending := completed(user, 100)
	pending.IsCompleted = false
	pending.CompletedAt = nil

	stats := UserStats(user, []model.Attempt{completed(user, 5), completed(user, 10), completed(user, 15), pending})

	if stats.TotalQuizzes != 3 {
		t.Fatalf("expected 3 quizzes, got %d", stats.TotalQuizzes)
	}
	if stats.TotalScore != 30 {
		t.Fatalf("expected total 30, got %v", stats.TotalScore)
	}
	if stats.AverageScore != 10 {
		t.Fatalf("expected average 10, got %v", stats.AverageScore)
	}
	if stats.BestScore != 15 {
		t.Fatalf("expected best 15, got %v", stats.BestScore)
	}
}

func TestUserStats_NoAttempts(t *testing.T) {
	user := uuid.New()
	stats := UserStats(user, []model.Attempt{completed(uuid.New(), 3)})
	if stats.TotalQuizzes != 0 || stats.AverageScore != 0 || stats.Rank != 0 {
		t.Fatalf("expected zero summary, got %+v", stats)
	}
}

func TestGlobalLeaderboard_Truncates(t *testing.T) {
	var attempts []model.Attempt
	for i := 0; i < 20; i++ {
		attempts = append(attempts, completed(uuid.New(), float64(i)))
	}

	board := GlobalLeaderboard(attempts, 10)
	if len(board) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(board))
	}
	for i := 1; i < len(board); i++ {
		if board[i-1].TotalScore < board[i].TotalScore {
			t.Fatalf("leaderboard not sorted descending at %d: %v < %v", i, board[i-1].TotalScore, board[i].TotalScore)
		}
	}
	if board[0].TotalScore != 19 || board[0].Rank != 1 {
		t.Fatalf("unexpected leader %+v", board[0])
	}
	if all := GlobalLeaderboard(attempts, 0); len(all) != 20 {
		t.Fatalf("expected no truncation for limit 0, got %d", len(all))
	}
}

func TestQuizLeaderboard(t *testing.T) {
	quiz := uuid.New()
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mk := func(score, total float64, took time.Duration) model.Attempt {
		done := start.Add(took)
		return model.Attempt{
			ID: uuid.New(), QuizID: quiz, UserID: uuid.New(),
			Score: score, TotalPoints: total,
			StartedAt: start, CompletedAt: &done, IsCompleted: true,
		}
	}

	low := mk(3, 4, 90*time.Second)  // 75%
	high := mk(6, 10, 2*time.Minute) // 60%, higher raw score
	zero := mk(0, 0, time.Minute)
	other := mk(100, 100, time.Minute)
	other.QuizID = uuid.New()
	open := mk(50, 50, time.Minute)
	open.IsCompleted = false

	board := QuizLeaderboard(quiz, []model.Attempt{low, zero, high, other, open}, 0)
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	if board[0].AttemptID != high.ID || board[1].AttemptID != low.ID {
		t.Fatalf("expected ordering by raw score, got %+v", board)
	}
	if board[1].Percentage != 75 || board[2].Percentage != 0 {
		t.Fatalf("unexpected percentages %v / %v", board[1].Percentage, board[2].Percentage)
	}
	if board[1].TimeTaken != 90*time.Second || board[1].TimeTakenSeconds != 90 {
		t.Fatalf("unexpected time taken %v", board[1].TimeTaken)
	}
	if board[2].Rank != 3 {
		t.Fatalf("expected rank 3, got %d", board[2].Rank)
	}

	if top := QuizLeaderboard(quiz, []model.Attempt{low, zero, high}, 1); len(top) != 1 || top[0].AttemptID != high.ID {
		t.Fatalf("expected only the top attempt, got %+v", top)
	}
}
