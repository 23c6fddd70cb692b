package model

// PageQuery holds list pagination parameters.
type PageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// LeaderboardQuery holds leaderboard size parameters.
type LeaderboardQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}
