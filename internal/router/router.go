package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/handler"
	"github.com/stemsi/quizhub-backend/internal/middleware"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Quiz     *handler.QuizHandler
	Question *handler.QuestionHandler
	Attempt  *handler.AttemptHandler
	Stats    *handler.StatsHandler
	WS       *handler.WSHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// importLimiter may be nil, in which case imports are not rate limited.
func SetupRouter(
	auth middleware.Authenticator,
	handlers *Handlers,
	cfg *config.Config,
	importLimiter *middleware.RateLimiter,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	if cfg.OTelEnabled {
		router.Use(otelgin.Middleware(cfg.OTelServiceName))
	}

	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	requireAuth := middleware.RequireAuth(auth)
	api := router.Group("/api/v1")
	api.Use(requireAuth)

	// ─── 1. Profile ────────────────────────────────────────────────────
	{
		api.GET("/auth/me", handlers.Auth.Me)
		api.PUT("/auth/me/role", handlers.Auth.UpdateRole)
	}

	// ─── 2. Catalog & Attempts (any user) ──────────────────────────────
	leaderboardCache := middleware.CacheControl(cfg.LeaderboardCacheTTL)
	{
		api.GET("/quizzes", handlers.Quiz.ListPublished)
		api.GET("/quizzes/:id/paper", handlers.Quiz.GetPaper)
		api.GET("/quizzes/:id/leaderboard", leaderboardCache, handlers.Stats.QuizLeaderboard)
		api.POST("/quizzes/:id/attempts", middleware.NoStore(), handlers.Attempt.Start)

		attempts := api.Group("/attempts")
		attempts.Use(middleware.NoStore())
		attempts.GET("", handlers.Attempt.ListMine)
		attempts.GET("/:id", handlers.Attempt.Get)
		attempts.POST("/:id/submit", handlers.Attempt.Submit)

		api.GET("/stats/me", middleware.NoStore(), handlers.Stats.Me)
		api.GET("/leaderboard", leaderboardCache, handlers.Stats.GlobalLeaderboard)
	}

	// ─── 3. Quiz Management (quiz-master) ──────────────────────────────
	manage := api.Group("/manage")
	manage.Use(middleware.RequireRole(model.RoleQuizMaster))
	{
		manage.GET("/quizzes", handlers.Quiz.ListMine)
		manage.POST("/quizzes", handlers.Quiz.Create)

		importChain := []gin.HandlerFunc{}
		if importLimiter != nil {
			importChain = append(importChain, importLimiter.Middleware())
		}
		importChain = append(importChain, handlers.Quiz.Import)
		manage.POST("/quizzes/import", importChain...)

		manage.GET("/quizzes/:id", handlers.Quiz.Get)
		manage.PUT("/quizzes/:id", handlers.Quiz.Update)
		manage.DELETE("/quizzes/:id", handlers.Quiz.Delete)
		manage.POST("/quizzes/:id/publish", handlers.Quiz.Publish)
		manage.POST("/quizzes/:id/unpublish", handlers.Quiz.Unpublish)
		manage.POST("/quizzes/:id/duplicate", handlers.Quiz.Duplicate)
		manage.GET("/quizzes/:id/export", handlers.Quiz.Export)

		manage.GET("/quizzes/:id/questions", handlers.Question.ListQuestions)
		manage.POST("/quizzes/:id/questions", handlers.Question.AddQuestion)
		manage.PUT("/quizzes/:id/questions", handlers.Question.ReplaceQuestions)
		manage.PUT("/quizzes/:id/questions/:question_id", handlers.Question.UpdateQuestion)
		manage.DELETE("/quizzes/:id/questions/:question_id", handlers.Question.DeleteQuestion)
	}

	// ─── 4. WebSocket (token via query) ────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireAuth)
	{
		ws.GET("/attempts/:id/stream", handlers.WS.AttemptStream)
	}

	return router
}
