package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/service"
	"github.com/stemsi/quizhub-backend/internal/validator"
)

// AttemptHandler handles quiz-taking endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// Start godoc
// POST /api/v1/quizzes/:id/attempts
// Starts an attempt, or returns the one already in progress.
func (h *AttemptHandler) Start(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	attempt, created, err := h.attemptService.Start(c.Request.Context(), quizID, user.ID)
	if err != nil {
		failWithError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"attempt": attempt})
}

// ListMine godoc
// GET /api/v1/attempts
func (h *AttemptHandler) ListMine(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	attempts, err := h.attemptService.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// Get godoc
// GET /api/v1/attempts/:id
func (h *AttemptHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	attempt, err := h.attemptService.Get(c.Request.Context(), attemptID, user.ID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// Submit godoc
// POST /api/v1/attempts/:id/submit
// Grades and completes an attempt. Without an answers list the autosaved
// answers are graded.
func (h *AttemptHandler) Submit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.SubmitAttemptRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	submission, err := h.attemptService.Submit(c.Request.Context(), attemptID, user.ID, toAttemptAnswers(req.Answers))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"attempt": submission.Attempt,
		"results": submission.Results,
	})
}

// toAttemptAnswers keeps nil as nil so the caller can fall back to drafts.
func toAttemptAnswers(reqs []model.AttemptAnswerRequest) []model.AttemptAnswer {
	if reqs == nil {
		return nil
	}
	out := make([]model.AttemptAnswer, len(reqs))
	for i, r := range reqs {
		out[i] = model.AttemptAnswer{QuestionID: r.QuestionID, SelectedAnswers: r.SelectedAnswers}
	}
	return out
}
