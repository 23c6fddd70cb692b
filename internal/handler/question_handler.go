package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/service"
	"github.com/stemsi/quizhub-backend/internal/validator"
)

// QuestionHandler handles question management endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ListQuestions godoc
// GET /api/v1/manage/quizzes/:id/questions
// Lists all questions for a quiz.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	questions, err := h.questionService.List(c.Request.Context(), quizID, user.ID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AddQuestion godoc
// POST /api/v1/manage/quizzes/:id/questions
// Adds a question to a quiz. Without order_num it is appended.
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Add(c.Request.Context(), quizID, user.ID, req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ReplaceQuestions godoc
// PUT /api/v1/manage/quizzes/:id/questions
// Replaces the whole question set of a quiz.
func (h *QuestionHandler) ReplaceQuestions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.ReplaceAll(c.Request.Context(), quizID, user.ID, req.Questions)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// UpdateQuestion godoc
// PUT /api/v1/manage/quizzes/:id/questions/:question_id
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	questionID, ok := paramUUID(c, "question_id")
	if !ok {
		return
	}

	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), quizID, questionID, user.ID, req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// DeleteQuestion godoc
// DELETE /api/v1/manage/quizzes/:id/questions/:question_id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	questionID, ok := paramUUID(c, "question_id")
	if !ok {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), quizID, questionID, user.ID); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Question deleted"})
}
