package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizhub-backend/internal/codec"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/service"
	"github.com/stemsi/quizhub-backend/internal/validator"
)

// multipartOverhead is the allowance for multipart headers and boundaries on top of the file limit.
const multipartOverhead = 64 << 10

// QuizHandler handles the quiz catalog and quiz authoring endpoints.
type QuizHandler struct {
	quizService     *service.QuizService
	questionService *service.QuestionService
	maxImportBytes  int64
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, questionService *service.QuestionService, maxImportBytes int64) *QuizHandler {
	return &QuizHandler{
		quizService:     quizService,
		questionService: questionService,
		maxImportBytes:  maxImportBytes,
	}
}

// ─── Catalog ─────────────────────────────────────────────────────────

// ListPublished godoc
// GET /api/v1/quizzes
// Lists published quizzes with pagination.
func (h *QuizHandler) ListPublished(c *gin.Context) {
	var q model.PageQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quizzes, pagination, err := h.quizService.ListPublished(c.Request.Context(), q.Page, q.PerPage)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"quizzes": quizzes}, pagination)
}

// GetPaper godoc
// GET /api/v1/quizzes/:id/paper
// Returns a published quiz without its correct answers.
func (h *QuizHandler) GetPaper(c *gin.Context) {
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	paper, err := h.quizService.GetPaper(c.Request.Context(), quizID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// ─── Authoring ───────────────────────────────────────────────────────

// ListMine godoc
// GET /api/v1/manage/quizzes
// Lists the caller's quizzes with pagination.
func (h *QuizHandler) ListMine(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var q model.PageQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quizzes, pagination, err := h.quizService.ListMine(c.Request.Context(), user.ID, q.Page, q.PerPage)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"quizzes": quizzes}, pagination)
}

// Create godoc
// POST /api/v1/manage/quizzes
// Creates a new unpublished quiz.
func (h *QuizHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// Get godoc
// GET /api/v1/manage/quizzes/:id
// Returns a quiz owned by the caller together with its questions.
func (h *QuizHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	quiz, err := h.quizService.GetOwned(c.Request.Context(), quizID, user.ID)
	if err != nil {
		failWithError(c, err)
		return
	}
	questions, err := h.questionService.List(c.Request.Context(), quizID, user.ID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz, "questions": questions})
}

// Update godoc
// PUT /api/v1/manage/quizzes/:id
// Updates quiz metadata. A duration of 0 removes the time limit.
func (h *QuizHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), quizID, user.ID, req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// Delete godoc
// DELETE /api/v1/manage/quizzes/:id
// Deletes a quiz with its questions and attempts.
func (h *QuizHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), quizID, user.ID); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Quiz deleted"})
}

// Publish godoc
// POST /api/v1/manage/quizzes/:id/publish
func (h *QuizHandler) Publish(c *gin.Context) {
	h.setPublished(c, true)
}

// Unpublish godoc
// POST /api/v1/manage/quizzes/:id/unpublish
func (h *QuizHandler) Unpublish(c *gin.Context) {
	h.setPublished(c, false)
}

func (h *QuizHandler) setPublished(c *gin.Context, published bool) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var (
		quiz *model.Quiz
		err  error
	)
	if published {
		quiz, err = h.quizService.Publish(c.Request.Context(), quizID, user.ID)
	} else {
		quiz, err = h.quizService.Unpublish(c.Request.Context(), quizID, user.ID)
	}
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// Duplicate godoc
// POST /api/v1/manage/quizzes/:id/duplicate
// Copies a quiz and its questions into a new unpublished quiz.
func (h *QuizHandler) Duplicate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.DuplicateQuizRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	quiz, questions, err := h.quizService.Duplicate(c.Request.Context(), quizID, user.ID, req.Title)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz, "questions": questions})
}

// ─── Interchange ─────────────────────────────────────────────────────

// Export godoc
// GET /api/v1/manage/quizzes/:id/export?format=json|markdown|yaml
// Downloads a quiz as an interchange document.
func (h *QuizHandler) Export(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	quizID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	format, err := codec.ParseFormat(c.DefaultQuery("format", string(codec.FormatJSON)))
	if err != nil {
		failWithError(c, err)
		return
	}

	data, quiz, err := h.quizService.Export(c.Request.Context(), quizID, user.ID, format)
	if err != nil {
		failWithError(c, err)
		return
	}

	filename := fmt.Sprintf("%s.%s", slugify(quiz.Title), format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}

// Import godoc
// POST /api/v1/manage/quizzes/import?format=json|markdown|yaml
// Creates a quiz from an uploaded document. Accepts a multipart "file" field
// or a raw body. The format comes from ?format= or the file extension.
func (h *QuizHandler) Import(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	data, filename, code := h.readImport(c)
	if code != "" {
		status := http.StatusBadRequest
		if code == response.ErrFileTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		response.Fail(c, status, code)
		return
	}

	format, err := importFormat(c.Query("format"), filename)
	if err != nil {
		failWithError(c, err)
		return
	}

	quiz, questions, err := h.quizService.Import(c.Request.Context(), user.ID, format, data)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz, "questions": questions})
}

// readImport returns the uploaded document and its file name, or an error code.
func (h *QuizHandler) readImport(c *gin.Context) ([]byte, string, response.ErrCode) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImportBytes+multipartOverhead)
		fh, err := c.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, "", response.ErrFileTooLarge
			}
			return nil, "", response.ErrFileRequired
		}
		if fh.Size > h.maxImportBytes {
			return nil, "", response.ErrFileTooLarge
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", response.ErrFileRequired
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, h.maxImportBytes+1))
		if err != nil {
			return nil, "", response.ErrInvalidPayload
		}
		if int64(len(data)) > h.maxImportBytes {
			return nil, "", response.ErrFileTooLarge
		}
		return data, fh.Filename, ""
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImportBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", response.ErrFileTooLarge
		}
		return nil, "", response.ErrInvalidPayload
	}
	if len(data) == 0 {
		return nil, "", response.ErrFileRequired
	}
	return data, "", ""
}

// importFormat prefers an explicit format over the file extension.
func importFormat(explicit, filename string) (codec.Format, error) {
	if explicit != "" {
		return codec.ParseFormat(explicit)
	}
	if filename != "" {
		return codec.DetectFormat(filename)
	}
	return "", codec.ErrUnsupportedFormat
}

// slugify turns a title into a safe download file name.
func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "quiz"
	}
	return s
}
