package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stemsi/quizhub-backend/internal/codec"
	"github.com/stemsi/quizhub-backend/internal/middleware"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/scoring"
	"github.com/stemsi/quizhub-backend/internal/service"
)

// failWithError maps a domain error to the response envelope.
func failWithError(c *gin.Context, err error) {
	var formatErr *codec.FormatError
	var validationErr *codec.ValidationError

	switch {
	case errors.As(err, &formatErr):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrInvalidFormat, formatErr.Error())
	case errors.As(err, &validationErr):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{validationErr.Field: validationErr.Reason})
	case errors.Is(err, codec.ErrUnsupportedFormat):
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFormat)
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrQuizNotPublished):
		response.Fail(c, http.StatusNotFound, response.ErrQuizNotAvailable)
	case errors.Is(err, service.ErrNotQuizCreator):
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizCreator)
	case errors.Is(err, service.ErrNotAttemptOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotAttemptOwner)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	case errors.Is(err, service.ErrAttemptCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
	case errors.Is(err, service.ErrDuplicateOrderNum):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateOrderNum)
	case errors.Is(err, scoring.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// paramUUID parses a path parameter, writing INVALID_ID on failure.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user, writing TOKEN_REQUIRED when absent.
func currentUser(c *gin.Context) (*model.User, bool) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}
	return user, true
}
