package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-learn/internal/middleware"
	"github.com/stemsi/exstem-learn/internal/model"
	"github.com/stemsi/exstem-learn/internal/response"
	"github.com/stemsi/exstem-learn/internal/service"
	"github.com/stemsi/exstem-learn/internal/validator"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	maxIdempotencyKeyLen = 64
	maxQuestionCount     = 200
)

// ExamService serves question sets and records attempts.
type ExamService interface {
	RandomQuestions(ctx context.Context, learnerID, courseID, count int) ([]model.Question, error)
	Submit(ctx context.Context, learnerID int, req model.SubmitRequest, idempotencyKey string) (*model.Attempt, bool, error)
	GetAttempt(ctx context.Context, learnerID int, id uuid.UUID) (*model.Attempt, error)
}

// ExamHandler handles learner exam endpoints.
type ExamHandler struct {
	exams ExamService
	log   zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(exams ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		exams: exams,
		log:   log.With().Str("component", "exam_handler").Logger(),
	}
}

// RandomQuestions godoc
// GET /api/v1/exam/course/:course_id/random?count=n
// Returns distinct questions drawn at random from the course bank, without
// answers. The drawn ids become the set the learner's next submit is graded on.
func (h *ExamHandler) RandomQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil || courseID <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	count := 0
	if raw := c.Query("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count <= 0 || count > maxQuestionCount {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"count": "count must be between 1 and " + strconv.Itoa(maxQuestionCount),
			})
			return
		}
	}

	questions, err := h.exams.RandomQuestions(c.Request.Context(), claims.UserID, courseID, count)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrCourseNotFound)
			return
		}
		h.log.Error().Err(err).Int("course_id", courseID).Msg("Random questions failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, questions)
}

// Submit godoc
// POST /api/v1/exam/submit
// Grades and stores an attempt. An Idempotency-Key header makes retries
// return the first attempt (200) instead of creating another (201).
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	idemKey := c.GetHeader(HeaderIdempotencyKey)
	if len(idemKey) > maxIdempotencyKeyLen {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, map[string]string{
			HeaderIdempotencyKey: "must be at most " + strconv.Itoa(maxIdempotencyKeyLen) + " characters",
		})
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, replayed, err := h.exams.Submit(c.Request.Context(), claims.UserID, req, idemKey)
	if err != nil {
		h.failSubmit(c, err, claims.UserID, req.CourseID)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	response.Success(c, status, attempt)
}

func (h *ExamHandler) failSubmit(c *gin.Context, err error, learnerID, courseID int) {
	switch {
	case errors.Is(err, service.ErrLearnerMismatch):
		response.Fail(c, http.StatusForbidden, response.ErrLearnerMismatch)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	case errors.Is(err, service.ErrNoIssuedSet):
		response.Fail(c, http.StatusConflict, response.ErrNoIssuedSet)
	case errors.Is(err, service.ErrInvalidAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAnswer)
	case errors.Is(err, service.ErrCourseNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrCourseNotFound)
	case errors.Is(err, service.ErrSubmitInProgress):
		response.Fail(c, http.StatusConflict, response.ErrSubmitInProgress)
	default:
		h.log.Error().
			Err(err).
			Int("learner_id", learnerID).
			Int("course_id", courseID).
			Str("request_id", response.RequestID(c)).
			Msg("Submit failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// GetAttempt godoc
// GET /api/v1/exam/attempts/:attempt_id
// Returns an attempt of the authenticated learner.
func (h *ExamHandler) GetAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.exams.GetAttempt(c.Request.Context(), claims.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Str("attempt_id", id.String()).Msg("Get attempt failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, attempt)
}
