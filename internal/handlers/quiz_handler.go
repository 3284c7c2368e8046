package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/services"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

type QuizHandler struct {
	BaseHandler
	service services.QuizService
}

func NewQuizHandler(service services.QuizService, validator *validator.Validator, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger, validator),
		service:     service,
	}
}

// ListSubjects returns every subject with questions
// @Summary List quiz subjects
// @Tags quiz
// @Produce json
// @Success 200 {array} string
// @Router /quiz/subjects [get]
func (h *QuizHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.Subjects(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, subjects)
}

// StartQuiz starts a shuffled run over one subject
// @Summary Start a quiz
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body models.QuizStartRequest true "Subject"
// @Success 200 {object} models.QuizQuestionView
// @Failure 404 {object} ErrorResponse "Unknown subject"
// @Router /quiz/start [post]
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req models.QuizStartRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	h.LogRequest(c, "Starting quiz", "subject", req.Subject)

	view, err := h.service.Start(c.Request.Context(), sess, req.Subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CurrentQuestion returns the question being shown
// @Summary Current quiz question
// @Tags quiz
// @Produce json
// @Success 200 {object} models.QuizQuestionView
// @Failure 409 {object} ErrorResponse "No quiz in progress"
// @Router /quiz/current [get]
func (h *QuizHandler) CurrentQuestion(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	view, err := h.service.Current(sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitAnswer answers the current question
// @Summary Answer the current question
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body models.QuizAnswerRequest true "Selected option"
// @Success 200 {object} models.AnswerResult
// @Failure 409 {object} ErrorResponse "Already answered"
// @Failure 502 {object} ErrorResponse "Points could not be saved"
// @Router /quiz/answer [post]
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req models.QuizAnswerRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	result, err := h.service.Answer(c.Request.Context(), sess, *req.Option)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// NextQuestion advances to the next question
// @Summary Next question
// @Tags quiz
// @Produce json
// @Success 200 {object} models.QuizQuestionView
// @Failure 409 {object} ErrorResponse
// @Router /quiz/next [post]
func (h *QuizHandler) NextQuestion(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	view, err := h.service.Next(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ExitQuiz leaves the quiz and returns to the dashboard
// @Summary Exit quiz
// @Tags quiz
// @Produce json
// @Success 200 {object} models.StudentSessionResponse
// @Router /quiz/exit [post]
func (h *QuizHandler) ExitQuiz(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exiting quiz")

	if err := h.service.Exit(c.Request.Context(), sess); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.Response())
}
