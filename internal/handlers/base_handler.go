package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutor-service/internal/llm"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/tutor-service/internal/services"
	"github.com/SAP-F-2025/tutor-service/internal/session"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

type (
	ErrorResponse   = models.ErrorResponse
	SuccessResponse = models.SuccessResponse
)

// BaseHandler carries what every handler shares
type BaseHandler struct {
	logger    utils.Logger
	validator *validator.Validator
}

func NewBaseHandler(logger utils.Logger, validator *validator.Validator) BaseHandler {
	return BaseHandler{logger: logger, validator: validator}
}

// LogRequest logs an incoming request with the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

// bindAndValidate binds the JSON body into req and runs struct validation. It writes
// the error response and returns false on failure.
func (h *BaseHandler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	if h.validator == nil {
		return true
	}
	if err := h.validator.Validate(req); err != nil {
		h.handleServiceError(c, err)
		return false
	}
	return true
}

// currentSession returns the session resolved by the auth middleware
func (h *BaseHandler) currentSession(c *gin.Context) (*session.Session, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return nil, false
	}
	return v.(*session.Session), true
}

type statusRule struct {
	target  error
	status  int
	message string
}

// Most specific first. A blank message means the error text is shown.
var statusRules = []statusRule{
	{services.ErrValidationFailed, http.StatusBadRequest, ""},
	{services.ErrInvalidWorkbook, http.StatusBadRequest, ""},
	{services.ErrInvalidBackup, http.StatusBadRequest, ""},
	{session.ErrPasswordRequired, http.StatusBadRequest, ""},
	{session.ErrPasswordMismatch, http.StatusBadRequest, ""},
	{session.ErrAvatarRequired, http.StatusBadRequest, ""},
	{session.ErrUnknownSignal, http.StatusBadRequest, ""},

	{session.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{session.ErrSessionInvalid, http.StatusUnauthorized, ""},

	{services.ErrAccountBlocked, http.StatusForbidden, "Account is blocked"},
	{services.ErrStudentOnly, http.StatusForbidden, ""},
	{session.ErrForbidden, http.StatusForbidden, ""},
	{casdoor.ErrNotAdmin, http.StatusForbidden, ""},

	{services.ErrStudentNotFound, http.StatusNotFound, "Student not found"},
	{services.ErrSessionNotFound, http.StatusNotFound, ""},
	{services.ErrNotificationNotFound, http.StatusNotFound, ""},
	{services.ErrItemNotFound, http.StatusNotFound, ""},
	{services.ErrUnknownSubject, http.StatusNotFound, ""},
	{services.ErrNotFound, http.StatusNotFound, "Resource not found"},

	{services.ErrDuplicateStudent, http.StatusConflict, ""},
	{services.ErrItemAlreadyOwned, http.StatusConflict, ""},
	{services.ErrItemNotOwned, http.StatusConflict, ""},
	{services.ErrNoActiveQuiz, http.StatusConflict, ""},
	{services.ErrAlreadyAnswered, http.StatusConflict, ""},
	{services.ErrNotAnswered, http.StatusConflict, ""},
	{services.ErrScoreUpdatePending, http.StatusConflict, ""},
	{services.ErrQuizFinished, http.StatusConflict, ""},
	{services.ErrNoActiveChat, http.StatusConflict, ""},
	{services.ErrChatEnded, http.StatusConflict, ""},
	{session.ErrInvalidTransition, http.StatusConflict, ""},

	{services.ErrInsufficientPoints, http.StatusUnprocessableEntity, ""},
	{services.ErrNegativeScore, http.StatusUnprocessableEntity, ""},

	{services.ErrScoreUpdateFailed, http.StatusBadGateway, "Could not save your points, please try again"},
	{services.ErrTutorUnavailable, http.StatusBadGateway, "The tutor is unavailable right now, please try again"},
	{llm.ErrNotConfigured, http.StatusServiceUnavailable, "The tutor is not configured"},
	{session.ErrSSOUnavailable, http.StatusServiceUnavailable, ""},
}

// handleServiceError maps service errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs,
		})
		return
	}

	for _, rule := range statusRules {
		if !errors.Is(err, rule.target) {
			continue
		}
		message := rule.message
		if message == "" {
			message = err.Error()
		}
		if rule.status >= http.StatusInternalServerError {
			utils.GetLogger(c, h.logger).Error("Upstream failure", "error", err)
		}
		c.JSON(rule.status, ErrorResponse{Message: message})
		return
	}

	utils.GetLogger(c, h.logger).Error("Unhandled service error", "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error, please try again",
	})
}
