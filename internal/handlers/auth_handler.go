package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/session"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

type AuthHandler struct {
	BaseHandler
	manager *session.Manager
}

func NewAuthHandler(manager *session.Manager, validator *validator.Validator, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger, validator),
		manager:     manager,
	}
}

// StudentLogin logs a student in by name and grade
// @Summary Student login
// @Description Authenticates a student. A profile without a password enters profile setup.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.StudentLoginRequest true "Student credentials"
// @Success 200 {object} models.StudentSessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 403 {object} ErrorResponse "Account is blocked"
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /auth/students/login [post]
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req models.StudentLoginRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	h.LogRequest(c, "Student login", "grade", req.Grade)

	sess, err := h.manager.LoginStudent(c.Request.Context(), req.Name, req.Grade, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.Response())
}

// AdminLogin logs a local admin account in
// @Summary Admin login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.AdminLoginRequest true "Admin credentials"
// @Success 200 {object} models.StudentSessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/admins/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req models.AdminLoginRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	h.LogRequest(c, "Admin login", "username", req.Username)

	sess, err := h.manager.LoginAdmin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.Response())
}

// CasdoorLogin exchanges a Casdoor access token for an admin session
// @Summary Admin single sign-on
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CasdoorLoginRequest true "Casdoor token"
// @Success 200 {object} models.StudentSessionResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "Single sign-on not configured"
// @Router /auth/admins/casdoor [post]
func (h *AuthHandler) CasdoorLogin(c *gin.Context) {
	var req models.CasdoorLoginRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	h.LogRequest(c, "Admin single sign-on")

	sess, err := h.manager.LoginAdminWithToken(c.Request.Context(), req.Token)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.Response())
}

// CompleteProfileSetup stores the first password and avatar
// @Summary Complete profile setup
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ProfileSetupRequest true "Profile setup"
// @Success 200 {object} models.StudentSessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Setup already completed"
// @Router /auth/profile-setup [post]
func (h *AuthHandler) CompleteProfileSetup(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req models.ProfileSetupRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	h.LogRequest(c, "Completing profile setup", "student_id", sess.SubjectID())

	sess, err := h.manager.CompleteProfileSetup(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.Response())
}

// GetSession returns the current session, restoring it when needed
// @Summary Restore session
// @Tags auth
// @Produce json
// @Success 200 {object} models.StudentSessionResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/session [get]
func (h *AuthHandler) GetSession(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, sess.Response())
}

// Activity resets the inactivity timer
// @Summary Report user activity
// @Tags auth
// @Accept json
// @Param request body models.ActivityRequest true "Activity signal"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /auth/activity [post]
func (h *AuthHandler) Activity(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req models.ActivityRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	if err := h.manager.Activity(c.Request.Context(), sess, req.Signal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ChangeView navigates between dashboard screens
// @Summary Change view
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ViewChangeRequest true "Target view"
// @Success 200 {object} models.StudentSessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Transition not allowed"
// @Router /auth/view [post]
func (h *AuthHandler) ChangeView(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req models.ViewChangeRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	view, err := session.ParseView(req.View)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid view",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Changing view", "from", sess.View(), "to", view)

	if err := h.manager.SetView(c.Request.Context(), sess, view); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.Response())
}

// Logout ends the current session
// @Summary Logout
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Logging out", "role", sess.Role())

	if err := h.manager.Logout(c.Request.Context(), sess.Token()); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
