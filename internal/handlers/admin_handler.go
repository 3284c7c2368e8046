package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/services"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	BaseHandler
	profiles      services.ProfileService
	importExport  services.ImportExportService
	notifications services.NotificationService
	admins        services.AdminService
}

func NewAdminHandler(serviceManager services.ServiceManager, validator *validator.Validator, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:   NewBaseHandler(logger, validator),
		profiles:      serviceManager.Profile(),
		importExport:  serviceManager.ImportExport(),
		notifications: serviceManager.Notification(),
		admins:        serviceManager.Admin(),
	}
}

// ===== STUDENTS =====

// ListStudents returns every student profile
// @Summary List students
// @Tags admin
// @Produce json
// @Success 200 {array} models.StudentProfile
// @Router /admin/students [get]
func (h *AdminHandler) ListStudents(c *gin.Context) {
	students, err := h.profiles.GetStudents(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, students)
}

// GetStudent returns one student profile
// @Summary Get student
// @Tags admin
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} models.StudentProfile
// @Failure 404 {object} ErrorResponse
// @Router /admin/students/{id} [get]
func (h *AdminHandler) GetStudent(c *gin.Context) {
	student, err := h.profiles.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// CreateStudent registers a student
// @Summary Create student
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.StudentCreateRequest true "Student"
// @Success 201 {object} models.StudentProfile
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Name already used in this grade"
// @Router /admin/students [post]
func (h *AdminHandler) CreateStudent(c *gin.Context) {
	var req models.StudentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating student", "grade", req.Grade)

	student, err := h.profiles.CreateStudent(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}

// UpdateStudent applies a partial update
// @Summary Update student
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param request body models.StudentUpdateRequest true "Fields to change"
// @Success 200 {object} models.StudentProfile
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/students/{id} [put]
func (h *AdminHandler) UpdateStudent(c *gin.Context) {
	id := c.Param("id")

	var req models.StudentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating student", "student_id", id)

	student, err := h.profiles.UpdateStudent(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// DeleteStudent removes a student
// @Summary Delete student
// @Tags admin
// @Param id path string true "Student ID"
// @Success 204
// @Router /admin/students/{id} [delete]
func (h *AdminHandler) DeleteStudent(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting student", "student_id", id)

	if err := h.profiles.DeleteStudent(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleBlock flips a student's block flag. A blocked student who is online is
// logged out by their session.
// @Summary Block or unblock student
// @Tags admin
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} models.StudentProfile
// @Failure 404 {object} ErrorResponse
// @Router /admin/students/{id}/block [post]
func (h *AdminHandler) ToggleBlock(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Toggling student block", "student_id", id)

	student, err := h.profiles.ToggleStudentBlockStatus(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// ImportStudentsCSV imports "name,grade,password" lines from the request body
// @Summary Bulk import students from text
// @Tags admin
// @Accept plain
// @Produce json
// @Success 200 {object} models.ImportResult
// @Router /admin/students/import [post]
func (h *AdminHandler) ImportStudentsCSV(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Importing students from text", "bytes", len(body))

	result, err := h.profiles.BulkImportStudents(c.Request.Context(), string(body))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ImportStudentsXLSX imports students from the first sheet of an uploaded workbook
// @Summary Bulk import students from a workbook
// @Tags admin
// @Accept mpfd
// @Produce json
// @Param file formData file true "Workbook"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /admin/students/import/xlsx [post]
func (h *AdminHandler) ImportStudentsXLSX(c *gin.Context) {
	h.importWorkbook(c, "Importing students from workbook", h.importExport.ImportStudentsXLSX)
}

// ImportQuestionsXLSX upserts quiz questions from an uploaded workbook
// @Summary Import quiz questions
// @Tags admin
// @Accept mpfd
// @Produce json
// @Param file formData file true "Workbook"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /admin/questions/import/xlsx [post]
func (h *AdminHandler) ImportQuestionsXLSX(c *gin.Context) {
	h.importWorkbook(c, "Importing questions from workbook", h.importExport.ImportQuestionsXLSX)
}

func (h *AdminHandler) importWorkbook(c *gin.Context, msg string, importFn func(context.Context, io.Reader) (*models.ImportResult, error)) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Workbook file is required",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.handleServiceError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	h.LogRequest(c, msg, "filename", fileHeader.Filename, "size", fileHeader.Size)

	result, err := importFn(c.Request.Context(), file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportStudentsXLSX downloads every student as a workbook
// @Summary Export students
// @Tags admin
// @Produce octet-stream
// @Success 200 {file} file
// @Router /admin/students/export/xlsx [get]
func (h *AdminHandler) ExportStudentsXLSX(c *gin.Context) {
	h.LogRequest(c, "Exporting students")

	var buf bytes.Buffer
	if err := h.importExport.ExportStudentsXLSX(c.Request.Context(), &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("students_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ===== CHAT SESSIONS =====

// ListSessions returns saved transcripts, optionally for one student
// @Summary List chat sessions
// @Tags admin
// @Produce json
// @Param student_id query string false "Only this student's sessions"
// @Success 200 {array} models.ChatSession
// @Router /admin/sessions [get]
func (h *AdminHandler) ListSessions(c *gin.Context) {
	var (
		sessions []*models.ChatSession
		err      error
	)
	if studentID := c.Query("student_id"); studentID != "" {
		sessions, err = h.profiles.GetStudentSessions(c.Request.Context(), studentID)
	} else {
		sessions, err = h.profiles.GetAllSessions(c.Request.Context())
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// GetSession returns one transcript
// @Summary Get chat session
// @Tags admin
// @Produce json
// @Param id path string true "Chat session ID"
// @Success 200 {object} models.ChatSession
// @Failure 404 {object} ErrorResponse
// @Router /admin/sessions/{id} [get]
func (h *AdminHandler) GetSession(c *gin.Context) {
	chat, err := h.profiles.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, chat)
}

// DeleteSession removes one transcript
// @Summary Delete chat session
// @Tags admin
// @Param id path string true "Chat session ID"
// @Success 204
// @Router /admin/sessions/{id} [delete]
func (h *AdminHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting chat session", "chat_id", id)

	if err := h.profiles.DeleteSession(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== NOTIFICATIONS =====

// ListNotifications returns every notification
// @Summary List notifications
// @Tags admin
// @Produce json
// @Success 200 {array} models.Notification
// @Router /admin/notifications [get]
func (h *AdminHandler) ListNotifications(c *gin.Context) {
	items, err := h.notifications.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// CreateNotification sends a broadcast or targeted notification
// @Summary Create notification
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.NotificationCreateRequest true "Notification"
// @Success 201 {object} models.Notification
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Target student not found"
// @Router /admin/notifications [post]
func (h *AdminHandler) CreateNotification(c *gin.Context) {
	var req models.NotificationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating notification", "targeted", req.TargetStudentID != nil)

	notification, err := h.notifications.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, notification)
}

// DeleteNotification removes a notification
// @Summary Delete notification
// @Tags admin
// @Param id path string true "Notification ID"
// @Success 204
// @Router /admin/notifications/{id} [delete]
func (h *AdminHandler) DeleteNotification(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting notification", "notification_id", id)

	if err := h.notifications.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== BACKUP =====

// Backup downloads students and chat sessions as JSON
// @Summary Download backup
// @Tags admin
// @Produce json
// @Success 200 {object} services.Backup
// @Router /admin/backup [get]
func (h *AdminHandler) Backup(c *gin.Context) {
	h.LogRequest(c, "Exporting backup")

	data, err := h.profiles.ExportDatabase(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("backup_%s.json", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", data)
}

// Restore replaces students and sessions from a backup. Collections missing from the
// file are left alone.
// @Summary Restore backup
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse "Malformed backup"
// @Router /admin/restore [post]
func (h *AdminHandler) Restore(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Restoring backup", "bytes", len(body))

	ok, err := h.profiles.RestoreDatabase(c.Request.Context(), body)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !ok {
		h.handleServiceError(c, services.ErrInvalidBackup)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Backup restored"})
}

// ===== ADMINS =====

// ListAdmins returns the admin accounts
// @Summary List admins
// @Tags admin
// @Produce json
// @Success 200 {array} models.AdminAccount
// @Router /admin/admins [get]
func (h *AdminHandler) ListAdmins(c *gin.Context) {
	admins, err := h.admins.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, admins)
}
