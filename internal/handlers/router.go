package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/services"
	"github.com/SAP-F-2025/tutor-service/internal/session"
	"github.com/SAP-F-2025/tutor-service/internal/utils"
	"github.com/SAP-F-2025/tutor-service/internal/validator"
)

type HandlerManager struct {
	authHandler    *AuthHandler
	studentHandler *StudentHandler
	quizHandler    *QuizHandler
	storeHandler   *StoreHandler
	chatHandler    *ChatHandler
	adminHandler   *AdminHandler
	wsHandler      *WSHandler
	authMiddleware *SessionAuthMiddleware
	serviceManager services.ServiceManager
	sessions       *session.Manager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	sessions *session.Manager,
	validator *validator.Validator,
	logger utils.Logger,
	allowedOrigins []string,
) *HandlerManager {
	return &HandlerManager{
		authHandler:    NewAuthHandler(sessions, validator, logger),
		studentHandler: NewStudentHandler(serviceManager.Notification(), logger),
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), validator, logger),
		storeHandler:   NewStoreHandler(serviceManager.Store(), validator, logger),
		chatHandler:    NewChatHandler(serviceManager.Chat(), validator, logger),
		adminHandler:   NewAdminHandler(serviceManager, validator, logger),
		wsHandler:      NewWSHandler(sessions, allowedOrigins, logger),
		authMiddleware: NewSessionAuthMiddleware(sessions),
		serviceManager: serviceManager,
		sessions:       sessions,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Login routes - no session yet
	login := v1.Group("/auth")
	{
		login.POST("/students/login", hm.authHandler.StudentLogin)
		login.POST("/admins/login", hm.authHandler.AdminLogin)
		login.POST("/admins/casdoor", hm.authHandler.CasdoorLogin)
	}

	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Session routes - any role, including profile setup
		auth := authed.Group("/auth")
		{
			auth.POST("/profile-setup", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.authHandler.CompleteProfileSetup)
			auth.GET("/session", hm.authHandler.GetSession)
			auth.POST("/activity", hm.authHandler.Activity)
			auth.POST("/logout", hm.authHandler.Logout)
			auth.POST("/view", hm.authMiddleware.RequireSetupCompleteMiddleware(), hm.authHandler.ChangeView)
		}

		authed.GET("/ws", hm.wsHandler.Connect)

		// Student routes - Students with a completed profile only
		student := authed.Group("")
		student.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.authMiddleware.RequireSetupCompleteMiddleware())
		{
			students := student.Group("/students")
			{
				students.GET("/me", hm.studentHandler.GetMe)
				students.GET("/me/avatars", hm.studentHandler.GetAvatars)
			}

			quiz := student.Group("/quiz")
			{
				quiz.GET("/subjects", hm.quizHandler.ListSubjects)
				quiz.POST("/start", hm.quizHandler.StartQuiz)
				quiz.GET("/current", hm.quizHandler.CurrentQuestion)
				quiz.POST("/answer", hm.quizHandler.SubmitAnswer)
				quiz.POST("/next", hm.quizHandler.NextQuestion)
				quiz.POST("/exit", hm.quizHandler.ExitQuiz)
			}

			store := student.Group("/store")
			{
				store.GET("/catalog", hm.storeHandler.GetCatalog)
				store.POST("/purchase", hm.storeHandler.Purchase)
				store.POST("/equip", hm.storeHandler.Equip)
			}

			chat := student.Group("/chat")
			{
				chat.POST("/sessions", hm.chatHandler.StartChat)
				chat.GET("/sessions/current", hm.chatHandler.CurrentChat)
				chat.POST("/messages", hm.chatHandler.SendMessage)
			}

			notifications := student.Group("/notifications")
			{
				notifications.GET("", hm.studentHandler.ListNotifications)
				notifications.POST("/:id/read", hm.studentHandler.MarkNotificationRead)
			}
		}

		// Admin routes - Admins only
		admin := authed.Group("/admin")
		admin.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			students := admin.Group("/students")
			{
				students.GET("", hm.adminHandler.ListStudents)
				students.POST("", hm.adminHandler.CreateStudent)
				students.POST("/import", hm.adminHandler.ImportStudentsCSV)
				students.POST("/import/xlsx", hm.adminHandler.ImportStudentsXLSX)
				students.GET("/export/xlsx", hm.adminHandler.ExportStudentsXLSX)
				students.GET("/:id", hm.adminHandler.GetStudent)
				students.PUT("/:id", hm.adminHandler.UpdateStudent)
				students.DELETE("/:id", hm.adminHandler.DeleteStudent)
				students.POST("/:id/block", hm.adminHandler.ToggleBlock)
			}

			sessions := admin.Group("/sessions")
			{
				sessions.GET("", hm.adminHandler.ListSessions)
				sessions.GET("/:id", hm.adminHandler.GetSession)
				sessions.DELETE("/:id", hm.adminHandler.DeleteSession)
			}

			notifications := admin.Group("/notifications")
			{
				notifications.GET("", hm.adminHandler.ListNotifications)
				notifications.POST("", hm.adminHandler.CreateNotification)
				notifications.DELETE("/:id", hm.adminHandler.DeleteNotification)
			}

			admin.GET("/backup", hm.adminHandler.Backup)
			admin.POST("/restore", hm.adminHandler.Restore)
			admin.POST("/questions/import/xlsx", hm.adminHandler.ImportQuestionsXLSX)
			admin.GET("/admins", hm.adminHandler.ListAdmins)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "tutor-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":          "healthy",
			"service":         "tutor-service",
			"active_sessions": hm.sessions.ActiveCount(),
		})
	})
}
