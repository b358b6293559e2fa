package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/elimu-foundation/lms-service/internal/config"
	"github.com/elimu-foundation/lms-service/internal/models"
	"github.com/elimu-foundation/lms-service/internal/repositories"
	"github.com/elimu-foundation/lms-service/internal/services"
	"github.com/elimu-foundation/lms-service/internal/utils"
	"github.com/elimu-foundation/lms-service/internal/validator"
)

type HandlerManager struct {
	courseHandler       *CourseHandler
	moduleHandler       *ModuleHandler
	enrollmentHandler   *EnrollmentHandler
	gradingHandler      *GradingHandler
	contactHandler      *ContactHandler
	chatHandler         *ChatHandler
	notificationHandler *NotificationHandler
	userHandler         *UserHandler
	authMiddleware      *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		courseHandler:       NewCourseHandler(serviceManager.Course(), validator, logger),
		moduleHandler:       NewModuleHandler(serviceManager.Module(), serviceManager.ImportExport(), validator, logger),
		enrollmentHandler:   NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		gradingHandler:      NewGradingHandler(serviceManager.Grading(), validator, logger),
		contactHandler:      NewContactHandler(serviceManager.Contact(), logger),
		chatHandler:         NewChatHandler(serviceManager.Chat(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		authMiddleware:      authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Public endpoints: contact form does not require a login
	public := router.Group("/api/v1")
	{
		public.POST("/contact", hm.contactHandler.SubmitContact)
	}

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		instructorOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor)
		adminOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)

		// Course routes
		courses := v1.Group("/courses")
		{
			// Authoring - Instructors and Admins only
			courses.POST("", instructorOnly, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", instructorOnly, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", instructorOnly, hm.courseHandler.DeleteCourse)
			courses.PUT("/:id/status", instructorOnly, hm.courseHandler.UpdateCourseStatus)
			courses.POST("/:id/publish", instructorOnly, hm.courseHandler.PublishCourse)
			courses.POST("/:id/archive", instructorOnly, hm.courseHandler.ArchiveCourse)
			courses.GET("/:id/stats", instructorOnly, hm.courseHandler.GetCourseStats)
			courses.GET("/creator/:creator_id", instructorOnly, hm.courseHandler.GetCoursesByCreator)

			// Catalog - all authenticated users (drafts are filtered per role)
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.GET("/:id/details", hm.courseHandler.GetCourseWithModules)

			// Module management within a course
			courses.POST("/:id/modules", instructorOnly, hm.moduleHandler.CreateModule)
			courses.GET("/:id/modules", hm.moduleHandler.GetCourseModules)
			courses.PUT("/:id/modules/reorder", instructorOnly, hm.moduleHandler.ReorderModules)

			// Enrollment and progress
			courses.POST("/:id/enroll", hm.enrollmentHandler.Enroll)
			courses.DELETE("/:id/enroll", hm.enrollmentHandler.Withdraw)
			courses.GET("/:id/enrollments", instructorOnly, hm.enrollmentHandler.GetCourseEnrollments)
			courses.GET("/:id/progress", hm.enrollmentHandler.GetCourseProgress)
			courses.GET("/:id/progress/modules", hm.enrollmentHandler.GetModuleProgress)

			// Auto-marked submission
			courses.POST("/:id/modules/:module_id/submit", hm.gradingHandler.SubmitAssessment)

			// Course chat room
			courses.POST("/:id/chat", hm.chatHandler.PostMessage)
			courses.GET("/:id/chat", hm.chatHandler.GetHistory)
		}

		// Module routes
		modules := v1.Group("/modules")
		{
			modules.GET("/:id", hm.moduleHandler.GetModule)
			modules.GET("/:id/details", hm.moduleHandler.GetModuleWithQuestions)
			modules.PUT("/:id", instructorOnly, hm.moduleHandler.UpdateModule)
			modules.DELETE("/:id", instructorOnly, hm.moduleHandler.DeleteModule)

			// Question management
			modules.POST("/:id/questions", instructorOnly, hm.moduleHandler.AddQuestion)
			modules.GET("/:id/questions", instructorOnly, hm.moduleHandler.GetQuestions)
			modules.POST("/:id/questions/import", instructorOnly, hm.moduleHandler.ImportQuestions)
			modules.GET("/:id/questions/export", instructorOnly, hm.moduleHandler.ExportQuestions)

			// Stored grading outcome
			modules.GET("/:id/result", hm.gradingHandler.GetResult)
		}

		// Question routes
		questions := v1.Group("/questions")
		questions.Use(instructorOnly)
		{
			questions.PUT("/:question_id", hm.moduleHandler.UpdateQuestion)
			questions.DELETE("/:question_id", hm.moduleHandler.RemoveQuestion)
		}

		// Enrollment routes
		enrollments := v1.Group("/enrollments")
		{
			enrollments.GET("/me", hm.enrollmentHandler.GetMyEnrollments)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", hm.notificationHandler.GetMyNotifications)
			notifications.POST("/:id/read", hm.notificationHandler.MarkRead)
			notifications.POST("/read-all", hm.notificationHandler.MarkAllRead)
		}

		// Contact administration - Admins only
		contact := v1.Group("/contact")
		contact.Use(adminOnly)
		{
			contact.GET("", hm.contactHandler.ListContacts)
			contact.GET("/:id", hm.contactHandler.GetContact)
			contact.POST("/:id/resolve", hm.contactHandler.ResolveContact)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetMe)
			users.GET("", instructorOnly, hm.userHandler.ListUsers)
			users.GET("/:id", instructorOnly, hm.userHandler.GetUser)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "lms-service",
		})
	})
}
