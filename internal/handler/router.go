package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gapt-portal/gapt-api/internal/middleware"
	"github.com/gapt-portal/gapt-api/internal/models"
	"github.com/gapt-portal/gapt-api/internal/service"
)

// Handlers bundles every route handler for registration.
type Handlers struct {
	Auth          *AuthHandler
	Permissions   *PermissionHandler
	Identities    *IdentityHandler
	Approvals     *ApprovalHandler
	Users         *UserHandler
	Students      *StudentHandler
	Marks         *MarkHandler
	Notifications *NotificationHandler
	System        *SystemHandler
}

// RegisterRoutes mounts the API surface. Every authenticated route is
// additionally gated by the access matrix where a feature governs it.
func RegisterRoutes(r *gin.RouterGroup, h Handlers, auth *service.AuthService, permissions *service.PermissionService) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/reveal-petition", h.Auth.RevealPetition)
		authGroup.GET("/me", middleware.JWT(auth), h.Auth.Me)
	}

	protected := r.Group("")
	protected.Use(middleware.JWT(auth))

	permGroup := protected.Group("/permissions")
	{
		permGroup.GET("", h.Permissions.Matrix)
		permGroup.GET("/resolve", h.Permissions.Resolve)
		permGroup.PUT("",
			middleware.RequireFeature(permissions, models.FeatureAccessMatrix),
			h.Permissions.SetLevel)
	}

	idGroup := protected.Group("/identities",
		middleware.RequireFeature(permissions, models.FeatureIdentityCreator))
	{
		idGroup.POST("/propose", h.Identities.Propose)
		idGroup.POST("", h.Identities.Create)
		idGroup.POST("/bulk", h.Identities.CreateBulk)
	}

	approvalGroup := protected.Group("/approvals")
	{
		onboarding := approvalGroup.Group("/onboarding",
			middleware.RequireFeature(permissions, models.FeatureAccessRequests))
		onboarding.GET("", h.Approvals.ListOnboarding)
		onboarding.POST("/:id", h.Approvals.DecideOnboarding)

		curriculum := approvalGroup.Group("/curriculum")
		curriculum.POST("", middleware.RequireRoles(models.RoleHOD), h.Approvals.RequestUnlock)
		curriculum.GET("", h.Approvals.ListUnlocks)
		curriculum.POST("/:id",
			middleware.RequireRoles(models.RoleAdmin, models.RoleDean),
			h.Approvals.DecideUnlock)

		attendance := approvalGroup.Group("/attendance")
		attendance.POST("", h.Approvals.RequestAttendance)
		attendance.GET("",
			middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleHOD),
			h.Approvals.ListAttendance)
		attendance.POST("/:id",
			middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleHOD),
			h.Approvals.DecideAttendance)

		reveal := approvalGroup.Group("/reveal")
		reveal.POST("", h.Approvals.RequestReveal)
		reveal.GET("", middleware.RequireRoles(models.RoleAdmin), h.Approvals.ListReveals)
		reveal.GET("/me", h.Approvals.ShowCredential)
		reveal.POST("/me", h.Approvals.ResetCredential)
		reveal.POST("/:id", middleware.RequireRoles(models.RoleAdmin), h.Approvals.DecideReveal)
	}

	protected.GET("/curriculum/status", h.Approvals.CurriculumStatus)

	userGroup := protected.Group("/users",
		middleware.RequireFeature(permissions, models.FeatureUserDirectory))
	{
		userGroup.GET("", h.Users.List)
		userGroup.GET("/export", h.Users.Export)
		userGroup.GET("/:id", h.Users.Get)
		userGroup.PUT("/:id", h.Users.Update)
		userGroup.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.Users.Delete)
		userGroup.POST("/mentors",
			middleware.RequireFeature(permissions, models.FeatureMentorAssignment),
			h.Users.AssignMentors)
	}

	studentGroup := protected.Group("/students")
	{
		analytics := studentGroup.Group("",
			middleware.RequireFeature(permissions, models.FeatureAcademicAnalytics))
		analytics.GET("/:id/academic", h.Students.Academic)
		analytics.GET("/:id/sgpa", h.Students.SGPA)
		analytics.GET("/:id/trajectory", h.Students.Trajectory)
		analytics.GET("/:id/breakdown", h.Students.Breakdown)
		analytics.GET("/:id/gradecard", h.Students.GradeCard)

		studentGroup.POST("/:id/advisory",
			middleware.RequireFeature(permissions, models.FeatureGreenInsights),
			h.Students.Advisory)
	}

	markGroup := protected.Group("/marks",
		middleware.RequireFeature(permissions, models.FeatureMarkEntry))
	{
		markGroup.GET("/batches", h.Marks.ListBatches)
		markGroup.POST("/batches", h.Marks.CreateBatch)
		markGroup.PUT("/batches/:id", h.Marks.SetBatchStatus)
		markGroup.GET("/batches/:id/records", h.Marks.ListBatchRecords)
		markGroup.POST("", h.Marks.EnterMark)
	}

	protected.POST("/attendance",
		middleware.RequireFeature(permissions, models.FeatureAttendanceTracking),
		h.Marks.MarkAttendance)

	notifGroup := protected.Group("/notifications")
	{
		notifGroup.GET("", h.Notifications.List)
		notifGroup.POST("/:id/read", h.Notifications.MarkRead)
		notifGroup.DELETE("", h.Notifications.Clear)
	}

	protected.POST("/system/purge",
		middleware.RequireRoles(models.RoleAdmin),
		h.System.Purge)
}
