package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/skillmatrix-api/internal/middleware"
	"github.com/noah-isme/skillmatrix-api/internal/models"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Auth        *AuthHandler
	Employees   *EmployeeHandler
	Skills      *SkillHandler
	Training    *TrainingHandler
	Assignments *AssignmentHandler
	Imports     *ImportHandler
	Compliance  *ComplianceHandler
	Exports     *ExportHandler
	Dashboard   *DashboardHandler
	Users       *UserHandler
	Metrics     *MetricsHandler
}

// RouteDeps carries the middleware dependencies of the protected routes.
type RouteDeps struct {
	Tokens middleware.TokenValidator
	Audit  middleware.AuditWriter
	Logger *zap.Logger
}

// Register mounts the API under prefix. Role checks here mirror the ones the
// services enforce on the actor.
func Register(r gin.IRouter, prefix string, h Handlers, deps RouteDeps) {
	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	secured.GET("/auth/me", h.Auth.Me)
	secured.GET("/dashboard", h.Dashboard.Stats)
	secured.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), h.Metrics.Snapshot)

	employees := secured.Group("/employees")
	employees.GET("", h.Employees.List)
	employees.GET("/departments", h.Employees.Departments)
	employees.GET("/:number", h.Employees.Profile)
	employees.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleHR), h.Employees.Create)
	employees.PUT("/:number", middleware.RequireRoles(models.RoleAdmin, models.RoleHR), h.Employees.Update)
	employees.POST("/:number/notes", middleware.RequireRoles(models.RoleAdmin, models.RoleHR, models.RoleTrainer), h.Employees.AddNote)

	skills := secured.Group("/skills")
	skills.GET("", h.Skills.List)
	skills.GET("/projects", h.Skills.Projects)
	skills.GET("/:code", h.Skills.Get)
	skills.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleDCC), h.Skills.Create)
	skills.POST("/:code/revisions", middleware.RequireRoles(models.RoleAdmin, models.RoleDCC), h.Skills.PublishRevision)

	training := secured.Group("/training")
	training.POST("/validate", middleware.RequireRoles(models.RoleTrainer), h.Training.Validate)
	training.GET("/employees/:id", h.Training.History)

	assignments := secured.Group("/assignments")
	assignments.GET("", h.Assignments.List)
	owners := middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer)
	assignments.POST("", owners, h.Assignments.Create)
	assignments.PATCH("/:id/status", owners, h.Assignments.UpdateStatus)
	assignments.POST("/:id/remind", owners, h.Assignments.Remind)

	imports := secured.Group("/imports")
	imports.POST("/employees", middleware.RequireRoles(models.RoleAdmin, models.RoleHR), h.Imports.Employees)
	imports.POST("/skills", middleware.RequireRoles(models.RoleAdmin, models.RoleDCC), h.Imports.Skills)
	imports.GET("/history", middleware.RequireRoles(models.RoleAdmin, models.RoleHR, models.RoleDCC), h.Users.Uploads)

	secured.GET("/compliance/action-needed", h.Compliance.ActionNeeded)
	secured.GET("/matrix", h.Exports.Matrix)

	exports := secured.Group("/exports")
	exports.GET("/matrix.csv", middleware.Audit(deps.Audit, deps.Logger, models.AuditActionExport, "skill_matrix"), h.Exports.MatrixCSV)
	exports.GET("/employees/:number/training.csv", middleware.Audit(deps.Audit, deps.Logger, models.AuditActionExport, "training_history"), h.Exports.TrainingHistory)
	exports.GET("/employees/:number/qualification-card.pdf", middleware.Audit(deps.Audit, deps.Logger, models.AuditActionExport, "qualification_card"), h.Exports.QualificationCard)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/users", h.Users.List)
	admin.POST("/users", h.Users.Create)
	admin.GET("/audit-logs", h.Users.AuditLogs)
}
