package server

import (
	"log/slog"
	"net/http"

	"buildops/internal/config"
	"buildops/internal/handlers"
	"buildops/internal/middleware"
	"buildops/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionName = "buildops_session"

func NewRouter(cfg *config.Config, h *handlers.Handler, db *gorm.DB, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   12 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.Use(middleware.InjectUser(db))

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// AUTH
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	auth.GET("/me", h.Me)

	editors := middleware.RequireRole(models.RoleAdmin, models.RoleManager)
	field := middleware.RequireRole(models.RoleAdmin, models.RoleManager, models.RoleForeman)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// КОМПАНИИ
	auth.GET("/companies", h.ListCompanies)
	auth.POST("/companies", editors, h.CreateCompany)

	// ПРОЕКТЫ
	auth.GET("/projects", h.ListProjects)
	auth.POST("/projects", editors, h.CreateProject)
	auth.GET("/projects/:id", h.GetProject)
	auth.POST("/projects/:id/status", field, h.ChangeProjectStatus)
	auth.POST("/projects/:id/progress", field, h.UpdateProgress)
	auth.DELETE("/projects/:id", adminOnly, h.DeleteProject)
	auth.GET("/projects/:id/history", h.ProjectHistory)

	// задачи
	auth.GET("/projects/:id/tasks", h.ListTasks)
	auth.POST("/projects/:id/tasks", field, h.CreateTask)
	auth.POST("/projects/:id/tasks/:task_id/status", field, h.ChangeTaskStatus)

	// журналы проекта
	auth.POST("/projects/:id/expenses", editors, h.CreateExpense)
	auth.POST("/projects/:id/cost-entries", editors, h.CreateCostEntry)
	auth.POST("/projects/:id/change-orders", editors, h.CreateChangeOrder)
	auth.POST("/projects/:id/materials", field, h.CreateMaterialUsage)
	auth.POST("/projects/:id/time-entries", field, h.CreateTimeEntry)
	auth.POST("/projects/:id/inspections", field, h.CreateInspection)
	auth.POST("/projects/:id/daily-reports", field, h.CreateDailyReport)

	// ====== АНАЛИТИКА ======
	auth.POST("/projects/:id/risk", editors, h.AnalyzeRisk)
	auth.GET("/projects/:id/risk/history", h.RiskHistory)
	auth.GET("/projects/:id/cost-prediction", h.PredictCost)
	auth.POST("/projects/:id/weather/analyze", field, h.AnalyzeWeather)
	auth.POST("/projects/:id/weather/apply", field, h.ApplyWeatherAdjustment)
	auth.GET("/projects/:id/weather/adjustments", h.ListWeatherAdjustments)

	// КАТАЛОГ РАБОТ
	auth.GET("/activities", h.ListActivities)
	auth.POST("/activities", adminOnly, h.CreateActivity)
	auth.PUT("/activities/:id", adminOnly, h.UpdateActivity)

	// АУДИТ
	auth.GET("/audit",
		middleware.RequireRole(models.RoleAdmin, models.RoleViewer),
		h.ListAuditLogs,
	)

	return r
}
