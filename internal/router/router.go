package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/handler"
	"github.com/stemsi/submission-portal/internal/middleware"
	"github.com/stemsi/submission-portal/internal/response"
	"github.com/stemsi/submission-portal/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Session    *handler.SessionHandler
	Question   *handler.QuestionHandler
	Setting    *handler.SettingHandler
	Submission *handler.SubmissionHandler
}

// questionsMaxAge is how long clients may cache the public question list.
const questionsMaxAge = 60

// SetupRouter configures all Gin route groups with appropriate middlewares.
// startLimiter throttles session creation and the attempt probe per client IP;
// nil disables it.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	startLimiter *middleware.RateLimiter,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// Restricted to AllowedOrigins when set, open otherwise.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	throttle := func(c *gin.Context) { c.Next() }
	if startLimiter != nil {
		throttle = startLimiter.Middleware()
	}

	// ─── 0. Public Group ───────────────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/settings", handlers.Setting.GetPublicSettings)
	}

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(throttle)
	{
		auth.POST("/admin/login", handlers.Auth.AdminLogin)
	}

	// ─── 2. Session Group (candidate workflow) ─────────────────────────
	sessionAPI := router.Group("/api/v1/session")
	sessionAPI.Use(middleware.NoStore())
	{
		sessionAPI.POST("/start", throttle, handlers.Session.StartSession)
		sessionAPI.GET("/check", throttle, handlers.Session.CheckAttemptStatus)
		sessionAPI.GET("/:sessionId", handlers.Session.GetSession)
		sessionAPI.PUT("/:sessionId/progress", handlers.Session.SaveProgress)
		sessionAPI.POST("/:sessionId/submit", handlers.Session.SubmitExam)
		sessionAPI.POST("/:sessionId/fail-assessment", handlers.Session.MarkAssessmentFailed)
	}

	// ─── 3. Assessment ─────────────────────────────────────────────────
	router.GET("/api/v1/questions", middleware.CacheControl(questionsMaxAge), handlers.Question.ListQuestions)
	router.POST("/api/v1/assessment/check", middleware.NoStore(), handlers.Question.CheckAssessment)

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.NoStore())
	{
		settingsGroup := adminAPI.Group("/settings")
		{
			settingsGroup.GET("", handlers.Setting.GetAllSettings)
			settingsGroup.PUT("", handlers.Setting.UpdateSettings)
		}

		adminAPI.PUT("/questions", handlers.Question.ReplaceQuestions)
		adminAPI.GET("/submissions/:id", handlers.Submission.GetSubmission)
	}

	return router
}
