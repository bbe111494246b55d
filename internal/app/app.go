// Package app assembles stores, services and handlers into the HTTP engine.
package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/handler"
	"github.com/stemsi/submission-portal/internal/middleware"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
	"github.com/stemsi/submission-portal/internal/repository/memory"
	"github.com/stemsi/submission-portal/internal/router"
	"github.com/stemsi/submission-portal/internal/service"
)

// Stores is the persistence behind the services.
type Stores struct {
	Sessions    service.SessionStore
	Submissions service.SubmissionReader
	Questions   service.QuestionStore
	Settings    service.SettingStore
	Admins      service.AdminStore
}

// PostgresStores returns stores backed by pool.
func PostgresStores(pool *pgxpool.Pool) Stores {
	submissions := repository.NewSubmissionRepository(pool)
	return Stores{
		Sessions:    repository.NewExamSessionRepository(pool, submissions),
		Submissions: submissions,
		Questions:   repository.NewQuestionRepository(pool),
		Settings:    repository.NewSettingRepository(pool),
		Admins:      repository.NewAdminRepository(pool),
	}
}

// MemoryStores returns process-local stores seeded with the passing threshold.
func MemoryStores(passingPercentage string, admins *memory.AdminStore) Stores {
	submissions := memory.NewSubmissionStore()
	if admins == nil {
		admins = memory.NewAdminStore()
	}
	return Stores{
		Sessions:    memory.NewSessionStore(submissions),
		Submissions: submissions,
		Questions:   memory.NewQuestionStore(),
		Settings:    memory.NewSettingStore(map[string]string{model.SettingMCQPassingPercentage: passingPercentage}),
		Admins:      admins,
	}
}

// App is the assembled server.
type App struct {
	Engine   *gin.Engine
	Auth     *service.AuthService
	Sessions *service.ExamSessionService
	Settings *service.SettingService
}

// New wires services and handlers over stores. rdb may be nil. The start
// rate limiter's cleanup runs until ctx is cancelled.
func New(ctx context.Context, cfg *config.Config, stores Stores, rdb *redis.Client, log zerolog.Logger) *App {
	authService := service.NewAuthService(cfg, stores.Admins)
	settingService := service.NewSettingService(stores.Settings, rdb, cfg.SettingsCacheTTL, log)
	sessionService := service.NewExamSessionService(stores.Sessions, settingService, cfg.DefaultPassingPercentage, log)
	questionService := service.NewQuestionService(stores.Questions, log)
	scoringService := service.NewScoringService(stores.Questions, settingService, cfg.DefaultPassingPercentage, log)
	submissionService := service.NewSubmissionService(stores.Submissions)

	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		Session:    handler.NewSessionHandler(sessionService, log),
		Question:   handler.NewQuestionHandler(questionService, scoringService, log),
		Setting:    handler.NewSettingHandler(settingService, log),
		Submission: handler.NewSubmissionHandler(submissionService, log),
	}

	limiter := middleware.NewRateLimiter(ctx, cfg.StartRateLimitPerMinute, time.Minute)

	return &App{
		Engine:   router.SetupRouter(authService, handlers, cfg, limiter),
		Auth:     authService,
		Sessions: sessionService,
		Settings: settingService,
	}
}
