package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pollbox/config"
	"pollbox/internal/handler"
	"pollbox/internal/middleware"
	"pollbox/internal/redis"
	"pollbox/internal/services"
	"pollbox/internal/websocket"
	"pollbox/pkg/database"
	"pollbox/pkg/logger"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Limiter *redis.RateLimiter
	Hub     *websocket.Hub

	Auth       *services.AuthService
	Admin      *services.AdminService
	Questions  *services.QuestionService
	Votes      *services.VoteService
	Results    *services.ResultsService
	PollStatus *services.PollStatusService
}

type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

func New(deps Deps) *Server {
	if deps.Config.AppMode == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.LoggingMiddleware(deps.Logger))
	engine.Use(middleware.ErrorHandler(deps.Logger))
	engine.Use(middleware.CORSMiddleware(deps.Config.CORSOrigin))

	registerRoutes(engine, deps)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", deps.Config.AppPort),
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		logger: deps.Logger,
	}
}

func registerRoutes(engine *gin.Engine, deps Deps) {
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Admin, deps.Votes)
	questionHandler := handler.NewQuestionHandler(deps.Questions, deps.Config)
	voteHandler := handler.NewVoteHandler(deps.Votes)
	resultsHandler := handler.NewResultsHandler(deps.Results, deps.Admin)
	pollStatusHandler := handler.NewPollStatusHandler(deps.PollStatus)
	adminQuestionHandler := handler.NewAdminQuestionHandler(deps.Questions, deps.Config)
	adminHandler := handler.NewAdminHandler(deps.Admin)

	engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")

	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(deps.Limiter))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", middleware.AuthMiddleware(deps.Auth), authHandler.Logout)
	auth.GET("/me", middleware.AuthMiddleware(deps.Auth), authHandler.Me)

	v1.GET("/questions", questionHandler.List)
	v1.GET("/questions/:id", questionHandler.Detail)

	v1.GET("/results", middleware.OptionalAuthMiddleware(deps.Auth), resultsHandler.Summary)
	v1.GET("/results/live", websocket.Handler(deps.Hub, deps.Logger))

	v1.GET("/poll-status", pollStatusHandler.Get)

	votes := v1.Group("/votes")
	votes.Use(middleware.AuthMiddleware(deps.Auth))
	votes.POST("", middleware.VoteRateLimitMiddleware(deps.Limiter), voteHandler.Submit)
	votes.GET("/mine", voteHandler.Mine)

	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(deps.Auth), middleware.AdminMiddleware(deps.Admin))
	admin.GET("/questions", adminQuestionHandler.List)
	admin.POST("/questions", adminQuestionHandler.Create)
	admin.GET("/questions/:id", adminQuestionHandler.Detail)
	admin.PUT("/questions/:id", adminQuestionHandler.Update)
	admin.DELETE("/questions/:id", adminQuestionHandler.Delete)
	admin.GET("/stats", adminHandler.Stats)
	admin.POST("/poll/close", pollStatusHandler.Close)
	admin.POST("/poll/reopen", pollStatusHandler.Reopen)

	roster := admin.Group("/admins")
	roster.Use(middleware.MainAdminMiddleware(deps.Admin))
	roster.GET("", adminHandler.ListAdmins)
	roster.POST("/grant", adminHandler.GrantAdmin)
	roster.POST("/revoke", adminHandler.RevokeAdmin)
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Infof("listening on %s", s.httpServer.Addr)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
