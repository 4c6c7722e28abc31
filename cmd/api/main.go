package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"pollbox/config"
	"pollbox/internal/redis"
	"pollbox/internal/repository"
	"pollbox/internal/server"
	"pollbox/internal/services"
	"pollbox/internal/websocket"
	"pollbox/pkg/database"
	"pollbox/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)

	database.Connect(cfg)
	if err := database.Migrate(); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	var (
		limiter  *redis.RateLimiter
		notifier services.ResultsNotifier = hub
	)
	if cfg.RedisEnabled {
		client := redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		limiter = redis.NewRateLimiter(client, redis.DefaultRateLimitConfig())

		bridge := websocket.NewRedisBridge(
			redis.NewResultsPublisher(client),
			redis.NewResultsSubscriber(client),
			hub,
			l,
		)
		go bridge.Run(ctx)
		notifier = bridge
	}

	repos := repository.NewRepositories(database.DB)

	pollStatusService := services.NewPollStatusService(repos.PollStatus())
	voteService := services.NewVoteService(repos.Votes(), pollStatusService, notifier, l)
	questionService := services.NewQuestionService(repos.Questions(), notifier)
	resultsService := services.NewResultsService(repos.Questions())
	authService := services.NewAuthService(repos.Users(), cfg)
	adminService := services.NewAdminService(repos.Users(), repos.Questions(), repos.Votes(), cfg.MainAdminEmail)

	srv := server.New(server.Deps{
		Config:     cfg,
		Logger:     l,
		Limiter:    limiter,
		Hub:        hub,
		Auth:       authService,
		Admin:      adminService,
		Questions:  questionService,
		Votes:      voteService,
		Results:    resultsService,
		PollStatus: pollStatusService,
	})

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
