package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tour-service/internal/api/http"
	"github.com/spec-kit/tour-service/internal/api/http/handlers"
	"github.com/spec-kit/tour-service/internal/auth"
	"github.com/spec-kit/tour-service/internal/cart"
	"github.com/spec-kit/tour-service/internal/config"
	"github.com/spec-kit/tour-service/internal/events"
	"github.com/spec-kit/tour-service/internal/mail"
	"github.com/spec-kit/tour-service/internal/observability"
	"github.com/spec-kit/tour-service/internal/persistence"
	"github.com/spec-kit/tour-service/internal/repository"
	"github.com/spec-kit/tour-service/internal/service"
	"github.com/spec-kit/tour-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	tourRepo := repository.NewTourRepository(pool)
	purchaseRepo := repository.NewPurchaseRepository(pool)
	ratingRepo := repository.NewRatingRepository(pool)
	problemRepo := repository.NewProblemRepository(pool)
	problemEventRepo := repository.NewProblemEventRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	mailer := mail.NewSMTPMailer(cfg.Mail, logger)
	service.NewNotificationService(mailer, logger).Register(dispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	cartStore := cart.NewRedisStore(redis.Client)
	eventStore := service.NewProblemEventStore(problemEventRepo)

	userService := service.NewUserService(service.UserDependencies{
		UserRepo:     userRepo,
		TourRepo:     tourRepo,
		PurchaseRepo: purchaseRepo,
		Tokens:       tokens,
		Dispatcher:   dispatcher,
		BcryptCost:   cfg.Auth.BcryptCost,
	})
	tourService := service.NewTourService(service.TourDependencies{
		TourRepo:     tourRepo,
		PurchaseRepo: purchaseRepo,
		RatingRepo:   ratingRepo,
		UserRepo:     userRepo,
		Cart:         cartStore,
		Dispatcher:   dispatcher,
	})
	problemService := service.NewProblemService(service.ProblemDependencies{
		ProblemRepo:  problemRepo,
		TourRepo:     tourRepo,
		PurchaseRepo: purchaseRepo,
		UserRepo:     userRepo,
		EventStore:   eventStore,
		Dispatcher:   dispatcher,
	})

	scheduler := worker.New(worker.Dependencies{
		Config:       cfg.Jobs,
		TourRepo:     tourRepo,
		PurchaseRepo: purchaseRepo,
		UserRepo:     userRepo,
		UserService:  userService,
		Mailer:       mailer,
		Logger:       logger,
	})
	if err := scheduler.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(userService),
		Tours:          handlers.NewToursHandler(tourService),
		Cart:           handlers.NewCartHandler(tourService),
		Problems:       handlers.NewProblemsHandler(problemService),
		AdminUsers:     handlers.NewAdminUsersHandler(userService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
