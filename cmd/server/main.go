package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's stock middleware
	"go.uber.org/zap"

	"github.com/iliyamo/food-journal-api/internal/config"
	"github.com/iliyamo/food-journal-api/internal/database"
	"github.com/iliyamo/food-journal-api/internal/handler"
	"github.com/iliyamo/food-journal-api/internal/logger"
	"github.com/iliyamo/food-journal-api/internal/middleware"
	"github.com/iliyamo/food-journal-api/internal/queue"
	"github.com/iliyamo/food-journal-api/internal/repository"
	"github.com/iliyamo/food-journal-api/internal/router"
	"github.com/iliyamo/food-journal-api/internal/scheduler"
	"github.com/iliyamo/food-journal-api/internal/service"
	"github.com/iliyamo/food-journal-api/internal/utils"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logger.New(cfg.LogLevel, cfg.Env)
	defer func() { _ = log.Sync() }()

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 5*time.Second)
	db, err := database.Open(openCtx, cfg)
	cancelOpen()
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("database migration failed", zap.Error(err))
		}
	}

	codec, err := utils.NewTokenCodec(&cfg)
	if err != nil {
		log.Fatal("token codec setup failed", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	postRepo := repository.NewPostReviewRepo(db)

	// Core services
	registry := service.NewRevocationRegistry(tokenRepo)
	sessions := service.NewSessionValidator(registry, codec)
	accounts := service.NewAccountService(userRepo, utils.NewBcryptHasher(cfg.BcryptCost), codec, registry, cfg.AccessTTL)

	// Post activity events; the publisher stays nil when RabbitMQ is off.
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	qcfg := config.LoadQueueConfig()
	var events service.EventPublisher
	if qcfg.Enabled {
		events = queue.NewPublisher(qcfg, log)
		if qcfg.Consumer {
			go queue.NewConsumer(qcfg, log).Run(rootCtx)
		}
		log.Info("rabbitmq enabled", zap.String("queue", qcfg.Queue))
	}
	posts := service.NewPostReviewService(postRepo, events, log)

	// Response cache for the public listings.
	cacheCfg := config.LoadCacheConfig()
	rdb := config.NewRedisClient()
	if rdb == nil && cacheCfg.Enabled {
		log.Warn("redis unavailable; response cache disabled")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Blacklist pruning
	sched := scheduler.New(log)
	if err := sched.Register(scheduler.BlacklistCleanupTask(registry, cfg.RevocationCutoff(), cfg.CleanupInterval, log)); err != nil {
		log.Fatal("scheduler setup failed", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = utils.RequestValidator{}
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	authHandler := handler.NewAuthHandler(accounts, log, cfg.RequestTimeout)
	postHandler := handler.NewPostReviewHandler(posts, log, cfg.RequestTimeout)
	purgeListings := func(ctx context.Context) {
		if err := middleware.PurgeCache(ctx, rdb, cacheCfg.Prefix); err != nil {
			log.Warn("cache purge failed", zap.Error(err))
		}
	}
	authHandler.OnProfileChange = purgeListings
	postHandler.OnChange = purgeListings

	requireAuth := middleware.BearerAuth(sessions, cfg.RequestTimeout)
	api := e.Group(router.APIPrefix)
	router.RegisterRoutes(e, cfg.Env)
	router.RegisterAuth(api, authHandler, requireAuth)
	router.RegisterPostReview(api, postHandler, requireAuth, middleware.NewRedisCache(cacheCfg, rdb))

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
