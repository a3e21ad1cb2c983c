package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/hortifruti-api/internal/auth"
	"github.com/flicky/hortifruti-api/internal/cache"
	"github.com/flicky/hortifruti-api/internal/config"
	"github.com/flicky/hortifruti-api/internal/handler"
	"github.com/flicky/hortifruti-api/internal/repository"
	"github.com/flicky/hortifruti-api/internal/seed"
	"github.com/flicky/hortifruti-api/internal/service"
	"github.com/flicky/hortifruti-api/internal/storage"
	"github.com/flicky/hortifruti-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(log)
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	if err := repository.EnsureSchema(ctx, dbPool); err != nil {
		log.Error("create schema", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	categoryRepo := repository.NewCategoryRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	notificationRepo := repository.NewNotificationRepository(redisClient)

	if cfg.Seed {
		if err := seed.Run(ctx, userRepo, categoryRepo, productRepo, log); err != nil {
			log.Error("seed data", "error", err)
			os.Exit(1)
		}
	}

	// RabbitMQ
	var (
		publisher   service.EventPublisher
		orderWorker *worker.OrderWorker
		rabbitCheck handler.Pinger
	)
	if cfg.RabbitMQ.Enabled {
		amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer amqpConn.Close()

		consumeCh, err := amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer consumeCh.Close()

		if err := worker.SetupRabbitMQ(consumeCh); err != nil {
			log.Error("setup RabbitMQ", "error", err)
			os.Exit(1)
		}

		publishCh, err := amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ publish channel", "error", err)
			os.Exit(1)
		}
		defer publishCh.Close()

		publisher = worker.NewAMQPPublisher(publishCh)
		deduper := cache.NewDeduper(redisClient, worker.IdempotencyPrefix, worker.IdempotencyTTL)
		orderWorker = worker.NewOrderWorker(consumeCh, deduper, notificationRepo, productRepo, cfg.Store.LowStockThreshold, log)
		rabbitCheck = handler.PingFunc(func(context.Context) error {
			if amqpConn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		})
		log.Info("connected to RabbitMQ")
	} else {
		log.Warn("RabbitMQ disabled, order events will be dropped")
	}

	// Services
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AdminExpiration, cfg.JWT.CustomerExpiration)
	store := service.NewStoreSettings(cfg.Store)
	images := service.NewImageService(storage.NewLocalImageStore(cfg.Upload.Dir, cfg.Upload.PublicPrefix))
	productCache := cache.NewProductCache(redisClient, cfg.Redis.ProductCacheTTL)

	authSvc := service.NewAuthService(userRepo, tokens, log)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, categoryRepo, productCache, cfg.Store.LowStockThreshold)
	orderSvc := service.NewOrderService(orderRepo, productRepo, userRepo, productCache, publisher, store, log)
	notificationSvc := service.NewNotificationService(notificationRepo)

	// Router
	router := handler.NewRouter(handler.Handlers{
		Users:      handler.NewUserHandler(authSvc),
		Categories: handler.NewCategoryHandler(categorySvc, images),
		Products:   handler.NewProductHandler(productSvc, images),
		Orders:     handler.NewOrderHandler(orderSvc),
		Cart:       handler.NewCartHandler(orderSvc),
		Store:      handler.NewStoreHandler(store, notificationSvc),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": dbPool,
			"redis":    handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
			"rabbitmq": rabbitCheck,
		}),
	}, tokens, handler.StaticDir{Prefix: cfg.Upload.PublicPrefix, Root: cfg.Upload.Dir}, log)

	if orderWorker != nil {
		if err := orderWorker.Start(ctx); err != nil {
			log.Error("start order worker", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	if orderWorker != nil {
		orderWorker.Stop()
		time.Sleep(500 * time.Millisecond)
	}
	cancel()
	log.Info("server stopped")
}
