package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Member_Registry/internal/config"
	"Member_Registry/internal/handler"
	"Member_Registry/internal/middleware"
	"Member_Registry/internal/pkg"
	"Member_Registry/internal/repository/redis"
	"Member_Registry/internal/repository/sqlstore"
	"Member_Registry/internal/router"
	"Member_Registry/internal/service"

	"gorm.io/gorm"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	tokens := pkg.NewTokenManager(cfg.JWTSecret)

	var (
		db       *gorm.DB
		audit    *service.AuditLogger
		closers  []func()
		handlers = &router.Handlers{}
	)

	if cfg.DatabaseConfigured() {
		var err error
		db, err = sqlstore.Open(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connect failed", "driver", cfg.DBDriver, "error", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = sqlstore.Migrate(ctx, db)
		cancel()
		if err != nil {
			slog.Error("database migrate failed", "error", err)
			os.Exit(1)
		}

		// 审计事件可选投递到 Kafka
		var pub service.AuditPublisher
		if len(cfg.AuditKafkaBrokers) > 0 {
			producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.AuditKafkaBrokers, Topic: cfg.AuditKafkaTopic})
			pub = producer
			closers = append(closers, func() { _ = producer.Close() })
			slog.Info("audit kafka enabled", "topic", producer.Topic())
		}
		audit = service.NewAuditLogger(db, pub)

		memberOpts := memberOptions(cfg, &closers)
		wireHandlers(handlers, db, audit, memberOpts)

		if cfg.ReconcileSchedule != "" {
			c, err := service.NewCountReconciler(db).Schedule(cfg.ReconcileSchedule)
			if err != nil {
				slog.Error("invalid reconcile schedule", "schedule", cfg.ReconcileSchedule, "error", err)
				os.Exit(1)
			}
			c.Start()
			closers = append(closers, func() { <-c.Stop().Done() })
		}
	} else {
		slog.Warn("LOCAL_DB_URL or JWT_SECRET missing, serving setup endpoints only")
	}

	auth := service.NewAuthService(db, tokens, audit)
	handlers.Auth = handler.NewAuthHandler(auth, cfg.CookieSecure, int(tokens.TTL().Seconds()))
	var stats *service.StatsService
	if db != nil {
		stats = service.NewStatsService(db)
	}
	handlers.System = handler.NewSystemHandler(service.NewHealthService(db, cfg.DatabaseConfigured()), stats, audit)

	r := router.InitRouter(handlers, router.Options{
		Tokens:  tokens,
		Users:   auth,
		Metrics: middleware.NewMetrics(),
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	audit.Wait()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// memberOptions Redis 和 CNP 加密都是可选的
func memberOptions(cfg *config.Config, closers *[]func()) []service.MemberOption {
	var opts []service.MemberOption
	if cfg.RedisAddr != "" {
		rdb, err := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, list cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			opts = append(opts, service.WithListCache(redis.NewListCache(rdb), &redis.DistLock{RDB: rdb}))
			*closers = append(*closers, func() { _ = rdb.Close() })
		}
	}
	if cfg.EncryptionSalt != "" {
		cipher, err := pkg.NewFieldCipher(cfg.JWTSecret, cfg.EncryptionSalt)
		if err != nil {
			slog.Error("field cipher init failed", "error", err)
			os.Exit(1)
		}
		opts = append(opts, service.WithFieldCipher(cipher))
	}
	return opts
}

func wireHandlers(h *router.Handlers, db *gorm.DB, audit *service.AuditLogger, memberOpts []service.MemberOption) {
	h.Member = handler.NewMemberHandler(service.NewMemberService(db, audit, memberOpts...))
	h.Payment = handler.NewPaymentHandler(service.NewPaymentService(db, audit))
	h.Activity = handler.NewActivityHandler(service.NewActivityService(db, audit))
	h.Dictionary = handler.NewDictionaryHandler(
		service.NewActivityTypeService(db, audit),
		service.NewUnitService(db, audit),
		service.NewValueListService(db, audit),
	)
	h.Group = handler.NewGroupHandler(service.NewGroupService(db, audit))
	h.Admin = handler.NewAdminHandler(service.NewAdminService(db, audit))
	h.Analytics = handler.NewAnalyticsHandler(service.NewAnalyticsService(db))
}
