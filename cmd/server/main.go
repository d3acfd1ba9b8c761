package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"voxchat/internal/config"
	"voxchat/internal/delivery"
	"voxchat/internal/domain"
	"voxchat/internal/httpserver"
	"voxchat/internal/logging"
	"voxchat/internal/notify"
	"voxchat/internal/presence"
	"voxchat/internal/security"
	"voxchat/internal/service"
	"voxchat/internal/store/postgres"
	"voxchat/internal/store/sqlite"
	"voxchat/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Stores
	var (
		db     *sql.DB
		users  domain.UserRepository
		msgs   domain.MessageRepository
		groups domain.GroupRepository
	)
	switch cfg.DBDriver {
	case "postgres":
		db, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("open database", zap.Error(err))
		}
		if err := postgres.Migrate(db); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
		users = postgres.NewUserRepo(db)
		msgs = postgres.NewMessageRepo(db)
		groups = postgres.NewGroupRepo(db)
	default:
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("open database", zap.Error(err))
		}
		if err := sqlite.Migrate(db); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
		users = sqlite.NewUserRepo(db)
		msgs = sqlite.NewMessageRepo(db)
		groups = sqlite.NewGroupRepo(db)
	}
	defer db.Close()

	// Presence and OTP storage share one Redis client when configured;
	// without Redis both fall back to in-process stores.
	otpTTL := time.Duration(cfg.OTPTTLSeconds) * time.Second
	var (
		presenceStore presence.Store
		otpStore      security.OTPStore
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		presenceStore = presence.NewRedisStore(rdb)
		otpStore = security.NewRedisOTPStore(rdb, otpTTL)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-process presence and otp stores")
		presenceStore = presence.NewMemoryStore()
		otpStore = security.NewMemoryOTPStore(otpTTL)
	}

	// OTP dispatch goes through NATS when configured, the log otherwise.
	var dispatcher notify.Dispatcher
	if cfg.NATSURL != "" {
		natsDispatcher, err := notify.NewNATSDispatcher(cfg.NATSURL, logger)
		if err != nil {
			logger.Fatal("connect nats", zap.Error(err))
		}
		defer natsDispatcher.Close()
		dispatcher = natsDispatcher
	} else {
		logger.Warn("NATS_URL not set, otp codes go to the log")
		dispatcher = notify.NewLogDispatcher(logger)
	}

	// Security components
	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	passwordHasher := security.NewPasswordHasher(0)

	// Realtime core
	metrics := ws.NewMetrics(nil)
	hub := ws.NewHub(presenceStore, metrics, logger)
	router := delivery.NewRouter(msgs, groups, hub, logger)
	wsHandler := ws.MakeHandler(hub, metrics, tokenSvc, users, router, cfg.CORSOrigins, logger)

	// Services
	authSvc := service.NewAuthService(users, tokenSvc, passwordHasher, otpStore, dispatcher, cfg.OTPLength)
	userSvc := service.NewUserService(users, presenceStore)
	groupSvc := service.NewGroupService(groups, users)
	msgSvc := service.NewMessageService(msgs, groups, cfg.HistoryPageSize)

	handler := httpserver.NewRouter(cfg, httpserver.Deps{
		Users:     users,
		Tokens:    tokenSvc,
		AuthSvc:   authSvc,
		UserSvc:   userSvc,
		GroupSvc:  groupSvc,
		MsgSvc:    msgSvc,
		WSHandler: wsHandler,
		Log:       logger,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("addr", cfg.HTTPAddr()),
			zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
