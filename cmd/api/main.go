package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mood-diary-api/internal/core/auth"
	"mood-diary-api/internal/core/cache"
	"mood-diary-api/internal/core/config"
	"mood-diary-api/internal/core/database"
	"mood-diary-api/internal/core/logger"
	"mood-diary-api/internal/core/server"
	"mood-diary-api/internal/feature/chat"
	"mood-diary-api/internal/feature/diary"
	"mood-diary-api/internal/feature/user"
	"mood-diary-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(&user.UserModel{}, &diary.EntryModel{}); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	chatc := chat.NewClient(chat.Options{
		BaseURL:      cfg.Chat.BaseURL,
		APIKey:       cfg.Chat.APIKey,
		Model:        cfg.Chat.Model,
		SystemPrompt: cfg.Chat.SystemPrompt,
		Temperature:  cfg.Chat.Temperature,
		MaxTokens:    cfg.Chat.MaxTokens,
		MaxRetries:   cfg.Chat.MaxRetries,
		Timeout:      time.Duration(cfg.Chat.TimeoutSec) * time.Second,
	}, log)

	// redis 配了就用分布式间隔闸 + 用户资料缓存，没配退回进程内闸
	var guard chat.Guard
	var users *cache.Cache
	minGap := time.Duration(cfg.Chat.MinIntervalSec) * time.Second
	if cfg.Redis.Addr != "" {
		users = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		guard = &cache.IntervalGuard{C: users, Prefix: "chatgap:", Interval: minGap}
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		guard = chat.NewLocalGuard(minGap)
	}

	r := router.NewAPIEngine(log, db, jwter, chatc, guard, users)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("diary api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("diary api start FAILED", zap.Error(err))
		}
	}()
	log.Info("diary api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("diary api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
