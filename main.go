package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Tharoon321/go-events-api/config"
	"github.com/Tharoon321/go-events-api/controllers"
	"github.com/Tharoon321/go-events-api/middleware"
	"github.com/Tharoon321/go-events-api/publisher"
	"github.com/Tharoon321/go-events-api/routes"
	"github.com/Tharoon321/go-events-api/store"
	"github.com/Tharoon321/go-events-api/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if len(os.Args) > 1 {
		if err := runCommand(cfg, os.Args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	eventStore, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	pub, closePub := openPublisher(ctx, cfg, logger)
	defer closePub()

	router := routes.New(routes.Options{
		Logger:        logger,
		Events:        controllers.NewEventController(eventStore, pub, logger),
		Authenticator: newAuthenticator(cfg),
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logger.Info("Server started", zap.String("address", "http://localhost"+srv.Addr), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// runCommand handles the operator subcommands.
func runCommand(cfg *config.Config, args []string) error {
	switch args[0] {
	case "token":
		if len(args) < 2 {
			return errors.New("usage: token <subject> [role]")
		}
		role := ""
		if len(args) > 2 {
			role = args[2]
		}
		token, err := utils.GenerateJWT(cfg.Auth.JWTSecret, args[1], role, cfg.Auth.JWTTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
	case "hash-key":
		if len(args) < 2 {
			return errors.New("usage: hash-key <key>")
		}
		hash, err := utils.HashKey(args[1])
		if err != nil {
			return fmt.Errorf("hash key: %w", err)
		}
		fmt.Println(hash)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func newAuthenticator(cfg *config.Config) middleware.Authenticator {
	if cfg.Auth.Mode == "jwt" {
		return middleware.JWTAuthenticator{Secret: cfg.Auth.JWTSecret, Role: cfg.Auth.JWTRole}
	}
	return middleware.APIKeyAuthenticator{Key: cfg.Auth.APIKey, Hash: cfg.Auth.APIKeyHash}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "mongo":
		client, db, err := config.ConnectMongo(ctx, cfg.Store.MongoURI, cfg.Store.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to MongoDB", zap.String("db", cfg.Store.MongoDB))
		return store.NewMongoStore(db, cfg.Store.MongoCollection), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		s := store.NewFileStore(cfg.Store.DataFile)
		if err := s.Init(); err != nil {
			return nil, nil, err
		}
		logger.Info("Using data file", zap.String("path", s.Path()))
		return s, func() {}, nil
	}
}

func openPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (publisher.Publisher, func()) {
	if cfg.Redis.URL == "" {
		return publisher.Nop{}, func() {}
	}
	client, err := publisher.DialRedis(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn("Redis unavailable, change notifications disabled", zap.Error(err))
		return publisher.Nop{}, func() {}
	}
	logger.Info("Publishing changes to Redis", zap.String("channel", cfg.Redis.Channel))
	return publisher.NewRedisPublisher(client, cfg.Redis.Channel), func() { client.Close() }
}

func initLogger(level string) *zap.Logger {
	var logLevel zapcore.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = zap.InfoLevel
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(logLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return logger
}
