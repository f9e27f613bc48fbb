package main

import (
	"context"
	"ctchen222/tictactoe-timetravel/internal/api/auth"
	"ctchen222/tictactoe-timetravel/internal/api/controller"
	apirepository "ctchen222/tictactoe-timetravel/internal/api/repository"
	"ctchen222/tictactoe-timetravel/internal/api/service"
	"ctchen222/tictactoe-timetravel/internal/config"
	"ctchen222/tictactoe-timetravel/internal/db"
	"ctchen222/tictactoe-timetravel/internal/events"
	"ctchen222/tictactoe-timetravel/internal/logger"
	"ctchen222/tictactoe-timetravel/internal/repository"
	"ctchen222/tictactoe-timetravel/internal/server"
	"ctchen222/tictactoe-timetravel/internal/session"
	"ctchen222/tictactoe-timetravel/internal/telemetry"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	ctx := context.Background()

	// Initialize telemetry before the logger so the otel handler finds the LoggerProvider
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()
	logger.Init(cfg.LogLevel)

	metrics, err := telemetry.NewGameMetrics(otel.Meter("tictactoe"))
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	// Initialize SQLite DB
	DB, err := db.Connect(ctx, cfg.SQLite.Path)
	if err != nil {
		log.Fatalf("failed to get sqlite db connection: %v", err)
	}
	defer DB.Close()
	if err := db.InitializeDB(ctx, DB); err != nil {
		log.Fatalf("failed to initialize sqlite db: %v", err)
	}

	// Session storage and event bus
	var (
		sessionRepo repository.SessionRepository
		bus         events.Bus
	)
	switch cfg.Store {
	case config.StoreRedis:
		rdb, err := db.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Fatalf("failed to initialize redis: %v", err)
		}
		defer rdb.Close()
		sessionRepo = repository.NewRedisSessionRepository(rdb, cfg.Session.TTL)
		bus = events.NewRedisBus(rdb)
	case config.StoreMemory:
		sessionRepo = repository.NewMemorySessionRepository(cfg.Session.TTL)
		bus = events.NewLocalBus()
	}
	slog.InfoContext(ctx, "Session store ready", "store", cfg.Store, "ttl", cfg.Session.TTL)

	// Create services
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userService := service.NewUserService(apirepository.NewUserRepository(DB), tokens)
	sessionService := session.NewService(sessionRepo, bus, metrics)

	// Create controllers
	userController := controller.NewUserController(userService)
	sessionController := controller.NewSessionController(sessionService)

	// Create the Gin-based server
	gin.SetMode(gin.ReleaseMode)
	srv := server.NewServer(sessionService, bus, tokens, userController, sessionController)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http server started", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("Server exiting")
}
