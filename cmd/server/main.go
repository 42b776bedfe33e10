package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/murmur-chat/murmur/internal/api"
	"github.com/murmur-chat/murmur/internal/config"
	"github.com/murmur-chat/murmur/internal/database"
	"github.com/murmur-chat/murmur/internal/hub"
	"github.com/murmur-chat/murmur/internal/presence"
	"github.com/murmur-chat/murmur/internal/stats"
)

const shutdownTimeout = 10 * time.Second

type stringSliceFlag []string

func (f *stringSliceFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *stringSliceFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func main() {
	logger := log.New(os.Stdout, "murmur: ", log.LstdFlags)

	// a missing .env file is fine; the environment may be set elsewhere
	godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("failed to load config: %s", err)
	}

	var origins stringSliceFlag
	addr := flag.String("addr", "", "listen address")
	dsn := flag.String("database-dsn", "", "postgres connection string")
	redisAddr := flag.String("redis-addr", "", "redis address")
	flag.Var(&origins, "allowed-origin", "allowed CORS origin, repeatable")
	flag.Parse()

	if *addr != "" {
		cfg.ServerAddr = *addr
	}
	if *dsn != "" {
		cfg.DatabaseDSN = *dsn
	}
	if *redisAddr != "" {
		cfg.RedisAddr = *redisAddr
	}
	if len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %s", err)
	}

	repo, err := database.NewPgRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("failed to connect to database: %s", err)
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		logger.Fatalf("failed to run migrations: %s", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatalf("failed to connect to redis: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := presence.NewTracker(logger, presence.NewRedisMarkerStore(redisClient))
	go tracker.Run(ctx)

	sp := stats.NewStatsUpdater()
	eventHub := hub.New(logger, sp)

	app := api.NewApp(logger, repo, eventHub, tracker, sp, cfg)
	server := api.NewServer(cfg, app)

	go func() {
		logger.Printf("listening on %s", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %s", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Print("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %s", err)
	}
}
