package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	echoapi "github.com/miracoleplus/bridge/api/echo"
	"github.com/miracoleplus/bridge/cache"
	redisstore "github.com/miracoleplus/bridge/cache/redis"
	"github.com/miracoleplus/bridge/config"
	"github.com/miracoleplus/bridge/internal/crypto"
	"github.com/miracoleplus/bridge/internal/server"
	"github.com/miracoleplus/bridge/internal/wordpress"
	"github.com/miracoleplus/bridge/mongodb"
	"github.com/miracoleplus/bridge/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg)

	// Signing keys are a hard startup requirement: a service that cannot
	// verify tokens must not come up half-working.
	keys, err := crypto.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load JWT signing keys")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongodb.CloseMongoDB(shutdownCtx)
	}()
	db := mongodb.GetDB()

	counters, closeCounters := buildCounterStore(ctx, cfg)
	defer closeCounters()

	tokens, err := services.NewTokenService(keys,
		time.Duration(cfg.AccessTokenLifetime)*time.Second,
		time.Duration(cfg.RefreshTokenLifetime)*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token service")
	}

	gateway := wordpress.NewClient(cfg.WordPressBaseURL, cfg.WordPressAPIKey,
		time.Duration(cfg.UpstreamTimeout)*time.Second)

	ledger := services.NewRefreshTokenLedger(mongodb.NewRefreshTokenRepository(db), tokens)
	guard := services.NewLoginGuard(counters, cfg.LoginMaxAttempts,
		time.Duration(cfg.LoginLockWindow)*time.Second)
	authService := services.NewAuthService(gateway, mongodb.NewUserRepository(db), tokens, ledger, guard)
	deviceService := services.NewDeviceLinkService(mongodb.NewDeviceLinkRepository(db),
		cfg.DeviceCodeLength, time.Duration(cfg.DeviceCodeTTL)*time.Second)

	authAPI := echoapi.NewAuthAPI(authService, deviceService, tokens, counters,
		cfg.DeviceCodesPerHour, mongodb.Ping)

	e := server.NewHTTPServer(authAPI)

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("HTTP server listening")
		if err := e.Start(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("server stopped")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// buildCounterStore returns the counter store backing the login guard and
// rate caps. With Redis configured the redis store is primary and the memory
// store only takes over on errors; without Redis lockout is per-instance.
func buildCounterStore(ctx context.Context, cfg *config.Config) (cache.CounterStore, func()) {
	memory := cache.NewMemoryCounterStore()

	if cfg.RedisAddr == "" {
		log.Warn().Msg("no REDIS_ADDR configured, login lockout and rate caps are per-instance")
		return memory, func() { _ = memory.Close() }
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable at startup, falling back until it recovers")
	}

	store := cache.NewFallbackCounterStore(redisstore.NewCounterStore(client, "bridge"), memory)

	return store, func() {
		_ = memory.Close()
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}
}
