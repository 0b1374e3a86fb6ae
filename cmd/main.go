package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"keybot/keyhub/internal/config"
	"keybot/keyhub/internal/handler"
	"keybot/keyhub/internal/keyformat"
	"keybot/keyhub/internal/model"
	"keybot/keyhub/internal/repository"
	"keybot/keyhub/internal/service"
	jwtpkg "keybot/keyhub/pkg/jwt"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 3. Initialize inventory store (SQL or in-memory)
	var uow repository.UnitOfWorkFactory
	switch cfg.Store.Backend {
	case "sql":
		db, err := config.NewDB(cfg.Database)
		if err != nil {
			logger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
		}
		if cfg.Database.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
		uow = repository.NewSQLUnitOfWorkFactory(db)
		logger.Info("using SQL inventory store", zap.String("driver", cfg.Database.Driver))
	case "memory":
		uow = repository.NewMemoryUnitOfWorkFactory(repository.NewMemoryDB())
		logger.Warn("using in-memory inventory store, keys are lost on restart")
	default:
		logger.Fatal("unknown store backend", zap.String("backend", cfg.Store.Backend))
	}

	// 4. Initialize replay store (Redis or in-memory)
	var replayStore repository.ReplayStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		replayStore = repository.NewRedisReplayStore(redisClient)
		logger.Info("using Redis replay store")
	case "memory":
		replayStore = repository.NewMemoryReplayStore()
		logger.Info("using in-memory replay store")
	default:
		logger.Fatal("unknown state backend", zap.String("backend", cfg.State.Backend))
	}

	// 5. Build key classifier, configured rules first
	classifier, err := newClassifier(cfg.KeyFormat)
	if err != nil {
		logger.Fatal("invalid key_format rules", zap.Error(err))
	}

	// 6. Initialize JWT manager
	jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)

	// 7. Initialize services
	keyService := service.NewKeyService(uow, classifier)
	guildService := service.NewGuildService(uow)
	cooldown := service.NewCooldownPolicy(cfg.Claim.WaitPeriod())
	claimService := service.NewClaimService(uow, cooldown, service.NewRandomSelection(nil), nil)
	logger.Info("claim cooldown configured", zap.Duration("wait_period", cooldown.Wait()))

	// 8. Initialize handlers
	keyHandler := handler.NewKeyHandler(keyService)
	guildHandler := handler.NewGuildHandler(guildService, keyService)
	claimHandler := handler.NewClaimHandler(claimService)

	// 9. Setup router
	router := handler.SetupRouter(cfg, logger, jwtManager, replayStore, keyHandler, guildHandler, claimHandler)

	// 10. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 11. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}
	logger.Info("server exited gracefully")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

func newClassifier(cfg config.KeyFormatConfig) (*keyformat.Classifier, error) {
	rules := make([]keyformat.Rule, 0, len(cfg.Rules)+len(keyformat.DefaultRules))
	for _, r := range cfg.Rules {
		platform, err := model.ParsePlatform(r.Platform)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Pattern, err)
		}
		rules = append(rules, keyformat.Rule{Platform: platform, Pattern: r.Pattern})
	}
	rules = append(rules, keyformat.DefaultRules...)
	return keyformat.NewClassifier(rules...)
}
