package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradercopilot/internal/config"
	cronrunner "tradercopilot/internal/cron"
	"tradercopilot/internal/db"
	"tradercopilot/internal/evaluator"
	"tradercopilot/internal/handler"
	"tradercopilot/internal/logger"
	"tradercopilot/internal/market"
	"tradercopilot/internal/mirror"
	"tradercopilot/internal/notify"
	"tradercopilot/internal/pipeline"
	gormrepository "tradercopilot/internal/repository/gorm"
	"tradercopilot/internal/scheduler"
	"tradercopilot/internal/strategy"
)

func main() {
	cfgPath := os.Getenv("TC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("TC_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	marketHTTP := &http.Client{Timeout: cfg.Market.Timeout}
	marketClient := market.NewClient(marketHTTP, cfg.Market.BaseURL)

	registry := strategy.NewRegistry()
	registry.Register(&strategy.MACross{Market: marketClient, Logger: logger})
	registry.Register(&strategy.DonchianBreakout{Market: marketClient, Logger: logger})
	registry.Register(&strategy.RSIReversal{Market: marketClient, Logger: logger})

	var notifier scheduler.Notifier
	var pushSink pipeline.Pusher
	if strings.TrimSpace(cfg.Notify.TelegramToken) != "" {
		telegram, err := notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.DefaultChatID, logger)
		if err != nil {
			logger.Warn("telegram init failed, alerts disabled", zap.Error(err))
		} else {
			notifier = telegram
			if cfg.Notify.DefaultChatID != 0 {
				pushSink = telegram
			}
		}
	}

	var mirrorSink pipeline.MirrorSink
	if cfg.Mirror.Enabled {
		mirrorSink = mirror.NewWriter(cfg.Mirror.Dir)
	}

	gateway := &pipeline.Gateway{
		Store:  store,
		Logger: logger,
		Mirror: mirrorSink,
		Push:   pushSink,
	}

	var pendingEval *evaluator.Evaluator
	if cfg.Evaluator.Enabled {
		pendingEval = evaluator.New(store, marketClient, logger)
		if cfg.Evaluator.MinAge > 0 {
			pendingEval.MinAge = cfg.Evaluator.MinAge
		}
		if cfg.Evaluator.MaxAge > 0 {
			pendingEval.MaxAge = cfg.Evaluator.MaxAge
		}
		if cfg.Evaluator.BatchSize > 0 {
			pendingEval.BatchSize = cfg.Evaluator.BatchSize
		}
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	signalHandler := &handler.SignalHandler{Repo: store}
	signalHandler.Register(engine)
	personaHandler := &handler.PersonaHandler{Repo: store, Registry: registry}
	personaHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Retention.SignalMaxAge > 0 {
		_, err := cronRunner.Add(cfg.Retention.PruneSpec, func(ctx context.Context) {
			cutoff := time.Now().UTC().Add(-cfg.Retention.SignalMaxAge)
			n, err := store.DeleteSignalsBefore(ctx, cutoff)
			if err != nil {
				logger.Warn("signal retention prune failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("pruned old signals", zap.Int64("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register retention prune failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	if cfg.Scheduler.Enabled {
		sched := &scheduler.Scheduler{
			Personas: store,
			Registry: registry,
			Exec:     scheduler.NewExecutor(logger, cfg.Scheduler.Workers, cfg.Scheduler.EvalTimeout),
			Guards:   pipeline.NewGuards(cfg.Guards.StaleAfter, cfg.Guards.RepeatWindow, cfg.Guards.CoherenceWindow),
			Throttle: pipeline.NewThrottler(cfg.Notify.Cooldown),
			Gateway:  gateway,
			Notify:   notifier,
			Lock:     scheduler.NewLockManager(store, logger, cfg.Scheduler.LockTTL),
			Logger:   logger,

			TickInterval: cfg.Scheduler.TickInterval,
			LockRetry:    cfg.Scheduler.LockRetry,
		}
		if pendingEval != nil {
			sched.Evaluator = pendingEval
		}
		go func() {
			if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("scheduler stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
