package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/yarrow/config"
	"github.com/Ramsey-B/yarrow/pkg/cache"
	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/email"
	"github.com/Ramsey-B/yarrow/pkg/events"
	"github.com/Ramsey-B/yarrow/pkg/health"
	"github.com/Ramsey-B/yarrow/pkg/kafka"
	"github.com/Ramsey-B/yarrow/pkg/notify"
	"github.com/Ramsey-B/yarrow/pkg/redis"
	"github.com/Ramsey-B/yarrow/pkg/repositories"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
	"github.com/Ramsey-B/yarrow/pkg/tracing/exporters"
)

func main() {
	root := &cobra.Command{
		Use:   "yarrow",
		Short: "Medication adherence worker",
	}
	root.AddCommand(newWorkerCmd(), newMigrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, ectologger.Logger, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(&cfg)
	if err != nil {
		return nil, nil, err
	}
	return &cfg, logger, nil
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func connectDatabase(cfg *config.Config, logger ectologger.Logger) (database.DB, error) {
	return database.Connect(database.ConnectConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
}

func runMigrations(cfg *config.Config, db database.DB, logger ectologger.Logger) error {
	driver, err := postgres.WithInstance(db.Unsafe().DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	ms := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	return ms.Migrate(cfg.DatabaseName, driver)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := connectDatabase(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return runMigrations(cfg, db, logger)
		},
	}
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the reminder worker and ops server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return runWorker(cmd.Context(), cfg, logger)
		},
	}
}

func runWorker(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName: cfg.AppName,
		OTLPEnabled: cfg.OTLPEnabled,
		OTLP: exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer shutdownTracing(context.Background()) //nolint:errcheck

	db, err := connectDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = runMigrations(cfg, db, logger); err != nil {
		return err
	}

	// Redis is optional; the drug name cache degrades to catalog reads
	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable; drug name caching disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: strings.Split(cfg.KafkaBrokers, ","),
		Topic:   cfg.KafkaAdherenceTopic,
	}, logger)
	defer producer.Close()
	emitter := events.NewEmitter(producer, logger)

	planRepo := repositories.NewPlanRepository(db, logger)
	drugRepo := repositories.NewDrugRepository(db, logger)
	completionRepo := repositories.NewCompletionRepository(db, logger)
	configRepo := repositories.NewNotificationConfigRepository(db, logger)
	userRepo := repositories.NewUserRepository(db, logger)

	drugNames := cache.NewDrugNames(redisClient, drugRepo, cfg.DrugNameCacheTTL, logger)

	if cfg.EmailSender == "" {
		return errors.New("EMAIL_SENDER is required")
	}
	sender, err := email.NewSESSender(ctx, cfg.AWSRegion, cfg.EmailSender, logger)
	if err != nil {
		return fmt.Errorf("failed to init SES sender: %w", err)
	}

	var worker *notify.Worker
	if cfg.ReminderEnabled {
		worker = notify.NewWorker(
			planRepo,
			drugNames,
			completionRepo,
			configRepo,
			userRepo,
			sender,
			emitter,
			notify.Config{
				PollInterval:  cfg.ReminderPollInterval,
				LookaheadDays: cfg.ReminderLookaheadDays,
				LookbackDays:  cfg.ReminderLookbackDays,
				ExpandWorkers: cfg.ReminderExpandWorkers,
			},
			logger,
		)
		if err = worker.Start(ctx); err != nil {
			return err
		}
	} else {
		logger.Warn("Reminder worker disabled by config")
	}

	var workerStatus health.WorkerStatus
	if worker != nil {
		workerStatus = worker
	}
	checker := health.NewChecker(db, redisClient, workerStatus, version)
	checker.SetReady(true)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	checker.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.OpsPort)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Ops server stopped")
		}
	}()

	logger.Infof("%s started", cfg.AppName)
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if worker != nil {
		if err := worker.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Worker shutdown error")
		}
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Ops server shutdown error")
	}

	logger.Info("Shutdown complete")
	return nil
}

// version is set at build time via -ldflags
var version = "dev"
