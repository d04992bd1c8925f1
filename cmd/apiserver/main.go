// API server entry point for reelgauge.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/reelgauge/reelgauge/internal/admission"
	"github.com/reelgauge/reelgauge/internal/application/billing"
	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/application/scoring"
	"github.com/reelgauge/reelgauge/internal/config"
	"github.com/reelgauge/reelgauge/internal/domain/ledger"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/internal/infrastructure/ai/gemini"
	"github.com/reelgauge/reelgauge/internal/infrastructure/ai/videointel"
	"github.com/reelgauge/reelgauge/internal/infrastructure/database/postgres"
	"github.com/reelgauge/reelgauge/internal/infrastructure/database/postgres/repositories"
	"github.com/reelgauge/reelgauge/internal/infrastructure/database/redis"
	"github.com/reelgauge/reelgauge/internal/infrastructure/messaging/kafka"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/prometheus"
	"github.com/reelgauge/reelgauge/internal/infrastructure/notify"
	"github.com/reelgauge/reelgauge/internal/infrastructure/payments"
	miniostore "github.com/reelgauge/reelgauge/internal/infrastructure/storage/minio"
	httpiface "github.com/reelgauge/reelgauge/internal/interfaces/http"
	"github.com/reelgauge/reelgauge/internal/interfaces/http/handlers"
	"github.com/reelgauge/reelgauge/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logging.NewLogger(logging.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return err
	}
	log.Info("starting reelgauge api server", logging.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database.
	if err := postgres.RunMigrations(cfg.Database, log); err != nil {
		return err
	}
	db, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis.
	redisClient, err := redis.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Object storage.
	store, err := miniostore.NewStore(ctx, cfg.MinIO, log)
	if err != nil {
		return err
	}

	// Analytics bus.
	analytics := kafka.NewAnalyticsSink(cfg.Kafka, log)
	defer analytics.Close()

	metrics := prometheus.NewAppMetrics("reelgauge")

	// Domain and application services.
	ledgerSvc := ledger.NewService(repositories.NewLedgerRepository(db.Pool()), log)
	annotationClient := videointel.NewClient(cfg.Annotation, log)

	orch := evaluation.NewOrchestrator(evaluation.Deps{
		Jobs:        repositories.NewJobRepository(db.Pool()),
		Ledger:      ledgerSvc,
		Admission:   admission.NewController(ledgerSvc, log),
		Registry:    rubric.NewRegistry(),
		Engine:      scoring.NewEngine(),
		Content:     gemini.NewClient(cfg.ContentAI, log),
		Annotations: annotationClient,
		Toolkit:     videointel.NewToolkit(annotationClient),
		Store:       store,
		Cache:       redis.NewReportCache(redisClient, cfg.Evaluation.CacheTTL, log),
		Analytics:   analytics,
		Notifier:    notifierOrNil(cfg.Evaluation.NotifyWebhookURL, log),
		Metrics:     metrics,
		Config:      cfg.Evaluation,
		Logger:      log,
	})

	reaper := evaluation.NewReaper(orch, cfg.Evaluation.ReaperInterval, cfg.Evaluation.JobTimeout, log)
	go reaper.Run(ctx)

	billingSvc := billing.NewService(
		ledgerSvc,
		payments.NewClient(cfg.Payments, cfg.Server.PublicBaseURL, log),
		repositories.NewProcessedEventRepository(db.Pool()),
		log,
	)

	// HTTP surface.
	router := httpiface.NewRouter(httpiface.RouterConfig{
		JobHandler:     handlers.NewJobHandler(orch),
		BillingHandler: handlers.NewBillingHandler(billingSvc, cfg.Payments.WebhookSecret, payments.VerifySignature),
		AdminHandler:   handlers.NewAdminHandler(orch, ledgerSvc),
		HealthHandler: handlers.NewHealthHandler("dev",
			handlers.CheckerFunc{ComponentName: "postgres", Fn: db.HealthCheck},
			handlers.CheckerFunc{ComponentName: "redis", Fn: redisClient.HealthCheck},
		),
		Auth:           middleware.NewAuthMiddleware(cfg.Auth),
		Logging:        middleware.NewLoggingMiddleware(log, metrics),
		MetricsHandler: metrics.Handler(),
		Mode:           cfg.Server.Mode,
	})
	server := httpiface.NewServer(cfg.Server, router, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	return server.Stop(context.Background())
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		// Containerised deployments configure entirely through the
		// environment.
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func notifierOrNil(url string, log logging.Logger) evaluation.Notifier {
	n := notify.NewWebhookNotifier(url, log)
	if n == nil {
		return nil
	}
	return n
}
