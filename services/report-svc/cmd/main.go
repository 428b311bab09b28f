package main

import (
	"context"
	"log"
	"time"

	"assethub/migrations"
	"assethub/pkg/audit"
	"assethub/pkg/cache"
	"assethub/pkg/config"
	"assethub/pkg/database"
	"assethub/pkg/logger"
	"assethub/pkg/metrics"
	"assethub/pkg/passhash"
	"assethub/pkg/queue"
	"assethub/pkg/ratelimit"
	"assethub/pkg/server"
	"assethub/pkg/storage"
	"assethub/services/report-svc/internal/handlers"
	"assethub/services/report-svc/internal/notify"
	"assethub/services/report-svc/internal/renderer"
	"assethub/services/report-svc/internal/repository"
	"assethub/services/report-svc/internal/rowsource"
	"assethub/services/report-svc/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Хранилище определений: PostgreSQL либо in-memory для dev
	var repo repository.Repository
	var rows rowsource.RowSource

	if cfg.Database.Driver == "postgres" {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer db.Close()

		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(
				ctx,
				db.Pool(),
				&cfg.Database,
				migrations.PostgresMigrations,
				"postgres",
			); err != nil {
				logger.Fatal("failed to run migrations", "error", err)
			}
		}

		repo = repository.NewPostgresRepository(db)
		rows = rowsource.NewPostgresAssetSource(db)
		logger.Info("Storage initialized", "driver", cfg.Database.Driver)
	} else {
		logger.Log.Warn("Database driver is not 'postgres', using in-memory repository without persistence")
		repo = repository.NewMemoryRepository()
		rows = &rowsource.StaticSource{}
	}

	// Blob-хранилище файлов отчётов
	store, err := storage.New(&cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init file storage", "error", err)
	}

	// Кэш дедупликации
	var dedup *cache.DedupCache
	if cfg.Report.DedupEnabled {
		c, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create cache, dedup disabled", "error", err)
		} else {
			dedup = cache.NewDedupCache(c, cfg.Report.DedupTTL)
			defer c.Close()
		}
	}

	// Очередь заданий экспорта
	q, err := queue.New(queue.FromConfig(&cfg.Queue))
	if err != nil {
		logger.Fatal("failed to create export queue", "error", err)
	}
	defer q.Close()

	// Уведомления о готовности отчётов
	var notifier notify.Notifier = notify.NewLogNotifier()
	if cfg.Queue.Driver == "redis" {
		redisNotifier, err := notify.NewRedisNotifier(cfg.Queue.Address(), "")
		if err != nil {
			logger.Log.Warn("Failed to create redis notifier, falling back to log only", "error", err)
		} else {
			notifier = notify.NewMultiNotifier(notify.NewLogNotifier(), redisNotifier)
			defer redisNotifier.Close()
		}
	}

	svc := service.NewReportService(service.Config{
		Version:       cfg.App.Version,
		BaseURL:       cfg.App.BaseURL,
		DedupEnabled:  cfg.Report.DedupEnabled && dedup != nil,
		DedupTTL:      cfg.Report.DedupTTL,
		RenderTimeout: cfg.Report.RenderTimeout,
		MaxRows:       cfg.Report.MaxRows,
		InlineExport:  cfg.Report.InlineExport,
		DefaultExpiry: cfg.Report.DefaultExpiry,
	}, service.Deps{
		Repo: repo,
		Rows: rows,
		Renderers: renderer.NewRegistry(renderer.PDFOptions{
			CompanyName:       cfg.Report.PDF.CompanyName,
			EnablePageNumbers: cfg.Report.PDF.EnablePageNumbers,
			MaxTableRows:      cfg.Report.PDF.MaxTableRows,
		}),
		Store:    store,
		Queue:    q,
		Dedup:    dedup,
		Notifier: notifier,
	})

	// Воркеры экспорта
	if !cfg.Report.InlineExport {
		pool := service.NewWorkerPool(svc, q, cfg.Report.Workers)
		pool.Start(ctx)
		defer pool.Stop()
	}

	// Чистка устаревших файлов
	go runCleanup(ctx, svc, cfg.Report.CleanupInterval, cfg.Report.CleanupBatchSize)

	// Лимит на запуск экспорта, отдельный от общего HTTP лимита
	var exportLimit ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		exportLimit, err = ratelimit.New(ratelimit.FromConfig(&cfg.RateLimit))
		if err != nil {
			logger.Log.Warn("Failed to create export rate limiter", "error", err)
		}
	}

	// Журнал аудита общий для сервера и обработчиков
	var auditLogger audit.Logger
	if cfg.Audit.Enabled {
		auditLogger, err = audit.New(audit.FromConfig(&cfg.Audit))
		if err != nil {
			logger.Log.Warn("Failed to create audit logger", "error", err)
		} else {
			audit.SetGlobal(auditLogger)
		}
	}

	jwtManager := passhash.NewJWTManager(&passhash.JWTConfig{
		SecretKey:         cfg.Auth.JWTSecret,
		AccessTokenExpiry: cfg.Auth.TokenTTL,
		Issuer:            cfg.Auth.Issuer,
	})

	h := handlers.NewHandler(svc, handlers.Options{
		Audit:       auditLogger,
		ExportLimit: exportLimit,
		ServiceName: cfg.App.Name,
	})

	srv := server.NewWithOptions(cfg, h.Router(jwtManager), &server.Options{
		AuditLogger: auditLogger,
	})

	logger.Info("Starting report service",
		"port", cfg.HTTP.Port,
		"database", cfg.Database.Driver,
		"queue", cfg.Queue.Driver,
		"workers", cfg.Report.Workers,
		"inline_export", cfg.Report.InlineExport,
	)

	if err := srv.Run(); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}

// runCleanup периодически удаляет устаревшие файлы отчётов
func runCleanup(ctx context.Context, svc *service.ReportService, interval time.Duration, batchSize int) {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Expired reports cleanup worker started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping cleanup worker")
			return
		case <-ticker.C:
			if _, err := svc.CleanupExpired(ctx, batchSize); err != nil {
				logger.Log.Error("Failed to cleanup expired reports", "error", err)
			}
		}
	}
}
