package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"paperdrive/internal/auth"
	"paperdrive/internal/config"
	"paperdrive/internal/handler"
	"paperdrive/internal/repository"
	"paperdrive/internal/service"
	"paperdrive/internal/service/blob"
)

func connectWithRetry(dsn string, maxAttempts int, delay time.Duration) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error
	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}
		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxAttempts, err)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("failed to connect after %d attempts: %v", maxAttempts, err)
}

func runMigrations(cfg *config.Config) error {
	databaseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	var m *migrate.Migrate
	var err error

	for i := 0; i < 5; i++ {
		m, err = migrate.New("file://migrations", databaseURL)
		if err == nil {
			break
		}
		log.Printf("Failed to create migrate instance (attempt %d/5): %v", i+1, err)
		time.Sleep(time.Second * 5)
	}
	if err != nil {
		return fmt.Errorf("failed to create migrate instance after retries: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		log.Printf("Found dirty database state at version %d, attempting to force version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// newBlobStorage выбирает бэкенд по конфигурации: локальная файловая
// система по умолчанию, S3 — при явном указании.
func newBlobStorage(cfg *config.Config) (blob.Storage, error) {
	switch cfg.Storage.Backend {
	case "s3":
		s3Config, err := blob.NewS3Config(".storage.env")
		if err != nil {
			return nil, fmt.Errorf("failed to load S3 config: %w", err)
		}
		return blob.NewS3Store(s3Config)
	default:
		return blob.NewFSStore(cfg.Storage.Root)
	}
}

func main() {
	// Загружаем конфигурации
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Подключаемся к базе данных
	db, err := connectWithRetry(appConfig.Database.GetDSN(), 5, time.Second*5)
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	if err := runMigrations(appConfig); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Блоб-хранилище
	store, err := newBlobStorage(appConfig)
	if err != nil {
		log.Fatalf("Failed to create blob storage: %v", err)
	}

	// Инициализация репозиториев
	paperRepo := repository.NewPaperRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	annotationRepo := repository.NewAnnotationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Инициализация сервисов
	limits := service.UploadLimits{
		MaxArtifactBytes:  appConfig.Storage.MaxUploadBytes(),
		AllowedExtensions: appConfig.Storage.Extensions(),
	}
	paperService := service.NewPaperService(paperRepo, store, limits, logger)
	documentService := service.NewDocumentService(documentRepo, appConfig.Storage.MaxUploadBytes(), logger)
	templateService := service.NewTemplateService(templateRepo, store, logger)
	annotationService := service.NewAnnotationService(annotationRepo, paperRepo, logger)
	groupService := service.NewGroupService(groupRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, groupRepo, logger)
	adminService := service.NewAdminService(statsRepo, logger)

	// Инициализация хендлеров
	paperHandler := handler.NewPaperHandler(paperService)
	documentHandler := handler.NewDocumentHandler(documentService)
	annotationHandler := handler.NewAnnotationHandler(annotationService)
	groupHandler := handler.NewGroupHandler(groupService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	adminHandler := handler.NewAdminHandler(templateService, adminService, logger)
	healthHandler := handler.NewHealthHandler(db)

	// Настройка HTTP роутера
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(auth.Middleware)

	r.Get("/health", healthHandler.Health)
	r.Get("/health/detailed", healthHandler.HealthDetailed)

	// HTTP маршруты
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handler.AuditMiddleware(adminService))

		r.Post("/papers/upload", paperHandler.UploadPaper)

		r.Route("/papers/{id}", func(r chi.Router) {
			r.Put("/", paperHandler.UpdatePaper)
			r.Delete("/", paperHandler.DeletePaper)
			r.Get("/versions", paperHandler.ListVersions)
			r.Post("/versions/{version}/status", paperHandler.CreateStatus)
			r.Put("/versions/{version}/status", paperHandler.UpdateStatus)
			r.Get("/annotations", annotationHandler.ListByPaper)
		})

		r.Post("/documents/upload", documentHandler.Upload)
		r.Get("/documents/{id}/download", documentHandler.Download)

		r.Post("/annotations", annotationHandler.Create)

		r.Post("/groups/import", groupHandler.ImportRoster)

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/push", notificationHandler.Push)
			r.Get("/query", notificationHandler.Query)
			r.Put("/{id}", notificationHandler.Update)
			r.Put("/{id}/retract", notificationHandler.Retract)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/templates", adminHandler.UploadTemplate)
			r.Put("/templates/{id}", adminHandler.ReplaceTemplate)
			r.Delete("/templates/{id}", adminHandler.DeleteTemplate)
			r.Get("/templates/{id}/download", adminHandler.DownloadTemplate)

			r.Get("/dashboard/stats", adminHandler.DashboardStats)
			r.Get("/audit/logs", adminHandler.AuditLogs)

			r.Route("/stats", func(r chi.Router) {
				r.Get("/students/total", adminHandler.Count(service.CountStudents))
				r.Get("/teachers/total", adminHandler.Count(service.CountTeachers))
				r.Get("/papers/uploaded/total", adminHandler.Count(service.CountPapersUploaded))
				r.Get("/papers/unreviewed/total", adminHandler.Count(service.CountPapersUnreviewed))
				r.Get("/papers/updated/total", adminHandler.Count(service.CountPapersUpdated))
			})
		})
	})

	srv := &http.Server{
		Addr:    ":" + appConfig.Server.Port,
		Handler: r,
	}

	// Запуск сервера с graceful shutdown
	go func() {
		logger.Info("starting HTTP server", zap.String("port", appConfig.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
