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

	gcs "cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/shenikar/critter_connect/internal/broadcast"
	"github.com/shenikar/critter_connect/internal/classifier"
	"github.com/shenikar/critter_connect/internal/config"
	"github.com/shenikar/critter_connect/internal/geocode"
	v1 "github.com/shenikar/critter_connect/internal/handler/http/v1"
	"github.com/shenikar/critter_connect/internal/observability"
	"github.com/shenikar/critter_connect/internal/repository"
	"github.com/shenikar/critter_connect/internal/service"
	"github.com/shenikar/critter_connect/internal/storage"
	"github.com/shenikar/critter_connect/internal/webhook"
	"github.com/shenikar/critter_connect/pkg/firebase"
	"github.com/shenikar/critter_connect/pkg/logger"
	mongodb "github.com/shenikar/critter_connect/pkg/mongo"
	"github.com/shenikar/critter_connect/pkg/postgres"
	redisclient "github.com/shenikar/critter_connect/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/critter_connect/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// stores - выбранные по STORE_DRIVER репозитории и их закрытие
type stores struct {
	reports service.ReportRepository
	images  service.ImageRepository
	bucket  *gcs.BucketHandle
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// @title Critter Connect API
// @version 1.0
// @description Wildlife incident reporting API: report intake, triage and real-time dashboard events.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(cfg.MigrationsPath, migrationURL)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// openStores подключает хранилище документов и, если задан бакет, Cloud Storage
func openStores(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*stores, error) {
	s := &stores{}

	switch cfg.StoreDriver {
	case config.StoreFirestore:
		app, err := firebase.NewApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsPath, cfg.StorageBucket)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = app.Close() })
		s.reports = repository.NewFirestoreReportRepository(app.Firestore)
		s.images = repository.NewFirestoreImageRepository(app.Firestore)
		s.bucket = app.Bucket
		log.Info("Successfully connected to Firestore")

	case config.StoreMongo:
		client, db, err := mongodb.NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })
		reports := repository.NewMongoReportRepository(db)
		if err := reports.EnsureIndexes(ctx); err != nil {
			s.close()
			return nil, err
		}
		s.reports = reports
		s.images = repository.NewMongoImageRepository(db)
		log.Info("Successfully connected to MongoDB")

	case config.StorePostgres:
		if err := runMigrations(cfg, log); err != nil {
			return nil, err
		}
		dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, dbpool.Close)
		s.reports = repository.NewPostgresReportRepository(dbpool)
		s.images = repository.NewPostgresImageRepository(dbpool)
		log.Info("Successfully connected to PostgreSQL")

	case config.StoreMemory:
		s.reports = repository.NewMemoryReportRepository()
		s.images = repository.NewMemoryImageRepository()
		log.Warn("Using in-memory store: reports are lost on restart")
	}

	if s.bucket == nil && cfg.StorageBucket != "" {
		bucket, closeFn, err := firebase.NewBucket(ctx, cfg.FirebaseCredentialsPath, cfg.StorageBucket)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = closeFn() })
		s.bucket = bucket
	}
	return s, nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, log, "critter-connect", cfg.OTLPEndpoint, cfg.Env, cfg.TraceSampleRate)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer shutdownTracing()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer st.close()

	// Redis необязателен: без него нет кеша, межсерверной рассылки и вебхуков
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("Successfully connected to Redis")
	}

	reportRepo := st.reports
	var webhookPublisher webhook.WebhookPublisher
	if redisClient != nil {
		reportRepo = repository.NewCachedReportRepository(reportRepo, redisClient, cfg.ReportCacheTTL, log)

		// Инициализация издателя и воркера вебхуков
		webhookPublisher = webhook.NewRedisWebhookPublisher(redisClient)
		webhook.NewWebhookWorker(redisClient, log, cfg).Start(ctx)
	}

	// Хаб рассылки событий панелям мониторинга
	hub := broadcast.NewHub(log, cfg.AllowedOrigins)
	if redisClient != nil {
		startRelay(ctx, hub, redisClient, cfg.BroadcastChannel, log)
	}
	go hub.Run(ctx)

	var objectStorage service.ObjectStorage
	if st.bucket != nil {
		objectStorage = storage.NewGCSBucket(st.bucket, cfg.StorageBucket)
	}

	// Внешние сервисы
	resolver := geocode.NewResolver(geocode.Options{
		BaseURL: cfg.GeocoderBaseURL,
		APIKey:  cfg.GeocoderAPIKey,
		Country: cfg.GeocoderCountry,
		Prefix:  cfg.PostalCodePrefix,
		Timeout: cfg.GeocoderTimeout,
	}, log)
	var speciesClassifier service.Classifier
	if cfg.ClassifierURL != "" {
		speciesClassifier = classifier.NewSpeciesNet(cfg.ClassifierURL, cfg.ClassifierTimeout, cfg.ClassifierMinConfidence, log)
	}

	// Инициализация сервисов
	reportService := service.NewReportService(reportRepo, resolver, hub, webhookPublisher, log)
	mediaService := service.NewMediaService(objectStorage, st.images, cfg.PublicBaseURL, log)
	speciesService := service.NewSpeciesService(speciesClassifier, log)

	// Инициализация хэндлеров
	handler := v1.NewHandler(reportService, mediaService, speciesService, log, cfg)

	// Настройка Gin роутера
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := v1.NewRouter(handler)

	// Метрики и Swagger UI
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           v1.NewServeMux(observability.InstrumentHandler(router, "critter-connect"), http.HandlerFunc(hub.ServeWS)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	// Отмена контекста закрывает websocket-сессии, воркер вебхуков и подписку Redis
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}

func startRelay(ctx context.Context, hub *broadcast.Hub, client *redis.Client, channel string, log *logrus.Logger) {
	relay := broadcast.NewRedisRelay(client, channel, log)
	hub.UseRelay(relay)
	go func() {
		if err := relay.Run(ctx, hub); err != nil {
			log.WithError(err).Error("Redis relay stopped")
		}
	}()
}
