package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"jobportal/internal/auth"
	"jobportal/internal/cache"
	"jobportal/internal/config"
	"jobportal/internal/db"
	"jobportal/internal/handler"
	"jobportal/internal/logger"
	"jobportal/internal/middleware"
	"jobportal/internal/notify"
	"jobportal/internal/queue"
	"jobportal/internal/realtime"
	"jobportal/internal/repository"
	"jobportal/internal/router"
	"jobportal/internal/service"
	"jobportal/internal/storage"
)

// @title Government Job Portal API
// @version 1.0
// @description Job postings, applications, certificate verification, notifications and chat for students, employers and administrators.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database init")
	}
	if cfg.ResetDB {
		log.Warn().Msg("RESET_DB=true detected, dropping all tables")
		db.Reset(gormDB, log)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, continuing without cache")
	}

	files, err := newStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init")
	}

	store := repository.NewStore(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	tokenStore := auth.NewTokenStore(cacheClient)
	hasher := auth.NewHasher(cfg.BcryptCost)
	authenticator := middleware.NewAuthenticator(jwtService, tokenStore, store.Users())

	hub := realtime.NewHub(cfg.CORSOrigins, log.With().Str("component", "realtime").Logger())
	defer hub.Close()

	// Initialize services
	authService := service.NewAuthService(store.Users(), jwtService, tokenStore, hasher)
	jobService := service.NewJobService(store, cacheClient, log)
	applicationService := service.NewApplicationService(store, files, cacheClient, log)
	certificateService := service.NewCertificateService(store, files, log)
	notificationService := service.NewNotificationService(store.Notifications())
	chatService := service.NewChatService(store, hub, log)
	subscriptionService := service.NewSubscriptionService(store)
	mockTestService := service.NewMockTestService(store)
	userService := service.NewUserService(store.Users())
	shopkeeperService := service.NewShopkeeperService(store)

	// Notification pipeline
	var wg sync.WaitGroup
	notifyLog := log.With().Str("component", "notify").Logger()
	materializer := notify.NewMaterializer(store.Users(), store.Notifications(), cfg.NotificationTTL, notifyLog)
	publisher, closePublisher := startPublisher(ctx, &wg, cfg, materializer, notifyLog)
	defer closePublisher()

	dispatcher := notify.NewDispatcher(store.Outbox(), store.Notifications(), publisher, notify.DispatcherConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
	}, notifyLog)
	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()

	e := echo.New()
	e.HideBanner = true

	// Register routes
	router.Register(e, cfg, log, authenticator, cacheClient, router.Handlers{
		Health:        handler.NewHealthHandler(store.Outbox()),
		Auth:          handler.NewAuthHandler(authService),
		Jobs:          handler.NewJobHandler(jobService),
		Applications:  handler.NewApplicationHandler(applicationService),
		Certificates:  handler.NewCertificateHandler(certificateService),
		Notifications: handler.NewNotificationHandler(notificationService),
		Chat:          handler.NewChatHandler(chatService, hub),
		Subscriptions: handler.NewSubscriptionHandler(subscriptionService),
		MockTests:     handler.NewMockTestHandler(mockTestService),
		Shopkeepers:   handler.NewShopkeeperHandler(shopkeeperService),
		Users:         handler.NewUserHandler(userService),
	})

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info().Str("addr", addr).Str("notify_broker", cfg.NotifyBroker).Str("upload_backend", cfg.UploadBackend).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server start")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	wg.Wait()
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.UploadBackend == "cloudinary" {
		return storage.NewCloudinaryStorage(cfg.CloudinaryURL)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, err
	}
	return storage.NewLocalStorage(cfg.UploadDir, "/uploads"), nil
}

// startPublisher picks the transport for outbox events. Broker transports also
// start a consumer that materializes notifications on this instance.
func startPublisher(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, m *notify.Materializer, log zerolog.Logger) (notify.Publisher, func()) {
	consume := func(run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("notification consumer stopped")
			}
		}()
	}

	switch cfg.NotifyBroker {
	case "rabbitmq":
		consume(queue.NewAMQPConsumer(cfg.RabbitMQURL, m.Handle, log).Run)
		p := queue.NewAMQPPublisher(cfg.RabbitMQURL)
		return p, func() { _ = p.Close() }
	case "kafka":
		consume(queue.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, m.Handle, log).Run)
		p := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		return p, func() { _ = p.Close() }
	default:
		return notify.NewInlinePublisher(m), func() {}
	}
}
