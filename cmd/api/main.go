package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/uniformline/api/internal/handlers"
	"github.com/uniformline/api/internal/platform/auth"
	"github.com/uniformline/api/internal/platform/config"
	pfirestore "github.com/uniformline/api/internal/platform/firestore"
	"github.com/uniformline/api/internal/platform/jobs"
	"github.com/uniformline/api/internal/platform/mail"
	"github.com/uniformline/api/internal/platform/observability"
	"github.com/uniformline/api/internal/platform/secrets"
	"github.com/uniformline/api/internal/platform/session"
	platformstorage "github.com/uniformline/api/internal/platform/storage"
	firestoreRepo "github.com/uniformline/api/internal/repositories/firestore"
	"github.com/uniformline/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := secrets.NewFetcher(ctx, secrets.WithLogger(logger.Named("secrets")))
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(fetcher))
	if err != nil {
		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validationErr.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	storageClient, err := cloudstorage.NewClient(ctx)
	if err != nil {
		logger.Fatal("failed to initialise storage client", zap.Error(err))
	}
	defer func() {
		if err := storageClient.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()

	uploader, err := platformstorage.NewUploader(storageClient, cfg.Storage,
		platformstorage.WithAllowedContentTypes("image/*", "application/pdf"),
	)
	if err != nil {
		logger.Fatal("failed to initialise uploader", zap.Error(err))
	}

	sessionStore := session.NewFirestoreStore(firestoreClient)
	stateManager, err := services.NewStateManager(services.StateManagerDeps{
		Store: sessionStore,
		TTL:   cfg.Session.TTL,
		Clock: time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise state manager", zap.Error(err))
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if cfg.Session.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Session.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("session")
			for {
				select {
				case <-cleanupTicker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
					removed, err := sessionStore.CleanupExpired(runCtx, time.Now().UTC(), cfg.Session.CleanupBatchSize)
					cancel()
					if err != nil {
						cleanupLogger.Error("session cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("session cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}

	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	counterRepo, err := firestoreRepo.NewCounterRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise counter repository", zap.Error(err))
	}

	var publisher services.OrderEventPublisher
	var pubsubClient *pubsub.Client
	if projectID := strings.TrimSpace(cfg.Events.ProjectID); projectID != "" {
		pubsubClient, err = pubsub.NewClient(ctx, projectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		publisher, err = jobs.NewPubSubOrderEventPublisher(pubsubClient.Topic(cfg.Events.OrderTopic))
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
	} else {
		logger.Warn("events project not configured, order events disabled")
	}
	defer func() {
		if pubsubClient != nil {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}
	}()

	var mailer services.Mailer
	if strings.TrimSpace(cfg.Mail.SendGridAPIKey) != "" {
		mailer, err = mail.NewSendGridMailer(cfg.Mail)
		if err != nil {
			logger.Fatal("failed to initialise mailer", zap.Error(err))
		}
	} else {
		logger.Warn("sendgrid not configured, order confirmation email disabled")
	}

	wizardLogger := logger.Named("wizard")
	wizardService, err := services.NewWizardService(services.WizardServiceDeps{
		State:  stateManager,
		Clock:  time.Now,
		Logger: zapEventLogger(wizardLogger),
	})
	if err != nil {
		logger.Fatal("failed to initialise wizard service", zap.Error(err))
	}

	cartService, err := services.NewCartService(services.CartServiceDeps{State: stateManager})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	uploadService, err := services.NewUploadService(services.UploadServiceDeps{
		State:    stateManager,
		Uploader: uploader,
		Clock:    time.Now,
		Logger:   zapEventLogger(logger.Named("uploads")),
	})
	if err != nil {
		logger.Fatal("failed to initialise upload service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		State:        stateManager,
		Orders:       orderRepo,
		Counters:     counterRepo,
		Publisher:    publisher,
		Mailer:       mailer,
		CounterID:    cfg.Orders.CounterID,
		NumberPrefix: cfg.Orders.NumberPrefix,
		Clock:        time.Now,
		Logger:       zapEventLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	catalogService := services.NewCatalogService()
	sizeService := services.NewSizeService()

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(os.Getenv("API_VERSION"), os.Getenv("API_ENVIRONMENT")),
		handlers.WithReadyCheck("firestore", func(ctx context.Context) error {
			_, err := firestoreProvider.Client(ctx)
			return err
		}),
	)

	wizardHandlers := handlers.NewWizardHandlers(wizardService, uploadService)
	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCatalogRoutes(handlers.NewCatalogHandlers(catalogService).Routes),
		handlers.WithWizardRoutes(wizardHandlers.Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(cartService, wizardService).Routes),
		handlers.WithSizingRoutes(handlers.NewSizingHandlers(sizeService).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(orderService).Routes),
		handlers.WithAdminRoutes(handlers.NewAdminOrderHandlers(orderService).Routes),
		handlers.WithAdminMiddlewares(auth.RequireRole(firebaseVerifier, auth.RoleAdmin, auth.RoleStaff)),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	case sig := <-stop:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	logger.Info("server stopped")
}

// zapEventLogger adapts a zap logger to the event-style logger the services use.
func zapEventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Info(event, zFields...)
	}
}
