package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"

	"servicemarket/internal/adapter/api"
	"servicemarket/internal/adapter/api/handler"
	apimiddleware "servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/adapter/api/router"
	"servicemarket/internal/adapter/repository"
	domainrepo "servicemarket/internal/domain/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/internal/infrastructure/firebase"
	"servicemarket/internal/infrastructure/otp"
	"servicemarket/internal/infrastructure/postgres"
	"servicemarket/internal/infrastructure/ratelimit"
	"servicemarket/internal/infrastructure/security"
	"servicemarket/internal/infrastructure/sms"
	"servicemarket/internal/infrastructure/storage"
	"servicemarket/internal/infrastructure/token"
	"servicemarket/internal/infrastructure/websocket"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/config"
	"servicemarket/pkg/logger"
	"servicemarket/pkg/response"
)

func fatal(format string, v ...interface{}) {
	logger.Error(format, v...)
	logger.Sync()
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Configure(cfg.LogLevel, !cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to configure logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		fatal("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		fatal("Failed to apply schema: %v", err)
	}

	gcpOpts := firebase.Credentials(cfg.FirebaseServiceAccountJSON, cfg.FirebaseServiceAccountPath)

	var push usecase.PushSender = firebase.NoopMessaging{}
	var otpStore domainrepo.SweepingOTPStore

	if cfg.FirebaseProject != "" {
		firebaseApp, err := firebase.NewApp(ctx, cfg.FirebaseProject, cfg.StorageBucket, gcpOpts...)
		if err != nil {
			fatal("Failed to initialize Firebase: %v", err)
		}

		messagingClient, err := firebaseApp.Messaging(ctx)
		if err != nil {
			fatal("Failed to initialize Firebase Messaging: %v", err)
		}
		push = firebase.NewMessagingClient(messagingClient)

		if cfg.OTPStore == "firestore" {
			firestoreClient, err := firebaseApp.Firestore(ctx)
			if err != nil {
				fatal("Failed to create Firestore client: %v", err)
			}
			defer firestoreClient.Close()
			otpStore = repository.NewFirestoreOTPStore(firestoreClient)
			logger.Info("Using Firestore OTP store")
		}
	} else {
		logger.Warn("FIREBASE_PROJECT_ID not set, push notifications are logged only")
	}

	if otpStore == nil {
		if cfg.OTPStore == "firestore" {
			logger.Warn("OTP_STORE=firestore needs FIREBASE_PROJECT_ID, falling back to memory")
		}
		otpStore = otp.NewMemoryStore()
	}
	otp.StartSweeper(ctx, otpStore, cfg.OTPSweep)

	// A nil interface here disables image uploads; a typed nil pointer would not.
	var uploader service.FileUploadService
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, gcpOpts...)
		if err != nil {
			fatal("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		uploader = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET not set, image uploads are disabled")
	}

	var smsSender usecase.SMSSender = sms.LogSender{}
	if cfg.SMSEnabled {
		smsSender = sms.NewGatewayClient(cfg.SMSAPIURL, cfg.SMSUsername, cfg.SMSPassword, cfg.SMSSender)
	}

	sendOTPPolicy := ratelimit.PolicySendOTP
	if cfg.OTPPerPhone > 0 {
		sendOTPPolicy.Every = cfg.OTPPerPhone
	}
	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Policy{
		"send_otp":     sendOTPPolicy,
		"auth":         ratelimit.PolicyAuth,
		"create_offer": ratelimit.PolicyCreateOffer,
	})
	limiter.StartCleanupRoutine(ctx, 5*time.Minute)

	tokens := token.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
	hasher := security.NewBcryptHasher(0)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	userRepo := repository.NewPostgresUserRepository(pool)
	categoryRepo := repository.NewPostgresCategoryRepository(pool)
	demandRepo := repository.NewPostgresDemandRepository(pool)
	offerRepo := repository.NewPostgresOfferRepository(pool)
	reviewRepo := repository.NewPostgresReviewRepository(pool)
	notificationRepo := repository.NewPostgresNotificationRepository(pool)
	charityRepo := repository.NewPostgresCharityRepository(pool)

	resolver := service.NewVisibilityResolver(categoryRepo, userRepo)
	dispatcher := usecase.NewNotificationDispatcher(notificationRepo, userRepo, push, wsManager)

	otpService := usecase.NewOTPService(otpStore, smsSender, limiter, usecase.OTPConfig{TTL: cfg.OTPTTL})
	authUseCase := usecase.NewAuthUseCase(userRepo, otpService, tokens, hasher)
	userUseCase := usecase.NewUserUseCase(userRepo, categoryRepo, hasher, push)
	categoryUseCase := usecase.NewCategoryUseCase(categoryRepo, resolver, uploader)
	demandUseCase := usecase.NewDemandUseCase(demandRepo, categoryRepo, resolver, dispatcher, push)
	offerUseCase := usecase.NewOfferUseCase(offerRepo, demandRepo, userRepo, categoryRepo, dispatcher)
	reviewUseCase := usecase.NewReviewUseCase(reviewRepo, userRepo, offerRepo, demandRepo)
	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, userRepo, push)
	charityUseCase := usecase.NewCharityUseCase(charityRepo, uploader)

	handler.Setup(
		otpService,
		authUseCase,
		userUseCase,
		categoryUseCase,
		demandUseCase,
		offerUseCase,
		reviewUseCase,
		notificationUseCase,
		charityUseCase,
	)
	handler.SetupHealthHandler(pool)

	// Money goes over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = response.HTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	} else {
		e.Use(middleware.CORS())
	}

	authMiddleware := apimiddleware.NewAuthMiddleware(tokens, userRepo)
	adminMiddleware := apimiddleware.NewAdminMiddleware()
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware, cfg.AllowedOrigins)

	router.Setup(e, authMiddleware, adminMiddleware, limiter, wsHandler)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			fatal("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
