package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	_ "github.com/lib/pq"

	_ "kalyana/docs"
	"kalyana/internal/authz"
	"kalyana/internal/config"
	"kalyana/internal/handlers"
	"kalyana/internal/pdf"
	"kalyana/internal/realtime"
	"kalyana/internal/repositories"
	"kalyana/internal/routes"
	"kalyana/internal/services"
	"kalyana/internal/storage"
	"kalyana/internal/utils"
)

func Run() {
	defer logger.Init("kalyana", true, false, io.Discard).Close()

	cfg := config.MustLoadConfig()
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("[app] open db: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Errorf("[app] close db: %v", err)
		}
	}()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warningf("[app] db ping failed, continuing: %v", err)
	}
	cancelPing()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	otpRepo := repositories.NewOTPContextRepository(db)
	surplusRepo := repositories.NewSurplusRepository(db)
	allocationRepo := repositories.NewAllocationRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	complaintRepo := repositories.NewComplaintRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// === Infra ===
	hub := realtime.NewHub()
	tokens := authz.NewTokenManager(cfg.Security.SecretKey, cfg.TokenTTL())
	geocoder := services.NewGeocodingService(cfg.Geocoding)
	photos := storage.NewPhotoStore(cfg.Files.RootDir)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.DryRun,
	)
	mobizonClient := utils.NewClientWithOptions(
		cfg.Mobizon.APIKey,
		cfg.Mobizon.SenderID,
		cfg.Mobizon.DryRun,
	)
	smsService := services.NewSMSService(userRepo, mobizonClient)

	// === Services ===
	authService := services.NewAuthService(userRepo, otpRepo, emailService, tokens, hub, cfg.Security.SecretKey)
	surplusService := services.NewSurplusService(surplusRepo, userRepo, geocoder, photos, hub)
	matchingService := services.NewMatchingService(surplusRepo, geocoder, cfg.Matching.CandidateLimit)
	allocationService := services.NewAllocationService(allocationRepo, hub, smsService)
	eventService := services.NewEventService(eventRepo, hub)
	feedbackService := services.NewFeedbackService(reviewRepo, complaintRepo, allocationRepo, userRepo, hub)
	adminService := services.NewAdminService(userRepo, reviewRepo, eventRepo, allocationRepo, complaintRepo, hub)
	reportService := services.NewReportService(reportRepo, surplusRepo, allocationRepo, reviewRepo)

	// === Handlers ===
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Location: handlers.NewLocationHandler(geocoder),
		Provider: handlers.NewProviderHandler(surplusService, eventService, allocationService, feedbackService, reportService),
		NGO:      handlers.NewNGOHandler(matchingService, allocationService, feedbackService, reportService),
		Admin:    handlers.NewAdminHandler(adminService, reportService, pdf.NewReportGenerator(cfg.Files.FontPath)),
		Realtime: handlers.NewRealtimeHandler(hub),
		Media:    handlers.NewMediaHandler(photos.Root()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Telegram relay is optional
	relay, err := realtime.NewTelegramRelayFromToken(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	switch {
	case err != nil:
		logger.Warningf("[app] telegram relay disabled: %v", err)
	case relay != nil:
		go relay.Run(ctx, hub)
	}

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.MaxMultipartMemory = 12 << 20

	routes.SetupRoutes(router, h, tokens)

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("[app] shutdown: %v", err)
		}
	}()

	logger.Infof("[app] listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("[app] serve: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
