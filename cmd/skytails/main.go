package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skytails/skytails/internal/archive"
	"github.com/skytails/skytails/internal/auth"
	"github.com/skytails/skytails/internal/channel"
	"github.com/skytails/skytails/internal/config"
	"github.com/skytails/skytails/internal/contact"
	"github.com/skytails/skytails/internal/database"
	"github.com/skytails/skytails/internal/front"
	"github.com/skytails/skytails/internal/frontsync"
	"github.com/skytails/skytails/internal/mail"
	"github.com/skytails/skytails/internal/ratelimit"
	"github.com/skytails/skytails/internal/seq"
	"github.com/skytails/skytails/internal/store/postgres"
	"github.com/skytails/skytails/internal/web"
	"github.com/skytails/skytails/internal/web/handlers"
	"github.com/skytails/skytails/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Migrations
	if err := database.RunMigrations(migrations.FS, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Stores
	userStore := postgres.NewUserStore(db)
	sessionStore := postgres.NewSessionStore(db)
	directoryStore := postgres.NewDirectoryStore(db)
	intakeStore := postgres.NewIntakeStore(db)
	activityStore := postgres.NewActivityStore(db)

	// Auth
	authService := auth.NewService(userStore, sessionStore, cfg.SessionMaxAge)
	if err := authService.EnsureOperator(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		slog.Error("failed to bootstrap operator account", "error", err)
		os.Exit(1)
	}

	// Front sync pipeline
	frontClient := front.NewClient(cfg.FrontAPIBaseURL, cfg.FrontAPIToken)
	seqClient := seq.NewClient(cfg.SeqBaseURL, cfg.SeqToken)
	classifier := channel.NewClassifier(channel.Config{
		SocialChannelIDs:   cfg.SocialChannelIDs,
		WhatsAppChannelIDs: cfg.WhatsAppChannelIDs,
		EmailChannelIDs:    cfg.EmailChannelIDs,
	})
	resolver := contact.NewResolver(directoryStore, intakeStore)

	payloadArchive, err := archive.NewFromConfig(context.Background(), archive.Config{
		Backend:           cfg.ArchiveBackend,
		FSRoot:            cfg.ArchiveFSRoot,
		S3Bucket:          cfg.ArchiveS3Bucket,
		S3Region:          cfg.ArchiveS3Region,
		S3Endpoint:        cfg.ArchiveS3Endpoint,
		S3AccessKeyID:     cfg.ArchiveS3AccessKey,
		S3SecretAccessKey: cfg.ArchiveS3SecretKey,
		S3ForcePathStyle:  cfg.ArchiveS3ForcePathStyle,
	})
	if err != nil {
		slog.Error("failed to initialise payload archive", "error", err)
		os.Exit(1)
	}

	var reporter frontsync.Reporter
	if cfg.SMTPEnabled {
		smtpClient := mail.NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
		reporter = mail.NewService(smtpClient, userStore)
	} else {
		reporter = &frontsync.NoopReporter{}
	}

	syncService := frontsync.NewService(
		frontClient,
		classifier,
		resolver,
		activityStore,
		seqClient,
		payloadArchive,
		reporter,
	)

	// Rate limiter
	limiter := ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.SecureCookies)
	syncHandler := handlers.NewSyncHandler(syncService)
	activityHandler := handlers.NewActivityHandler(directoryStore, activityStore, payloadArchive)

	// Router
	router := web.NewRouter(web.RouterDeps{
		AuthHandler:     authHandler,
		SyncHandler:     syncHandler,
		ActivityHandler: activityHandler,
		AuthService:     authService,
		Limiter:         limiter,
	})

	// Session cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := sessionStore.DeleteExpiredSessions(context.Background()); err != nil {
				slog.Error("failed to clean up expired sessions", "error", err)
			}
		}
	}()

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("SkyTails starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
