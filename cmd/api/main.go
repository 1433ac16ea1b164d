package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/config"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/admin-portal-backend/internal/handler/http"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/middleware"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/cron"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/directory"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/email"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/jwt"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/llm"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/metrics"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/oauth"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/sse"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/storage"
	"github.com/cmlabs-hris/admin-portal-backend/internal/repository/postgresql"
	approvalService "github.com/cmlabs-hris/admin-portal-backend/internal/service/approval"
	attendanceService "github.com/cmlabs-hris/admin-portal-backend/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/admin-portal-backend/internal/service/auth"
	chatService "github.com/cmlabs-hris/admin-portal-backend/internal/service/chat"
	"github.com/cmlabs-hris/admin-portal-backend/internal/service/file"
	gateService "github.com/cmlabs-hris/admin-portal-backend/internal/service/gate"
	incidentService "github.com/cmlabs-hris/admin-portal-backend/internal/service/incident"
	notificationService "github.com/cmlabs-hris/admin-portal-backend/internal/service/notification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.App.LogLevel)})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DatabaseURL()
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(dsn); err != nil {
			return err
		}
	}
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()
	tx := postgresql.Transactor(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	userRepo := postgresql.NewUserRepository(db)
	jwtRepo := postgresql.NewJWTRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	incidentRepo := postgresql.NewIncidentRepository(db)
	approvalRepo := postgresql.NewApprovalRepository(db)
	chatRepo := postgresql.NewChatRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)
	googleService := oauth.NewGoogleService(cfg.OAuth2Google.ClientID, cfg.OAuth2Google.ClientSecret, cfg.OAuth2Google.RedirectURL, cfg.OAuth2Google.Scopes)

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	fileService := file.NewFileService(fileStorage)

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	var attendanceDirectory attendance.Directory = attendanceRepo
	if cfg.Directory.Source == "http" {
		attendanceDirectory = directory.NewClient(nil, cfg.Directory.BaseURL, cfg.Directory.APIKey)
	}

	hub := sse.NewHub()
	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{})
	defer notifSvc.Stop()

	reviewer := approvalService.NewAIReviewer(llm.NewClient(nil, cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model), recorder)
	loginGate := gateService.NewService(
		attendanceDirectory,
		userRepo,
		incidentRepo,
		JWTService,
		emailService,
		reviewer,
		recorder,
		gateService.Config{
			Enabled:          cfg.Gate.Enabled,
			AbsenceThreshold: cfg.Gate.AbsenceThreshold,
			UploadLinkTTL:    cfg.Gate.UploadLinkTTL,
			DirectoryTimeout: cfg.Gate.DirectoryTimeout,
			EmailTimeout:     cfg.Gate.EmailTimeout,
			ValidatorTimeout: cfg.Gate.ValidatorTimeout,
			FrontendURL:      cfg.App.FrontendURL,
			Location:         cfg.Location(),
		},
	)

	authSvc := serviceAuth.NewAuthService(tx, userRepo, JWTService, jwtRepo, loginGate)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, attendanceDirectory, userRepo, cfg.Location())
	incidentSvc := incidentService.NewIncidentService(incidentRepo, userRepo, fileService, JWTService, emailService, notifSvc, recorder, incidentService.Config{
		HREmail:   cfg.SMTP.HREmail,
		PublicURL: cfg.App.PublicURL,
	})
	defer incidentSvc.Wait()
	approvalSvc := approvalService.NewApprovalService(tx, approvalRepo, chatRepo, userRepo, notifSvc, emailService, recorder, approvalService.Config{
		GrantTTL:      cfg.Approval.GrantTTL,
		ReviewTTL:     cfg.Approval.ReviewTTL,
		ApproverEmail: cfg.SMTP.ApproverEmail,
		FrontendURL:   cfg.App.FrontendURL,
	})
	chatSvc := chatService.NewChatService(tx, chatRepo, approvalSvc)

	loginLimiter := middleware.NewRateLimiter("login", cfg.RateLimit.LoginPerMinute, middleware.ClientIP)
	uploadLimiter := middleware.NewRateLimiter("upload", cfg.RateLimit.UploadPerMinute, middleware.ClientIP)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AppName:        "admin-portal",
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			LoginLimiter:   loginLimiter,
			UploadLimiter:  uploadLimiter,
			Metrics:        metrics.Handler(registry),
		},
		JWTService,
		appHTTP.Handlers{
			Auth:         appHTTP.NewAuthHandler(JWTService, authSvc, googleService, cfg.App.FrontendURL),
			Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
			Incident:     appHTTP.NewIncidentHandler(incidentSvc),
			Gate:         appHTTP.NewGateHandler(loginGate),
			Chat:         appHTTP.NewChatHandler(chatSvc),
			Approval:     appHTTP.NewApprovalHandler(approvalSvc),
			Notification: appHTTP.NewNotificationHandler(notifSvc, JWTService, cfg.App.AllowedOrigins),
		},
	)

	scheduler := cron.NewScheduler()
	scheduler.AddJob(cron.ExpireApprovalsJob(approvalSvc, cfg.Approval.SweepInterval))
	scheduler.AddJob(cron.SweepJob("sweep_rate_limiters", 5*time.Minute, loginLimiter, uploadLimiter))
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env, "gate_enabled", cfg.Gate.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
