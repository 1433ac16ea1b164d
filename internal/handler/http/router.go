package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/middleware"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterConfig carries the non-handler pieces of the router.
type RouterConfig struct {
	AppName        string
	Env            string
	AllowedOrigins []string
	LoginLimiter   *middleware.RateLimiter
	UploadLimiter  *middleware.RateLimiter
	Metrics        http.Handler
}

type Handlers struct {
	Auth         AuthHandler
	Attendance   AttendanceHandler
	Incident     IncidentHandler
	Gate         GateHandler
	Chat         ChatHandler
	Approval     ApprovalHandler
	Notification NotificationHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.AppName),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RealIP)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/metrics" || req.URL.Path == "/"
		},
	}))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	loginLimit := passthrough
	if cfg.LoginLimiter != nil {
		loginLimit = cfg.LoginLimiter.Middleware
	}
	uploadLimit := passthrough
	if cfg.UploadLimiter != nil {
		uploadLimit = cfg.UploadLimiter.Middleware
	}

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/register", h.Auth.Register)
			r.Post("/refresh", h.Auth.RefreshToken)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/oauth/callback/google", h.Auth.OAuthCallbackGoogle)

			r.Route("/login", func(r chi.Router) {
				r.Use(loginLimit)
				r.Post("/", h.Auth.Login)
				r.Get("/oauth/google", h.Auth.LoginWithGoogle)
			})
		})

		// The emailed link is the credential here, so no session is required.
		r.With(uploadLimit).Post("/incidentreport/upload/{userId}/{token}", h.Incident.UploadWithLink)

		// Stream endpoints authenticate with a short-lived token in the query string.
		r.Get("/notifications/stream", h.Notification.Stream)
		r.Get("/notifications/ws", h.Notification.WebSocket)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Get("/auth/me", h.Auth.Me)

			r.With(uploadLimit, middleware.RequirePermission(user.PermissionIncidentCreate)).Post("/incidents", h.Incident.Submit)
			r.Get("/incidentreport/incidentall", h.Incident.List)
			r.Route("/incident/{id}", func(r chi.Router) {
				r.Get("/", h.Incident.Get)
				r.Get("/file", h.Incident.Download)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionIncidentManage))
					r.Put("/", h.Incident.Update)
					r.Delete("/", h.Incident.Delete)
				})
			})

			r.With(middleware.RequirePermission(user.PermissionGateInspect)).Get("/gate/check/{userId}", h.Gate.Check)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/me", h.Attendance.GetMyAttendance)
				r.Get("/{employeeId}", h.Attendance.GetEmployeeAttendance)
				r.With(middleware.RequireReviewer).Post("/", h.Attendance.Record)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionAccessRequest))
				r.Route("/access", func(r chi.Router) {
					r.Post("/start", h.Chat.Start)
					r.Post("/type", h.Chat.ChooseType)
					r.Post("/target", h.Chat.ChooseTarget)
					r.Post("/submit", h.Chat.Submit)
					r.Post("/reset", h.Chat.Reset)
				})
				r.Get("/messages", h.Chat.Messages)
			})

			r.Route("/approvals/{id}", func(r chi.Router) {
				r.Get("/status", h.Approval.Status)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireApprover)
					r.Post("/approve", h.Approval.Approve)
					r.Post("/deny", h.Approval.Deny)
				})
			})
			r.Get("/access/grants", h.Approval.Grant)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Put("/read", h.Notification.MarkAsRead)
				r.Put("/read-all", h.Notification.MarkAllAsRead)
				r.Delete("/{id}", h.Notification.Delete)
				r.Get("/preferences", h.Notification.GetPreferences)
				r.Put("/preferences", h.Notification.UpdatePreference)
				r.Get("/stream-token", h.Notification.GetStreamToken)
			})
		})
	})
	return r
}

func passthrough(next http.Handler) http.Handler { return next }
