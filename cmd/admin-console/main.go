package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"modulys-admin/internal/adminapi"
	"modulys-admin/internal/config"
	"modulys-admin/internal/handler"
	"modulys-admin/internal/messaging"
	"modulys-admin/internal/middleware"
	"modulys-admin/internal/observability"
	"modulys-admin/internal/repository/postgres"
	redisrepo "modulys-admin/internal/repository/redis"
	"modulys-admin/internal/security"
	"modulys-admin/internal/session"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting admin console",
		slog.String("environment", cfg.Environment),
		slog.String("session_backend", cfg.SessionBackend),
		slog.String("admin_api_url", cfg.AdminAPIURL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := adminapi.NewClient(cfg.AdminAPIURL)
	checks := []handler.Check{{Name: "admin_api", Pinger: client}}

	backend, storeCheck, closeStore, err := openSessionBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open session store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()
	if storeCheck != nil {
		checks = append(checks, *storeCheck)
	}

	observers := session.Observers{
		session.ObserverFunc(func(ctx context.Context, e session.Event) {
			observability.RecordSessionEvent(string(e.Kind))
		}),
		session.ObserverFunc(logSessionEvent),
	}

	if cfg.RabbitMQURL != "" {
		rmqCtx, rmqCancel := context.WithTimeout(ctx, 60*time.Second)
		rmq, err := messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL, 10, 3*time.Second)
		rmqCancel()
		if err != nil {
			slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rmq.Close()

		if err := rmq.Setup(); err != nil {
			slog.Error("failed to declare audit exchange", slog.String("error", err.Error()))
			os.Exit(1)
		}
		observers = append(observers, messaging.NewAuditObserver(rmq, 2*time.Second))
		checks = append(checks, handler.Check{Name: "rabbitmq", Pinger: rmq})
		slog.Info("audit publisher enabled")
	}

	renderer, err := handler.NewRenderer()
	if err != nil {
		slog.Error("failed to parse page templates", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pages := handler.NewPageHandler(client, renderer)
	authHandler := handler.NewAuthHandler(client, pages)
	consoleHandler := handler.NewConsoleHandler(client)

	// five attempts a minute per address, after an initial burst of five
	loginLimiter := middleware.NewRateLimiter(5.0/60, 5)
	defer loginLimiter.Stop()

	secure := cfg.SecureCookies()
	withSession := middleware.Session(backend, session.WithObserver(observers))

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestContext)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics())

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(checks...))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(withSession)
		r.Use(middleware.CSRF(secure))
		r.Use(middleware.RouteGuard())

		r.Get("/", pages.Landing)
		r.Get("/login", authHandler.LoginPage)
		r.With(loginLimiter.Middleware()).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Get("/dashboard", pages.Dashboard)
		r.Get("/tenants", pages.Tenants)
		r.Get("/modules", pages.Modules)
		r.Get("/plans", pages.Plans)
		r.Get("/templates", pages.Templates)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
		r.Use(withSession)
		r.Use(middleware.RequireIdentity())
		r.Use(middleware.CSRF(secure))
		r.Use(middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig(cfg.OpenAPIValidation, cfg.OpenAPISpecPath)))

		r.Get("/me", authHandler.Me)
		consoleHandler.Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// project archives are streamed through, so writes get more room
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("admin console listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()

	slog.Info("server stopped gracefully")
}

// openSessionBackend builds the configured session backend. The returned
// check is nil for the cookie backend, which has nothing to reach.
func openSessionBackend(ctx context.Context, cfg *config.Config) (session.Backend, *handler.Check, func(), error) {
	noop := func() {}
	opts := session.CookieOptions{Secure: cfg.SecureCookies()}

	connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connCancel()

	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		client, err := redisrepo.Connect(connCtx, cfg.RedisURL)
		if err != nil {
			return nil, nil, noop, err
		}
		slog.Info("connected to redis")

		backend := session.NewServerBackend(redisrepo.New(client), opts)
		check := &handler.Check{Name: "session_store", Pinger: backend}
		return backend, check, func() { client.Close() }, nil

	case config.SessionBackendPostgres:
		db, err := config.NewPostgresConnection(connCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := postgres.EnsureSchema(connCtx, db); err != nil {
			db.Close()
			return nil, nil, noop, err
		}
		store, err := postgres.NewSessionStore(db)
		if err != nil {
			db.Close()
			return nil, nil, noop, err
		}
		slog.Info("connected to postgresql")

		go startSessionCleanup(ctx, store)
		go recordPoolStats(ctx, db)

		backend := session.NewServerBackend(store, opts)
		check := &handler.Check{
			Name:   "session_store",
			Pinger: backend,
			Metadata: func() map[string]any {
				stats := db.Stats()
				return map[string]any{
					"open_connections": stats.OpenConnections,
					"in_use":           stats.InUse,
					"idle":             stats.Idle,
				}
			},
		}
		return backend, check, func() {
			store.Close()
			db.Close()
		}, nil

	default:
		sealer, err := security.NewSealer(cfg.SessionSecret)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("failed to derive session key: %w", err)
		}
		return session.NewCookieBackend(sealer, opts), nil, noop, nil
	}
}

// startSessionCleanup deletes expired session entries every hour.
func startSessionCleanup(ctx context.Context, store *postgres.SessionStore) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping session cleanup task")
			return
		case <-ticker.C:
			cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			count, err := store.DeleteExpired(cleanupCtx)
			if err != nil {
				slog.Error("session cleanup failed", slog.String("error", err.Error()))
			} else {
				slog.Info("session cleanup completed", slog.Int64("entries_deleted", count))
			}
			cancel()
		}
	}
}

func recordPoolStats(ctx context.Context, db *sql.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.RecordDBStats(db)
		}
	}
}

func logSessionEvent(ctx context.Context, e session.Event) {
	attrs := []any{slog.String("kind", string(e.Kind))}
	if e.Identity != nil {
		attrs = append(attrs, slog.String("email", e.Identity.Email))
	}
	logger := observability.FromContext(ctx)
	if e.Kind == session.EventRestored {
		logger.Debug("session event", attrs...)
		return
	}
	logger.Info("session event", attrs...)
}
