package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vadim/linkbrand/internal/config"
	httpcontroller "github.com/vadim/linkbrand/internal/controller/http"
	"github.com/vadim/linkbrand/internal/database"
	contentservice "github.com/vadim/linkbrand/internal/domain/content/service"
	inspirationdao "github.com/vadim/linkbrand/internal/domain/inspiration/dao"
	inspirationservice "github.com/vadim/linkbrand/internal/domain/inspiration/service"
	postdao "github.com/vadim/linkbrand/internal/domain/post/dao"
	"github.com/vadim/linkbrand/internal/domain/post/policy"
	"github.com/vadim/linkbrand/internal/domain/post/scheduler"
	postservice "github.com/vadim/linkbrand/internal/domain/post/service"
	profiledao "github.com/vadim/linkbrand/internal/domain/profile/dao"
	profileservice "github.com/vadim/linkbrand/internal/domain/profile/service"
	authmw "github.com/vadim/linkbrand/internal/httpx/middleware"
	"github.com/vadim/linkbrand/internal/httpx/response"
	"github.com/vadim/linkbrand/internal/httpx/upstream/ayrshare"
	"github.com/vadim/linkbrand/internal/httpx/upstream/deepseek"
	"github.com/vadim/linkbrand/internal/httpx/upstream/gemini"
	"github.com/vadim/linkbrand/internal/secret"
	"github.com/vadim/linkbrand/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	// Infrastructure, pool and storage are nil when not configured
	pool    *pgxpool.Pool
	storage *storage.S3Storage

	// Repositories
	posts       postdao.PostRepository
	profiles    profiledao.ProfileRepository
	inspiration inspirationdao.InspirationRepository

	// Domain services and policies (interfaces for HTTP handlers)
	postService        *postservice.Service
	autosaver          *postservice.Autosaver
	profileService     *profileservice.Service
	inspirationService *inspirationservice.Service
	workflow           *policy.Policy
	generator          *contentservice.Generator
	imageGenerator     *contentservice.ImageGenerator

	// Scheduler for periodic analytics sync
	scheduler *scheduler.Scheduler

	// Dependencies /readyz must reach
	readiness []readinessCheck
}

// pinger is satisfied by the pgx pool and the object storage
type pinger interface {
	Ping(ctx context.Context) error
}

type readinessCheck struct {
	name   string
	target pinger
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(60 * time.Second))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	if err := app.initDomains(); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	app.registerRoutes()

	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Analytics.SchedulerEnabled {
		app.scheduler = scheduler.New(app.workflow, app.profileService, scheduler.Config{
			Interval:   cfg.Analytics.Interval,
			StuckAfter: cfg.Analytics.StuckAfter,
		}, logger)
	}

	return app, nil
}

// initInfrastructure connects to the database and object storage.
// Without a DSN the repositories live in memory, which is meant for local development.
func (a *App) initInfrastructure(ctx context.Context) error {
	sealer, err := secret.NewSealer(a.cfg.Secrets.Key)
	if err != nil {
		return fmt.Errorf("creating key sealer: %w", err)
	}

	if a.cfg.Database.PostgresDSN != "" {
		pool, err := database.NewPostgresPool(ctx, a.cfg.Database.PostgresDSN, database.PoolOptions{
			MaxConns: a.cfg.Database.MaxConns,
			MinConns: a.cfg.Database.MinConns,
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pool = pool
		a.readiness = append(a.readiness, readinessCheck{name: "postgres", target: pool})

		if a.cfg.Database.MigrateOnStart {
			if err := database.Migrate(pool); err != nil {
				pool.Close()
				return fmt.Errorf("migrating database: %w", err)
			}
		}

		a.posts = postdao.NewPostPostgres(pool)
		a.profiles = profiledao.NewProfilePostgres(pool, sealer)
		a.inspiration = inspirationdao.NewInspirationPostgres(pool)
	} else {
		a.logger.Warn("DATABASE_URL is not set, using in-memory storage")
		a.posts = postdao.NewPostMemory()
		a.profiles = profiledao.NewProfileMemory()
	}

	store, err := storage.NewS3Storage(storage.S3Config{
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
		Bucket:          a.cfg.S3.Bucket,
		Region:          a.cfg.S3.Region,
		PublicURL:       a.cfg.S3.PublicURL,
	})
	if err != nil {
		a.logger.Warn("media storage disabled", "error", err)
	} else {
		a.storage = store
		a.readiness = append(a.readiness, readinessCheck{name: "storage", target: store})
	}

	return nil
}

// initDomains initializes domain layers (Service, Policy) and vendor clients
func (a *App) initDomains() error {
	a.profileService = profileservice.New(a.profiles)
	a.postService = postservice.New(a.posts)
	a.autosaver = postservice.NewAutosaver(a.postService, a.cfg.Autosave.QuietPeriod, a.logger)

	// a nil library repository serves the built-in samples
	a.inspirationService = inspirationservice.New(a.inspiration, a.logger)

	ayrClient := ayrshare.New(
		ayrshare.WithBaseURL(a.cfg.Ayrshare.BaseURL),
		ayrshare.WithTimeout(a.cfg.Ayrshare.Timeout),
	)
	a.workflow = policy.New(a.posts, ayrshare.NewPublisher(ayrClient), a.profileService, a.logger)

	geminiClient := gemini.New(gemini.WithBaseURL(a.cfg.Gemini.BaseURL))
	deepseekClient := deepseek.New(
		deepseek.WithBaseURL(a.cfg.DeepSeek.BaseURL),
		deepseek.WithModel(a.cfg.DeepSeek.Model),
	)
	a.generator = contentservice.NewGenerator(geminiClient, deepseekClient, contentservice.Config{
		GeminiKey: a.cfg.Gemini.APIKey,
		TextModel: a.cfg.Gemini.TextModel,
	})
	a.imageGenerator = contentservice.NewImageGenerator(geminiClient, a.cfg.Gemini.APIKey, a.cfg.Gemini.ImageModel)

	if a.cfg.Gemini.APIKey == "" {
		a.logger.Warn("GEMINI_API_KEY is not set, generation will fail until it is configured")
	}

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)
	a.router.Handle("/metrics", promhttp.Handler())

	swaggerHandler := httpcontroller.NewSwaggerHandler("Linkbrand API", OpenAPISpec)
	swaggerHandler.RegisterRoutes(a.router)

	auth := authmw.NewAuthenticator(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer)

	// the handler treats a nil interface as "uploads disabled"
	var imageStore httpcontroller.ImageStore
	if a.storage != nil {
		imageStore = a.storage
	}

	a.router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Require)

		httpcontroller.NewPostHandler(a.postService, a.autosaver, a.workflow, a.profileService, a.logger).RegisterRoutes(r)
		httpcontroller.NewContentHandler(a.generator, a.imageGenerator, a.profileService, imageStore, a.logger).RegisterRoutes(r)
		httpcontroller.NewProfileHandler(a.profileService, a.logger).RegisterRoutes(r)
		httpcontroller.NewInspirationHandler(a.inspirationService).RegisterRoutes(r)

		if a.storage != nil {
			httpcontroller.NewMediaHandler(a.storage, a.logger).RegisterRoutes(r)
		}
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler reports ready once the database and the media bucket answer
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, check := range a.readiness {
		if err := check.target.Ping(ctx); err != nil {
			a.logger.Warn("readiness check failed", "dependency", check.name, "error", err)
			response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "dependency": check.name})
			return
		}
	}

	response.OK(w, map[string]string{"status": "ready"})
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.Shutdown(context.Background())
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application.
// Pending autosaves are dropped; the editor resends on reconnect.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.autosaver.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.closeInfrastructure()
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	a.closeInfrastructure()
	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure() {
	if a.pool != nil {
		a.pool.Close()
	}
}
