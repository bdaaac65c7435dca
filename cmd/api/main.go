// @title        Groups API
// @version      1.0
// @description  Groups with memberships, roles, invitations and membership requests.
// @BasePath     /api/v1
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/fkhayef/groups/docs"
	"github.com/fkhayef/groups/internal/activity"
	"github.com/fkhayef/groups/internal/config"
	"github.com/fkhayef/groups/internal/database"
	"github.com/fkhayef/groups/internal/event"
	"github.com/fkhayef/groups/internal/group"
	"github.com/fkhayef/groups/internal/membership"
	"github.com/fkhayef/groups/internal/notification"
	"github.com/fkhayef/groups/internal/user"
	"github.com/fkhayef/groups/internal/wizard"
	mw "github.com/fkhayef/groups/pkg/middleware"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
	}
	logger.Info("Connected to database successfully")

	bus := event.NewBus(logger)

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService, logger)

	// Group and membership features depend on each other through interfaces
	groupRepo := group.NewRepository(db)
	engine := membership.NewEngine(membership.NewRepository(db), groupRepo, userService, bus, logger)
	groupService := group.NewService(groupRepo, engine, group.NewSlugger(cfg.ReservedSlugs...), bus, logger)
	groupHandler := group.NewHandler(groupService, logger)
	membershipHandler := membership.NewHandler(engine, logger)

	// Group creation wizard
	steps, err := wizard.NewRegistry(wizard.DefaultSteps(groupService, engine)...)
	if err != nil {
		logger.Fatal("Failed to register group creation steps", zap.Error(err))
	}
	if cfg.CookieHashKey == "" || cfg.CookieBlockKey == "" {
		if cfg.IsProduction() {
			logger.Fatal("COOKIE_HASH_KEY and COOKIE_BLOCK_KEY are required in production")
		}
		logger.Warn("Cookie keys not set, using random keys; group creation progress is lost on restart")
	}
	cookies := wizard.NewCookieCodec(cfg.CookieHashKey, cfg.CookieBlockKey, cfg.WizardTokenTTL, cfg.IsProduction())
	wizardService := wizard.NewService(steps, groupService, engine, cfg.WizardTokenTTL, logger)
	wizardHandler := wizard.NewHandler(wizardService, cookies.For, logger)

	// Notification and activity features listen on the bus
	notificationService := notification.NewService(notification.NewRepository(db), groupRepo, userRepo, logger)
	notificationService.Subscribe(bus)
	notificationHandler := notification.NewHandler(notificationService, logger)

	activityService := activity.NewService(activity.NewRepository(db), engine, logger)
	activityService.Subscribe(bus)
	activityHandler := activity.NewHandler(activityService, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.Authenticate(userService, logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		groups := groupHandler.Routes(membershipHandler.Register, activityHandler.Register)
		wizardHandler.Register(groups)

		r.Mount("/users", userHandler.Routes())
		r.Mount("/groups", groups)
		r.With(mw.RequireActor).Get("/me/invites", membershipHandler.MyInvites)
		r.Mount("/notifications", notificationHandler.Routes())

		r.Route("/admin", func(r chi.Router) {
			r.Mount("/groups", groupHandler.AdminRoutes())
			r.Mount("/users", userHandler.AdminRoutes())
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build()
}
