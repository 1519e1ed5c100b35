package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dern-backend/internal/appointments"
	"dern-backend/internal/auth"
	"dern-backend/internal/cache"
	"dern-backend/internal/config"
	"dern-backend/internal/db"
	"dern-backend/internal/lock"
	"dern-backend/internal/metrics"
	"dern-backend/internal/middleware"
	"dern-backend/internal/models"
	"dern-backend/internal/notifications"
	"dern-backend/internal/users"
	"dern-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected", slog.String("db", cfg.MongoDB))
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisEnabled() {
		redisClient, err := cache.NewRedisClient(cfg.RedisURL, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		redisCache := cache.NewRedis(redisClient)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		cacheStore = redisCache
		locker = lock.NewRedis(redisClient, time.Duration(cfg.BookingLockTTLSeconds)*time.Second)
		logger.Info("redis connected")
	} else {
		logger.Info("redis disabled, using in-process booking locks")
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("JWT_SECRET not set, issued tokens will not survive a restart")
	}
	jwtManager := &auth.Manager{
		Secret:    []byte(secret),
		AccessTTL: time.Duration(cfg.AccessTTLMinutes) * time.Minute,
		Issuer:    "dern-backend",
	}

	usersRepo := users.NewRepository(cols.Users)

	var notifier notifications.Multi
	if publisher := notifications.NewKafkaPublisher(notifications.SplitBrokers(cfg.KafkaBrokers), cfg.KafkaTopic); publisher != nil {
		defer publisher.Close()
		notifier = append(notifier, publisher)
		logger.Info("kafka events enabled", slog.String("topic", cfg.KafkaTopic))
	}
	if mailer := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.BrevoSandbox, usersRepo); mailer != nil {
		notifier = append(notifier, mailer)
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	} else {
		logger.Info("brevo mailer disabled")
	}

	var appMetrics *metrics.Metrics
	if cfg.MetricsEnabled {
		appMetrics = metrics.New("dern")
	}

	val := validation.New()

	appointmentsService := appointments.NewService(appointments.Dependencies{
		Repo:        appointments.NewRepository(cols.Appointments),
		Technicians: usersRepo,
		Locker:      locker,
		Notifier:    notifier,
		Cache:       cacheStore,
		Metrics:     appMetrics,
		Log:         logger,
	}, appointments.Config{
		WorkingHours:       cfg.WorkingHours,
		CancellationNotice: cfg.CancellationNotice(),
		CacheTTL:           time.Duration(cfg.CacheTTLSeconds) * time.Second,
	})
	appointmentsHandler := appointments.NewHandler(appointmentsService, val, logger)

	usersService := users.NewService(usersRepo, jwtManager)
	usersHandler := users.NewHandler(usersService, val, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigins))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	if appMetrics != nil {
		r.Handle("/metrics", appMetrics.Handler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	appointmentsLimiter := middleware.NewRateLimiter(cfg.RateLimitAppointments, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/login", usersHandler.Login)
		api.Get("/technicians/{id}/availability", appointmentsHandler.Availability)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticate(jwtManager))

			protected.With(middleware.RequireRole(models.UserRoleTechnician)).
				Patch("/technicians/me/availability", usersHandler.SetAvailability)

			protected.With(
				middleware.RequireRole(models.UserRoleCustomer, models.UserRoleAdmin),
				appointmentsLimiter.Middleware,
			).Post("/appointments", appointmentsHandler.Create)
			protected.Get("/appointments", appointmentsHandler.List)
			protected.Get("/appointments/{id}", appointmentsHandler.Get)
			protected.Patch("/appointments/{id}", appointmentsHandler.Update)
			protected.Post("/appointments/{id}/cancel", appointmentsHandler.Cancel)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
