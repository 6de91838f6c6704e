package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopleops/internal/domain/attendance"
	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/core"
	"peopleops/internal/domain/leave"
	"peopleops/internal/domain/notifications"
	"peopleops/internal/domain/overtime"
	"peopleops/internal/domain/payroll"
	"peopleops/internal/platform/config"
	"peopleops/internal/platform/db"
	"peopleops/internal/platform/storage"
	attendancehandler "peopleops/internal/transport/http/handlers/attendance"
	authhandler "peopleops/internal/transport/http/handlers/auth"
	corehandler "peopleops/internal/transport/http/handlers/core"
	leavehandler "peopleops/internal/transport/http/handlers/leave"
	notificationshandler "peopleops/internal/transport/http/handlers/notifications"
	overtimehandler "peopleops/internal/transport/http/handlers/overtime"
	payrollhandler "peopleops/internal/transport/http/handlers/payroll"
	"peopleops/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
}

// New builds the application with all routes wired, without listening.
// Tests construct an App and drive the Router directly.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	files, err := storage.NewFileStore(cfg.UploadDir, cfg.MaxEvidenceBytes)
	if err != nil {
		pool.Close()
		return nil, err
	}

	coreStore := core.NewStore(pool)
	authService := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL)
	attendanceService := attendance.NewService(pool)
	leaveService := leave.NewService(pool, coreStore, attendanceService)
	overtimeService := overtime.NewService(pool, coreStore, files)
	notifyService := notifications.NewService(pool)
	payrollService := payroll.NewService(pool, coreStore, attendanceService, overtimeService)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authService)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/register", authHandler.HandleRegister)

		corehandler.NewHandler(coreStore).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceService, coreStore, files).RegisterRoutes(r)
		leavehandler.NewHandler(leaveService, coreStore, notifyService).RegisterRoutes(r)
		overtimehandler.NewHandler(overtimeService, coreStore, notifyService, files).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollService, coreStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notifyService).RegisterRoutes(r)
	})

	return &App{Config: cfg, DB: pool, Router: router}, nil
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.DB.Close()

	log.Printf("server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
