package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/attendance-service/internal/api/http"
	"github.com/spec-kit/attendance-service/internal/api/http/handlers"
	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/config"
	"github.com/spec-kit/attendance-service/internal/events"
	"github.com/spec-kit/attendance-service/internal/observability"
	"github.com/spec-kit/attendance-service/internal/persistence"
	"github.com/spec-kit/attendance-service/internal/ratelimit"
	"github.com/spec-kit/attendance-service/internal/repository"
	"github.com/spec-kit/attendance-service/internal/service"
	"github.com/spec-kit/attendance-service/internal/worker"
)

const redisKeyPrefix = "attendance:ratelimit:"

type repositories struct {
	admins     repository.AdminRepository
	employees  repository.EmployeeRepository
	resets     repository.PasswordResetRepository
	attendance repository.AttendanceRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	repos := buildRepositories(pg.PoolHandle(), logger)

	dependencies := map[string]handlers.Pinger{"postgres": nil, "redis": nil}
	if pg.PoolHandle() != nil {
		dependencies["postgres"] = pg
	}

	metrics := observability.NewMetrics()

	var (
		limiter ratelimit.Limiter
		sweeper worker.Sweeper
	)
	switch cfg.RateLimit.Backend {
	case "redis":
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		dependencies["redis"] = redis
		limiter = ratelimit.NewRedisLimiter(redis.Client, redisKeyPrefix)
	default:
		memory := ratelimit.NewMemoryLimiter(cfg.RateLimit.MaxKeys)
		limiter, sweeper = memory, memory
	}
	sweeperDone := worker.StartSweeper(ctx, sweeper, cfg.RateLimit.SweepInterval(), logger)
	logger.Info("rate limiter ready", zap.String("backend", cfg.RateLimit.Backend))

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}
	carrier := auth.NewSessionCarrier(cfg.App.IsProduction(), cfg.Auth.AdminSessionTTL(), cfg.Auth.EmployeeSessionTTL())
	resolver := auth.NewResolver(auth.ResolverDependencies{
		Tokens:    tokens,
		Carrier:   carrier,
		Admins:    repos.admins,
		Employees: repos.employees,
		Logger:    logger,
		Recorder:  metrics,
	})

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, service.NewLogMailer(logger), logger, cfg.Notification)
	notificationsDone := worker.StartNotificationWorker(ctx, dispatcher, notificationService, cfg.Notification.QueueSize, logger)

	authService := service.NewAuthService(service.AuthDependencies{
		Admins:    repos.admins,
		Employees: repos.employees,
		Hasher:    hasher,
		Tokens:    tokens,
		TTLs:      service.SessionTTLs{Admin: cfg.Auth.AdminSessionTTL(), Employee: cfg.Auth.EmployeeSessionTTL()},
		Logger:    logger,
	})
	adminService := service.NewAdminService(repos.admins, hasher, logger)
	employeeService := service.NewEmployeeService(repos.employees, hasher, dispatcher, logger)
	seedEmployees(ctx, cfg, employeeService, logger)
	resetService := service.NewPasswordResetService(service.PasswordResetDependencies{
		Resets:     repos.resets,
		Employees:  repos.employees,
		Hasher:     hasher,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := httptransport.NewApp(cfg.App.Name, cfg.App.TrustedProxies)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Admin: handlers.NewAdminHandler(handlers.AdminHandlerDependencies{
			Auth:      authService,
			Admins:    adminService,
			Employees: employeeService,
			Resets:    resetService,
			Resolver:  resolver,
			Carrier:   carrier,
		}),
		Employee:   handlers.NewEmployeeHandler(authService, employeeService, resetService, carrier),
		Attendance: handlers.NewAttendanceHandler(service.NewAttendanceService(repos.attendance)),
		Resolver:   resolver,
		Guard: ratelimit.NewGuard(limiter, ratelimit.Options{
			Logger:   logger,
			Recorder: metrics,
		}),
		Limits:  cfg.RateLimit,
		Metrics: adaptor.HTTPHandler(metrics.Handler()),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	cancel()
	<-sweeperDone
	<-notificationsDone
}

// buildRepositories falls back to the in-memory store when no database is
// configured, which only suits local development.
func buildRepositories(pool *pgxpool.Pool, logger *zap.Logger) repositories {
	if pool == nil {
		logger.Warn("using in-memory credential store; data is lost on restart")
		store := repository.NewMemoryStore()
		return repositories{
			admins:     store.Admins(),
			employees:  store.Employees(),
			resets:     store.PasswordResets(),
			attendance: store.Attendance(),
		}
	}
	return repositories{
		admins:     repository.NewAdminRepository(pool),
		employees:  repository.NewEmployeeRepository(pool),
		resets:     repository.NewPasswordResetRepository(pool),
		attendance: repository.NewAttendanceRepository(pool),
	}
}

// seedEmployees loads DEV_SEED_EMPLOYEES_FILE. Employees have no signup
// route, so this is how a database-less instance gets accounts.
func seedEmployees(ctx context.Context, cfg *config.Config, employees *service.EmployeeService, logger *zap.Logger) {
	path := cfg.Dev.SeedEmployeesFile
	if path == "" {
		return
	}
	if cfg.App.IsProduction() {
		logger.Warn("ignoring employee seed file in production", zap.String("path", path))
		return
	}
	file, err := os.Open(path)
	if err != nil {
		logger.Fatal("failed to open employee seed file", zap.String("path", path), zap.Error(err))
	}
	defer file.Close()
	if _, err := employees.SeedEmployees(ctx, file); err != nil {
		logger.Fatal("failed to seed employees", zap.String("path", path), zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
