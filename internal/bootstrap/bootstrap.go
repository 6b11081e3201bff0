package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/oussamael/internhub/internal/app/controllers"
	appMigrations "github.com/oussamael/internhub/internal/app/migrations"
	appRepos "github.com/oussamael/internhub/internal/app/repositories"
	appRoutes "github.com/oussamael/internhub/internal/app/routes"
	"github.com/oussamael/internhub/internal/app/scope"
	appServices "github.com/oussamael/internhub/internal/app/services"
	"github.com/oussamael/internhub/internal/config"
	"github.com/oussamael/internhub/internal/db"
	"github.com/oussamael/internhub/internal/identity"
	appMiddleware "github.com/oussamael/internhub/internal/middleware"
	pkgAuth "github.com/oussamael/internhub/internal/pkg/auth"
	"github.com/oussamael/internhub/internal/pkg/helpers"
	"github.com/oussamael/internhub/internal/pkg/logger"
	"github.com/oussamael/internhub/internal/scheduler"
	"github.com/oussamael/internhub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos                *appRepos.Repositories
	ScopeResolver        *scope.Resolver
	AuthService          *appServices.AuthService
	DashboardService     *appServices.DashboardService
	InternshipService    *appServices.InternshipService
	AlertService         *appServices.AlertService
	ObligationService    *appServices.ObligationService
	SweepService         *appServices.SweepService
	AuthController       *appControllers.AuthController
	DashboardController  *appControllers.DashboardController
	InternshipController *appControllers.InternshipController
	AlertController      *appControllers.AlertController
	SweepController      *appControllers.SweepController
	AuthMiddleware       *appMiddleware.AuthMiddleware
	JWTService           *pkgAuth.JWTService
	Scheduler            *scheduler.Scheduler
	RedisClient          *redis.Client
	Logger               zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}
	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)
	deps.ScopeResolver = scope.NewResolver(identity.NewPostgresProvider(dbPool))

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.JWTService)

	deps.DashboardService = appServices.NewDashboardService(
		deps.ScopeResolver,
		deps.Repos.InternshipRepository,
		deps.Repos.StudentRepository,
		deps.Repos.SupervisorRepository,
		deps.Repos.TaskRepository,
		deps.Repos.MeetingRepository,
		deps.Repos.DocumentRepository,
		deps.Repos.AlertRepository,
		cfg.Dashboard.RefreshHint,
	)

	deps.ObligationService = appServices.NewObligationService(
		deps.Repos.AlertRepository,
		deps.Repos.SupervisorRepository,
		appServices.NewLogNotifier(),
	)

	deps.InternshipService = appServices.NewInternshipService(
		deps.ScopeResolver,
		deps.Repos.InternshipRepository,
		deps.Repos.TaskRepository,
		deps.Repos.StudentRepository,
		deps.ObligationService,
	)

	deps.AlertService = appServices.NewAlertService(deps.Repos.AlertRepository)

	// The run-lock is shared through Redis when available so only one
	// instance sweeps at a time. A single-node deployment gets the
	// in-process locker.
	var locker scheduler.Locker
	if cfg.Redis.Enabled {
		deps.RedisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := deps.RedisClient.Ping(context.Background()).Err(); err != nil {
			lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = scheduler.NewRedisLocker(deps.RedisClient)
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis sweep run-lock")
	} else {
		locker = scheduler.NewMemoryLocker()
		lgr.Info().Msg("Using in-process sweep run-lock")
	}

	deps.SweepService = appServices.NewSweepService(
		deps.Repos.TaskRepository,
		deps.Repos.InternshipRepository,
		deps.ObligationService,
		locker,
		cfg.SweepStallThreshold(),
		cfg.SweepLockTTL(),
	)

	deps.Scheduler = scheduler.New()
	deps.Scheduler.Register(appServices.NewAnomalySweepJob(deps.SweepService), cfg.SweepInterval())

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService)
	deps.DashboardController = appControllers.NewDashboardController(deps.DashboardService)
	deps.InternshipController = appControllers.NewInternshipController(deps.InternshipService)
	deps.AlertController = appControllers.NewAlertController(deps.AlertService)
	deps.SweepController = appControllers.NewSweepController(deps.SweepService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(), gin.Recovery())

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.DashboardController,
		deps.InternshipController,
		deps.AlertController,
		deps.SweepController,
		deps.AuthMiddleware,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
