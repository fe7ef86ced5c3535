package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/DanielGlez0/SCEP/internal/config"
	"github.com/DanielGlez0/SCEP/internal/domain/assessment"
	"github.com/DanielGlez0/SCEP/internal/domain/questionnaire"
	"github.com/DanielGlez0/SCEP/internal/platform/auth"
	"github.com/DanielGlez0/SCEP/internal/platform/db"
	"github.com/DanielGlez0/SCEP/internal/platform/metrics"
	"github.com/DanielGlez0/SCEP/internal/platform/middleware"
	"github.com/DanielGlez0/SCEP/internal/platform/validation"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scep-server",
		Short: "Clinical questionnaire assignment server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), dir, func(ctx context.Context, m *db.Migrator) error {
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("applied %d migration(s)\n", n)
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), dir, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied " + s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Printf("%03d  %-40s %s\n", s.Version, s.Name, state)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, statusCmd)
	return cmd
}

func withMigrator(ctx context.Context, dir string, fn func(context.Context, *db.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dir == "" {
		dir = cfg.MigrationsDir
	}

	pool, err := db.NewPool(ctx, poolOptions(cfg, newLogger(cfg)))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, dir))
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.SetGlobalLevel(cfg.Level())
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func poolOptions(cfg *config.Config, logger zerolog.Logger) db.PoolOptions {
	return db.PoolOptions{
		URL:       cfg.DatabaseURL,
		MaxConns:  cfg.DBMaxConns,
		MinConns:  cfg.DBMinConns,
		SlowQuery: cfg.DBSlowQuery,
		Logger:    logger,
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, poolOptions(cfg, logger))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics(m))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader,
			auth.DevRoleHeader, auth.DevClinicianIDHeader, auth.DevPatientIDHeader,
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", m.Handler())

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		logger.Warn().Msg("development mode: requests are authenticated with dev headers")
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	registerDomains(apiV1, pool, logger, m)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func registerDomains(api *echo.Group, pool *pgxpool.Pool, logger zerolog.Logger, m *metrics.Metrics) {
	assignmentRepo := assessment.NewAssignmentRepoPG(pool)

	// Questionnaire catalogue
	catalogueSvc := questionnaire.NewService(
		questionnaire.NewQuestionnaireRepoPG(pool),
		questionnaire.NewQuestionRepoPG(pool),
		assignmentRepo,
	)
	questionnaire.NewHandler(catalogueSvc).RegisterRoutes(api)

	// Assignment lifecycle
	assessmentSvc := assessment.NewService(
		assignmentRepo,
		assessment.NewResponseRepoPG(pool),
		assessment.NewPatientDirectoryPG(pool),
		catalogueSvc,
		db.NewTransactor(pool),
		logger,
	)
	assessmentSvc.SetMetrics(m)
	assessment.NewHandler(assessmentSvc).RegisterRoutes(api)
}
