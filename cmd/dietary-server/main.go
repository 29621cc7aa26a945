package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dietary/dietary/internal/config"
	"github.com/dietary/dietary/internal/domain/catalog"
	"github.com/dietary/dietary/internal/domain/order"
	"github.com/dietary/dietary/internal/domain/patient"
	"github.com/dietary/dietary/internal/platform/auth"
	"github.com/dietary/dietary/internal/platform/db"
	"github.com/dietary/dietary/internal/platform/middleware"
	"github.com/dietary/dietary/internal/platform/sandbox"
)

// CatalogSourceAdapter adapts the catalog repository to the
// patient.CatalogSource interface, avoiding a circular import between
// the patient and catalog packages.
type CatalogSourceAdapter struct {
	repo catalog.ItemRepository
}

func (a *CatalogSourceAdapter) ActiveItems(ctx context.Context) ([]*catalog.Item, error) {
	// The whole active menu fits in one page by a wide margin.
	items, _, err := a.repo.List(ctx, true, 1000, 0)
	return items, err
}

// PatientSourceAdapter exposes patient lookups to the order domain.
type PatientSourceAdapter struct {
	svc *patient.Service
}

func (a *PatientSourceAdapter) Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return a.svc.GetPatient(ctx, id)
}

// SelectionSourceAdapter exposes day selections to the order domain.
type SelectionSourceAdapter struct {
	svc *patient.Service
}

func (a *SelectionSourceAdapter) DaySelections(ctx context.Context, patientID uuid.UUID, date time.Time) (*patient.DayState, error) {
	return a.svc.DaySelections(ctx, patientID, date)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dietary-server",
		Short: "Hospital dietary ordering API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dietary API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate an empty database with demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("patients")
			seed, _ := cmd.Flags().GetInt64("seed")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			itemRepo := catalog.NewItemRepoPG(pool)
			catalogSvc := catalog.NewService(itemRepo)
			patientRepo := patient.NewRepository(pool)
			selectionRepo := patient.NewSelectionRepository(pool)
			patientSvc := patient.NewService(patientRepo, selectionRepo,
				&CatalogSourceAdapter{repo: itemRepo}, patient.DefaultDietRules(), pool)

			seedCfg := sandbox.DefaultSeedConfig()
			if count > 0 {
				seedCfg.PatientCount = count
			}
			if seed != 0 {
				seedCfg.Seed = seed
			}

			result, err := sandbox.NewSeeder(catalogSvc, patientSvc, seedCfg).Run(ctx)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Printf("Seeded %d items, %d patients, %d selections in %s.\n",
				result.Items, result.Patients, result.Selections, result.Elapsed)
			return nil
		},
	}
	cmd.Flags().Int("patients", 0, "Number of patients to admit")
	cmd.Flags().Int64("seed", 0, "Random seed for reproducible data")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	// PHI access audit log
	e.Use(middleware.Audit(logger))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "dietary",
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// -- Register domain handlers --

	// Food catalog
	itemRepo := catalog.NewItemRepoPG(pool)
	catalogSvc := catalog.NewService(itemRepo)
	catalog.NewHandler(catalogSvc).RegisterRoutes(apiV1)

	// Patients, diet profiles and meal selections
	patientRepo := patient.NewRepository(pool)
	selectionRepo := patient.NewSelectionRepository(pool)
	patientSvc := patient.NewService(patientRepo, selectionRepo,
		&CatalogSourceAdapter{repo: itemRepo}, patient.DefaultDietRules(), pool)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Kitchen orders, aggregation and finalized tray tickets
	orderRepo := order.NewRepository(pool)
	finalizedRepo := order.NewFinalizedRepository(pool)
	orderSvc := order.NewService(orderRepo, finalizedRepo,
		&PatientSourceAdapter{svc: patientSvc},
		&SelectionSourceAdapter{svc: patientSvc}, pool)
	order.NewHandler(orderSvc).RegisterRoutes(apiV1)

	logger.Info().Str("port", cfg.Port).Msg("starting server")
	return e.Start(":" + cfg.Port)
}
