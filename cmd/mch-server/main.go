package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mchtrack/mchtrack/internal/config"
	"github.com/mchtrack/mchtrack/internal/derive"
	"github.com/mchtrack/mchtrack/internal/domain/analytics"
	"github.com/mchtrack/mchtrack/internal/domain/identity"
	"github.com/mchtrack/mchtrack/internal/domain/patient"
	"github.com/mchtrack/mchtrack/internal/domain/policy"
	"github.com/mchtrack/mchtrack/internal/domain/resource"
	"github.com/mchtrack/mchtrack/internal/domain/twin"
	"github.com/mchtrack/mchtrack/internal/platform/auth"
	"github.com/mchtrack/mchtrack/internal/platform/inference"
	"github.com/mchtrack/mchtrack/internal/platform/middleware"
	"github.com/mchtrack/mchtrack/internal/platform/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mch-server",
		Short: "Maternal & Child Health Tracking API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the health tracking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the data directory with demo records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

// collections bundles the five snapshot-backed stores.
type collections struct {
	users     *store.Collection[identity.User]
	maternal  *store.Collection[patient.Maternal]
	pediatric *store.Collection[patient.Pediatric]
	policies  *store.Collection[policy.Scenario]
	resources *store.Collection[resource.Allocation]
}

func newCollections(dataDir string, logger zerolog.Logger) collections {
	return collections{
		users:     store.NewCollection[identity.User]("users", dataDir, logger),
		maternal:  store.NewCollection[patient.Maternal]("maternal", dataDir, logger),
		pediatric: store.NewCollection[patient.Pediatric]("pediatric", dataDir, logger),
		policies:  store.NewCollection[policy.Scenario]("policies", dataDir, logger),
		resources: store.NewCollection[resource.Allocation]("resources", dataDir, logger),
	}
}

func (c collections) load() error {
	if err := c.users.Load(func(u identity.User) string { return u.ID }); err != nil {
		return err
	}
	if err := c.maternal.Load(func(p patient.Maternal) string { return p.PatientID }); err != nil {
		return err
	}
	if err := c.pediatric.Load(func(p patient.Pediatric) string { return p.ChildID }); err != nil {
		return err
	}
	if err := c.policies.Load(func(s policy.Scenario) string { return s.ScenarioID }); err != nil {
		return err
	}
	return c.resources.Load(func(a resource.Allocation) string { return a.Region })
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
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

	for _, dir := range []string{cfg.DataDir, cfg.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Str("dir", dir).Msg("failed to create directory")
		}
	}

	// Stores
	cols := newCollections(cfg.DataDir, logger)
	if cfg.LoadDemoData {
		logger.Info().Msg("loading demo data from JSON snapshots")
		if err := cols.load(); err != nil {
			logger.Fatal().Err(err).Msg("failed to load snapshots")
		}
	} else {
		logger.Info().Msg("starting with empty database, CSV upload required for data")
	}

	// Inference
	var primary inference.RiskPredictor
	generator := inference.InsightGenerator(inference.Heuristic{})
	simulator := inference.PolicySimulator(inference.Heuristic{})
	if cfg.HFAPIKey != "" {
		client := inference.NewHFClient(cfg.HFAPIKey, cfg.HFModel, cfg.HFBaseURL, logger)
		primary = client
		generator = client
		simulator = client
	} else {
		logger.Warn().Msg("HF_API_KEY not set, risk predictions use heuristics only")
	}
	predictor := inference.NewResilient(primary, inference.Heuristic{}, logger)

	// Repositories & services
	maternalRepo := patient.NewMemMaternalRepo(cols.maternal)
	pediatricRepo := patient.NewMemPediatricRepo(cols.pediatric)
	policyRepo := policy.NewMemRepo(cols.policies)
	resourceRepo := resource.NewMemRepo(cols.resources)
	userRepo := identity.NewMemRepo(cols.users)

	deriver := derive.NewGenerator(maternalRepo, pediatricRepo, policyRepo, resourceRepo, logger)
	patientSvc := patient.NewService(maternalRepo, pediatricRepo, predictor, deriver, logger)
	policySvc := policy.NewService(policyRepo, simulator)
	resourceSvc := resource.NewService(resourceRepo, patientSvc)
	analyticsSvc := analytics.NewService(maternalRepo, pediatricRepo, predictor, generator)
	twinSvc := twin.NewService()

	tokens := auth.NewTokenManager(cfg.JWTSecret)
	identitySvc := identity.NewService(userRepo, tokens, logger)
	if err := identitySvc.EnsureDefaultUser(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("failed to create default user")
	}

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

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":      "ok",
			"environment": cfg.Env,
			"timestamp":   time.Now().Format(time.RFC3339),
		})
	})

	// Auth endpoints stay open so clients can obtain tokens.
	identity.NewHandler(identitySvc).RegisterRoutes(e.Group("/api/auth"))

	// Everything else under /api requires a token. Development mode accepts
	// unauthenticated requests with default identity values.
	api := e.Group("/api")
	if cfg.IsDev() && cfg.JWTSecret == "" {
		api.Use(auth.DevMiddleware())
	} else {
		api.Use(auth.Middleware(tokens))
	}

	patient.NewHandler(patientSvc, cfg.UploadDir, cfg.MaxFileSize).RegisterRoutes(api.Group("/patients"))
	policy.NewHandler(policySvc).RegisterRoutes(api.Group("/policy"))
	resource.NewHandler(resourceSvc).RegisterRoutes(api.Group("/resources"))
	analytics.NewHandler(analyticsSvc).RegisterRoutes(api.Group("/analytics"))
	twin.NewHandler(twinSvc).RegisterRoutes(api.Group("/digital-twins"))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// runSeed writes demo policy scenarios and resource allocations to the data
// directory and ensures the demo login exists.
func runSeed() error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	cols := newCollections(cfg.DataDir, logger)
	if err := cols.load(); err != nil {
		return err
	}

	ctx := context.Background()
	tokens := auth.NewTokenManager(cfg.JWTSecret)
	identitySvc := identity.NewService(identity.NewMemRepo(cols.users), tokens, logger)
	if err := identitySvc.EnsureDefaultUser(ctx); err != nil {
		return err
	}

	policyRepo := policy.NewMemRepo(cols.policies)
	seedScenarios := []policy.Scenario{
		{
			ScenarioID:              "PS001",
			Name:                    "Expanded Prenatal Care",
			Description:             "Increase prenatal visits from 4 to 8 for all pregnancies",
			MaternalMortalityChange: -18,
			InfantMortalityChange:   -12,
			CostIncrease:            15,
			ImplementationTime:      "6 months",
		},
		{
			ScenarioID:              "PS002",
			Name:                    "Telehealth Integration",
			Description:             "Provide telehealth options for 50% of routine prenatal checkups",
			MaternalMortalityChange: -10,
			InfantMortalityChange:   -8,
			CostIncrease:            8,
			ImplementationTime:      "3 months",
		},
		{
			ScenarioID:              "PS003",
			Name:                    "Community Health Workers",
			Description:             "Deploy community health workers in high-risk neighborhoods",
			MaternalMortalityChange: -25,
			InfantMortalityChange:   -20,
			CostIncrease:            22,
			ImplementationTime:      "9 months",
		},
	}
	for _, s := range seedScenarios {
		if _, err := policyRepo.Upsert(ctx, s); err != nil {
			return err
		}
	}
	logger.Info().Int("count", len(seedScenarios)).Msg("policy scenarios seeded")

	resourceRepo := resource.NewMemRepo(cols.resources)
	seedResources := []resource.Allocation{
		{Region: "North County", NICUBeds: 12, ObGynStaff: 8, VaccineStock: 85},
		{Region: "Central District", NICUBeds: 18, ObGynStaff: 15, VaccineStock: 65},
		{Region: "South County", NICUBeds: 8, ObGynStaff: 6, VaccineStock: 90},
		{Region: "East Region", NICUBeds: 15, ObGynStaff: 12, VaccineStock: 75},
		{Region: "West Region", NICUBeds: 10, ObGynStaff: 9, VaccineStock: 80},
	}
	for _, a := range seedResources {
		a.LastUpdated = time.Now()
		if _, err := resourceRepo.Upsert(ctx, a); err != nil {
			return err
		}
	}
	logger.Info().Int("count", len(seedResources)).Msg("resource allocations seeded")

	fmt.Println("Seeding completed. Demo credentials: demo@healthai.com / password123")
	return nil
}
