package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crewmark/crewmark/internal/attendance"
	"github.com/crewmark/crewmark/internal/config"
	"github.com/crewmark/crewmark/internal/extractor"
	"github.com/crewmark/crewmark/internal/matcher"
	"github.com/crewmark/crewmark/internal/store/postgres"
	"github.com/crewmark/crewmark/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the Crewmark API server.
The server accepts face captures, matches them against enrolled templates
and records attendance transitions for planned events.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// matchingParams builds the accept/reject policy from configuration. When the
// distance threshold was not set explicitly, the calibration of the configured
// embedding model wins over the generic default.
func matchingParams(cfg *config.Config, model string) matcher.Params {
	params := matcher.Params{
		DistanceThreshold:   cfg.Matching.DistanceThreshold,
		ConfidenceThreshold: cfg.Matching.ConfidenceThreshold,
		AmbiguityMargin:     cfg.Matching.AmbiguityMargin,
		MaxCandidates:       cfg.Matching.MaxCandidates,
	}
	if os.Getenv("FACE_DISTANCE_THRESHOLD") == "" {
		if profile := cfg.ModelProfile(model); profile.DistanceThreshold > 0 {
			params.DistanceThreshold = profile.DistanceThreshold
		}
	}
	return params
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	mode, err := attendance.ParseCheckoutMode(cfg.Attendance.CheckoutMode)
	if err != nil {
		return err
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	if err := pool.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	templateRepo := postgres.NewTemplateRepository(pool)
	personRepo := postgres.NewPersonRepository(pool)
	assignmentRepo := postgres.NewAssignmentRepository(pool)
	recordRepo := postgres.NewRecordRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)

	ext := extractor.NewClient(cfg.Extractor.URL, cfg.Extractor.Model)
	params := matchingParams(cfg, ext.Model())

	tracker := attendance.NewTracker(recordRepo, assignmentRepo, mode)
	pipeline := attendance.NewPipeline(templateRepo, personRepo, assignmentRepo, tracker, params)

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, ext, pipeline, web.Stores{
		Templates: templateRepo,
		People:    personRepo,
		Records:   recordRepo,
		Events:    eventRepo,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Crewmark API on http://%s:%d\n", host, port)
	fmt.Printf("Extractor: %s (model %s, checkout mode %s)\n", cfg.Extractor.URL, ext.Model(), mode)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
