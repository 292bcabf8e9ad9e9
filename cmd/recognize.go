package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/crewmark/crewmark/internal/attendance"
	"github.com/crewmark/crewmark/internal/config"
	"github.com/crewmark/crewmark/internal/extractor"
	"github.com/crewmark/crewmark/internal/matcher"
	"github.com/crewmark/crewmark/internal/store"
	"github.com/crewmark/crewmark/internal/store/postgres"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <photo-file>",
	Short: "Recognize a face and record attendance for an event",
	Long: `Run one recognition attempt from a photo file against an event,
exactly like a POST to /api/v1/recognize. Intended for kiosks without a
camera client and for debugging threshold settings.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Int("event", 0, "Event ID to record attendance for (required)")
	recognizeCmd.Flags().String("recorded-by", "crewmark-cli", "Operator identifier stored on the record")
	recognizeCmd.Flags().Bool("dry-run", false, "Match only, do not record attendance")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	photoPath := args[0]
	eventID := int64(mustGetInt(cmd, "event"))
	recordedBy := mustGetString(cmd, "recorded-by")
	dryRun := mustGetBool(cmd, "dry-run")

	if eventID <= 0 && !dryRun {
		return errors.New("--event is required unless --dry-run is set")
	}

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	mode, err := attendance.ParseCheckoutMode(cfg.Attendance.CheckoutMode)
	if err != nil {
		return err
	}

	imageData, err := os.ReadFile(photoPath)
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}
	if !extractor.ValidateImage(imageData, cfg.API.MaxUploadSize) {
		return errors.New("photo must be a JPEG, PNG, GIF or WebP image within the size limit")
	}
	if scaled, err := extractor.Downscale(imageData, extractor.MaxCaptureDimension); err == nil {
		imageData = scaled
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	ext := extractor.NewClient(cfg.Extractor.URL, cfg.Extractor.Model)
	params := matchingParams(cfg, ext.Model())

	probe, err := ext.Extract(ctx, imageData)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if probe == nil {
		return errors.New("no usable face detected in the photo")
	}

	templateRepo := postgres.NewTemplateRepository(pool)
	personRepo := postgres.NewPersonRepository(pool)

	if dryRun {
		return printDryRunMatch(ctx, templateRepo, probe, params)
	}

	assignmentRepo := postgres.NewAssignmentRepository(pool)
	recordRepo := postgres.NewRecordRepository(pool)
	tracker := attendance.NewTracker(recordRepo, assignmentRepo, mode)
	pipeline := attendance.NewPipeline(templateRepo, personRepo, assignmentRepo, tracker, params)

	outcome, err := pipeline.Process(ctx, probe, eventID, time.Now(), recordedBy)
	if err != nil {
		return err
	}

	switch outcome.Kind {
	case attendance.OutcomeMatchRejected:
		fmt.Printf("Rejected: %s\n", outcome.Reason)
	case attendance.OutcomePersonInactive:
		fmt.Printf("Rejected: matched person is not active (confidence %.3f)\n", outcome.Confidence)
	case attendance.OutcomeNotAssigned:
		fmt.Printf("Rejected: %s is not assigned to event %d (confidence %.3f)\n",
			outcome.Person.FullName(), eventID, outcome.Confidence)
	case attendance.OutcomeAlreadyCheckedOut:
		fmt.Printf("Rejected: %s already checked out today\n", outcome.Person.FullName())
	case attendance.OutcomeRecorded:
		fmt.Printf("%s: %s (confidence %.3f, distance %.3f, record %s)\n",
			outcome.Transition, outcome.Person.FullName(), outcome.Confidence, outcome.Distance, outcome.Record.ID)
	}
	return nil
}

// printDryRunMatch ranks the probe against the gallery and prints the
// candidate list plus the verdict, without touching attendance records.
func printDryRunMatch(ctx context.Context, gallery store.GalleryReader, probe []float32, params matcher.Params) error {
	templates, err := gallery.ActiveTemplates(ctx)
	if err != nil {
		return err
	}

	candidates := matcher.Rank(probe, templates, params)
	if len(candidates) == 0 {
		fmt.Println("No candidates within the distance threshold")
		return nil
	}

	fmt.Printf("%-4s %-20s %-10s %s\n", "#", "PERSON", "DISTANCE", "CONFIDENCE")
	for i, c := range candidates {
		fmt.Printf("%-4d %-20s %-10.4f %.4f\n", i+1, c.PersonID, c.Distance, c.Confidence)
	}

	verdict := matcher.Match(probe, templates, params)
	if verdict.Accepted {
		fmt.Printf("\nVerdict: accept %s (confidence %.3f)\n", verdict.PersonID, verdict.Confidence)
	} else {
		fmt.Printf("\nVerdict: reject (%s)\n", verdict.Reason)
	}
	return nil
}
