package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/crewmark/crewmark/internal/config"
	"github.com/crewmark/crewmark/internal/extractor"
	"github.com/crewmark/crewmark/internal/store"
	"github.com/crewmark/crewmark/internal/store/postgres"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <person-id> <photo-file>",
	Short: "Enroll a face template from a photo",
	Long: `Extract a face embedding from a photo file and store it as the
person's active template. Any prior active template is deactivated; a person
has at most one active template at a time.`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	personID, photoPath := args[0], args[1]

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
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
	if err := pool.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	personRepo := postgres.NewPersonRepository(pool)
	person, err := personRepo.GetPerson(ctx, personID)
	if err != nil {
		return err
	}
	if person == nil {
		return fmt.Errorf("person %s not found", personID)
	}
	if !person.Active {
		return fmt.Errorf("person %s is not active", personID)
	}

	ext := extractor.NewClient(cfg.Extractor.URL, cfg.Extractor.Model)
	vector, err := ext.Extract(ctx, imageData)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if vector == nil {
		return errors.New("photo must contain exactly one clear face")
	}

	templateRepo := postgres.NewTemplateRepository(pool)
	templateID, err := templateRepo.SaveTemplate(ctx, store.FaceTemplate{
		PersonID:             personID,
		Vector:               vector,
		ModelID:              ext.Model(),
		EnrollmentConfidence: 1.0,
		Active:               true,
		CreatedAt:            time.Now(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Enrolled template %d for %s (%s, dim %d)\n", templateID, person.FullName(), ext.Model(), len(vector))
	return nil
}
