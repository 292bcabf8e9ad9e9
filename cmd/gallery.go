package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewmark/crewmark/internal/config"
	"github.com/crewmark/crewmark/internal/matcher"
	"github.com/crewmark/crewmark/internal/store/postgres"
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect the enrolled template gallery",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active face templates",
	RunE:  runGalleryList,
}

var galleryAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Find suspiciously similar templates of different people",
	Long: `Audit the gallery for template pairs of different people that are
close enough to cause ambiguous matches at the kiosk. Pairs are found with an
approximate nearest neighbor index and reported with exact distances.`,
	RunE: runGalleryAudit,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryAuditCmd)

	galleryAuditCmd.Flags().Float64("max-distance", matcher.DefaultDistanceThreshold, "Report pairs closer than this cosine distance")
}

func openGallery() (*postgres.Pool, *postgres.TemplateRepository, *config.Config, error) {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return nil, nil, nil, errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return pool, postgres.NewTemplateRepository(pool), cfg, nil
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	pool, templateRepo, _, err := openGallery()
	if err != nil {
		return err
	}
	defer pool.Close()

	templates, err := templateRepo.ActiveTemplates(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%-8s %-20s %-12s %-6s %s\n", "ID", "PERSON", "MODEL", "DIM", "ENROLLED")
	for _, t := range templates {
		fmt.Printf("%-8d %-20s %-12s %-6d %s\n",
			t.ID, t.PersonID, t.ModelID, len(t.Vector), t.CreatedAt.Format("2006-01-02"))
	}
	fmt.Printf("\n%d active templates\n", len(templates))
	return nil
}

func runGalleryAudit(cmd *cobra.Command, args []string) error {
	maxDistance := mustGetFloat64(cmd, "max-distance")

	pool, templateRepo, _, err := openGallery()
	if err != nil {
		return err
	}
	defer pool.Close()

	templates, err := templateRepo.ActiveTemplates(context.Background())
	if err != nil {
		return err
	}

	pairs, err := matcher.AuditGallery(templates, maxDistance)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		fmt.Printf("No template pairs closer than %.3f among %d templates\n", maxDistance, len(templates))
		return nil
	}

	fmt.Printf("%-20s %-20s %s\n", "PERSON A", "PERSON B", "DISTANCE")
	for _, p := range pairs {
		fmt.Printf("%-20s %-20s %.4f\n", p.PersonA, p.PersonB, p.Distance)
	}
	fmt.Printf("\n%d pairs closer than %.3f; consider re-enrolling with better captures\n", len(pairs), maxDistance)
	return nil
}
