package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewmark/crewmark/internal/config"
	"github.com/crewmark/crewmark/internal/store/mysql"
	"github.com/crewmark/crewmark/internal/store/postgres"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import face templates from the legacy MySQL database",
	Long: `Copy enrolled face templates from the legacy attendance system's
MySQL database into PostgreSQL. Embeddings stored as JSON text in MySQL are
decoded and written as pgvector columns.

Requires LEGACY_DATABASE_URL (MySQL DSN, must include parseTime=true) and
DATABASE_URL to be set.

Examples:
  # Preview what would be imported
  crewmark import --dry-run

  # Import everything
  crewmark import`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("dry-run", false, "List templates without writing to PostgreSQL")
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun := mustGetBool(cmd, "dry-run")

	cfg := config.Load()
	if cfg.Legacy.DatabaseURL == "" {
		return errors.New("LEGACY_DATABASE_URL environment variable is required")
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	legacyPool, err := mysql.NewPool(cfg.Legacy.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to legacy MySQL: %w", err)
	}
	defer legacyPool.Close()

	ctx := context.Background()
	legacy := mysql.NewLegacyGallery(legacyPool)
	templates, err := legacy.ActiveTemplates(ctx)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		fmt.Println("Nothing to import")
		return nil
	}

	if dryRun {
		fmt.Printf("Would import %d templates:\n", len(templates))
		for _, t := range templates {
			fmt.Printf("  %s (%s, dim %d)\n", t.PersonID, t.ModelID, len(t.Vector))
		}
		return nil
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	templateRepo := postgres.NewTemplateRepository(pool)

	bar := progressbar.Default(int64(len(templates)), "importing templates")
	imported, failed := 0, 0
	for _, t := range templates {
		t.Active = true
		if _, err := templateRepo.SaveTemplate(ctx, t); err != nil {
			fmt.Printf("\nFailed to import template for %s: %v\n", t.PersonID, err)
			failed++
		} else {
			imported++
		}
		_ = bar.Add(1)
	}

	fmt.Printf("\nImported %d templates (%d failed)\n", imported, failed)
	return nil
}
