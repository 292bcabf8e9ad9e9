// Package mysql reads enrolled templates out of the legacy attendance
// system's MySQL database, where embeddings live as JSON arrays in a
// LONGTEXT column. It exists for the one-time import into PostgreSQL.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/crewmark/crewmark/internal/store"
	_ "github.com/go-sql-driver/mysql"
)

// Pool manages a MySQL connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MySQL connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MySQL DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// LegacyGallery reads active templates from the legacy schema.
type LegacyGallery struct {
	pool *Pool
}

// NewLegacyGallery creates a reader over the legacy face_embeddings table.
func NewLegacyGallery(pool *Pool) *LegacyGallery {
	return &LegacyGallery{pool: pool}
}

// ActiveTemplates returns active templates of active crew members, oldest
// first. Rows whose embedding column fails to decode are skipped with a log
// line rather than aborting the whole import.
func (g *LegacyGallery) ActiveTemplates(ctx context.Context) ([]store.FaceTemplate, error) {
	rows, err := g.pool.db.QueryContext(ctx, `
		SELECT fe.id, fe.crew_id, fe.embedding, fe.modelo, fe.confidence, fe.created_at
		FROM face_embeddings fe
		INNER JOIN tripulantes t ON fe.crew_id = t.crew_id
		WHERE fe.active = TRUE AND t.estatus = 1
		ORDER BY fe.id
	`)
	if err != nil {
		return nil, store.NewStorageError("query legacy embeddings", err)
	}
	defer rows.Close()

	var templates []store.FaceTemplate
	for rows.Next() {
		var (
			t         store.FaceTemplate
			raw       []byte
			createdAt sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.PersonID, &raw, &t.ModelID, &t.EnrollmentConfidence, &createdAt); err != nil {
			return nil, store.NewStorageError("scan legacy embedding", err)
		}

		var vector []float32
		if err := json.Unmarshal(raw, &vector); err != nil {
			log.Printf("mysql: skipping embedding for %s: %v", t.PersonID, err)
			continue
		}

		t.Vector = vector
		t.Active = true
		if createdAt.Valid {
			t.CreatedAt = createdAt.Time
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("iterate legacy embeddings", err)
	}
	return templates, nil
}
