package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crewmark/crewmark/internal/store"
	"github.com/pgvector/pgvector-go"
)

// TemplateRepository provides PostgreSQL-backed face template storage.
type TemplateRepository struct {
	pool *Pool
}

// NewTemplateRepository creates a new PostgreSQL template repository.
func NewTemplateRepository(pool *Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// ActiveTemplates returns active templates of active persons, oldest
// enrollment first so matching tie-breaks stay deterministic.
func (r *TemplateRepository) ActiveTemplates(ctx context.Context) ([]store.FaceTemplate, error) {
	query := `
		SELECT t.id, t.person_id, t.embedding, t.model_id,
		       t.enrollment_confidence, t.active, t.created_at, t.updated_at
		FROM face_templates t
		INNER JOIN people p ON t.person_id = p.person_id
		WHERE t.active AND p.active
		ORDER BY t.id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, store.NewStorageError("query active templates", err)
	}
	defer rows.Close()

	return scanTemplates(rows)
}

// GetActiveTemplate returns the person's active template, or nil.
func (r *TemplateRepository) GetActiveTemplate(ctx context.Context, personID string) (*store.FaceTemplate, error) {
	query := `
		SELECT id, person_id, embedding, model_id,
		       enrollment_confidence, active, created_at, updated_at
		FROM face_templates
		WHERE person_id = $1 AND active
	`

	var t store.FaceTemplate
	var vec pgvector.Vector
	err := r.pool.QueryRow(ctx, query, personID).Scan(
		&t.ID, &t.PersonID, &vec, &t.ModelID,
		&t.EnrollmentConfidence, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, store.NewStorageError("query active template", err)
	}
	t.Vector = vec.Slice()
	return &t, nil
}

// SaveTemplate deactivates any prior active template for the person and
// inserts the new one as active, in one transaction.
func (r *TemplateRepository) SaveTemplate(ctx context.Context, t store.FaceTemplate) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, store.NewStorageError("begin save template", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE face_templates SET active = FALSE, updated_at = NOW()
		WHERE person_id = $1 AND active
	`, t.PersonID); err != nil {
		return 0, store.NewStorageError("deactivate prior template", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO face_templates
			(person_id, embedding, model_id, enrollment_confidence, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id
	`, t.PersonID, pgvector.NewVector(t.Vector), t.ModelID, t.EnrollmentConfidence).Scan(&id)
	if err != nil {
		return 0, store.NewStorageError("insert template", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, store.NewStorageError("commit save template", err)
	}
	return id, nil
}

// DeactivateTemplate marks the person's active template inactive.
func (r *TemplateRepository) DeactivateTemplate(ctx context.Context, personID string) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE face_templates SET active = FALSE, updated_at = NOW()
		WHERE person_id = $1 AND active
	`, personID)
	if err != nil {
		return false, store.NewStorageError("deactivate template", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, store.NewStorageError("deactivate template rows", err)
	}
	return affected > 0, nil
}

// scanTemplates reads template rows into a slice.
func scanTemplates(rows *sql.Rows) ([]store.FaceTemplate, error) {
	var templates []store.FaceTemplate
	for rows.Next() {
		var t store.FaceTemplate
		var vec pgvector.Vector
		var createdAt, updatedAt time.Time
		if err := rows.Scan(
			&t.ID, &t.PersonID, &vec, &t.ModelID,
			&t.EnrollmentConfidence, &t.Active, &createdAt, &updatedAt,
		); err != nil {
			return nil, store.NewStorageError("scan template", err)
		}
		t.Vector = vec.Slice()
		t.CreatedAt = createdAt
		t.UpdatedAt = updatedAt
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("iterate templates", err)
	}
	return templates, nil
}
