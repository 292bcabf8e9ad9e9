package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crewmark/crewmark/internal/store"
)

// AssignmentRepository provides PostgreSQL-backed assignment lookups and the
// COMPLETED status flip.
type AssignmentRepository struct {
	pool *Pool
}

// NewAssignmentRepository creates a new PostgreSQL assignment repository.
func NewAssignmentRepository(pool *Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// FindAssignment returns the assignment for (person, event), or nil.
func (r *AssignmentRepository) FindAssignment(ctx context.Context, personID string, eventID int64) (*store.Assignment, error) {
	var a store.Assignment
	err := r.pool.QueryRow(ctx, `
		SELECT id, person_id, event_id, planned_date, status
		FROM assignments
		WHERE person_id = $1 AND event_id = $2
	`, personID, eventID).Scan(&a.ID, &a.PersonID, &a.EventID, &a.PlannedDate, &a.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, store.NewStorageError("query assignment", err)
	}
	return &a, nil
}

// MarkCompleted sets the assignment status to COMPLETED.
func (r *AssignmentRepository) MarkCompleted(ctx context.Context, assignmentID int64) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE assignments SET status = $1 WHERE id = $2
	`, store.AssignmentCompleted, assignmentID)
	if err != nil {
		return false, store.NewStorageError("mark assignment completed", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, store.NewStorageError("mark assignment completed rows", err)
	}
	return affected > 0, nil
}
