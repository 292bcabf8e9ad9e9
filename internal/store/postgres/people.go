package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crewmark/crewmark/internal/roster"
	"github.com/crewmark/crewmark/internal/store"
)

// PersonRepository provides PostgreSQL-backed roster lookups.
type PersonRepository struct {
	pool *Pool
}

// NewPersonRepository creates a new PostgreSQL person repository.
func NewPersonRepository(pool *Pool) *PersonRepository {
	return &PersonRepository{pool: pool}
}

// GetPerson returns the person, or nil if unknown.
func (r *PersonRepository) GetPerson(ctx context.Context, personID string) (*store.Person, error) {
	var p store.Person
	err := r.pool.QueryRow(ctx, `
		SELECT person_id, first_name, last_name, department, position, active
		FROM people WHERE person_id = $1
	`, personID).Scan(&p.PersonID, &p.FirstName, &p.LastName, &p.Department, &p.Position, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, store.NewStorageError("query person", err)
	}
	return &p, nil
}

// SearchPeople finds people whose name contains the query, ignoring case and
// diacritics. The SQL normalization (LOWER + unaccent + dashes to spaces)
// mirrors roster.NormalizeName.
func (r *PersonRepository) SearchPeople(ctx context.Context, query string) ([]store.Person, error) {
	normalized := roster.NormalizeName(query)

	rows, err := r.pool.Query(ctx, `
		SELECT person_id, first_name, last_name, department, position, active
		FROM people
		WHERE LOWER(REPLACE(unaccent(first_name || ' ' || last_name), '-', ' ')) LIKE '%' || $1 || '%'
		ORDER BY last_name, first_name
	`, normalized)
	if err != nil {
		return nil, store.NewStorageError("search people", err)
	}
	defer rows.Close()

	var people []store.Person
	for rows.Next() {
		var p store.Person
		if err := rows.Scan(&p.PersonID, &p.FirstName, &p.LastName, &p.Department, &p.Position, &p.Active); err != nil {
			return nil, store.NewStorageError("scan person", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("iterate people", err)
	}
	return people, nil
}
