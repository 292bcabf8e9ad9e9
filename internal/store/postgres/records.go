package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crewmark/crewmark/internal/store"
	"github.com/google/uuid"
)

// RecordRepository provides PostgreSQL-backed attendance record storage.
type RecordRepository struct {
	pool *Pool
}

// NewRecordRepository creates a new PostgreSQL record repository.
func NewRecordRepository(pool *Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// FindToday returns the record for the (person, event, date) triple, or nil.
func (r *RecordRepository) FindToday(ctx context.Context, personID string, eventID int64, day time.Time) (*store.AttendanceRecord, error) {
	var rec store.AttendanceRecord
	var checkIn, checkOut sql.NullTime
	err := r.pool.QueryRow(ctx, `
		SELECT id, person_id, event_id, record_date,
		       check_in_time, check_out_time, processed, recorded_by
		FROM attendance_records
		WHERE person_id = $1 AND event_id = $2 AND record_date = $3
	`, personID, eventID, day).Scan(
		&rec.ID, &rec.PersonID, &rec.EventID, &rec.Date,
		&checkIn, &checkOut, &rec.Processed, &rec.RecordedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, store.NewStorageError("query today's record", err)
	}
	if checkIn.Valid {
		rec.CheckInTime = &checkIn.Time
	}
	if checkOut.Valid {
		rec.CheckOutTime = &checkOut.Time
	}
	return &rec, nil
}

// Insert creates the record. The unique (person, event, date) constraint is
// the conditional write that serializes racing first scans: when another
// writer got there first, nothing is written and ErrDuplicateRecord comes
// back.
func (r *RecordRepository) Insert(ctx context.Context, rec *store.AttendanceRecord) (string, error) {
	id := uuid.NewString()
	var inserted string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO attendance_records
			(id, person_id, event_id, record_date, check_in_time, check_out_time, processed, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (person_id, event_id, record_date) DO NOTHING
		RETURNING id
	`, id, rec.PersonID, rec.EventID, rec.Date,
		rec.CheckInTime, rec.CheckOutTime, rec.Processed, rec.RecordedBy,
	).Scan(&inserted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrDuplicateRecord
	}
	if err != nil {
		return "", store.NewStorageError("insert record", err)
	}
	return inserted, nil
}

// Update applies the non-nil fields to an existing record.
func (r *RecordRepository) Update(ctx context.Context, recordID string, fields store.RecordUpdate) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE attendance_records SET
			check_out_time = COALESCE($2, check_out_time),
			processed      = COALESCE($3, processed)
		WHERE id = $1
	`, recordID, fields.CheckOutTime, fields.Processed)
	if err != nil {
		return store.NewStorageError("update record", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStorageError("update record rows", err)
	}
	if affected == 0 {
		return store.NewStorageError("update record", errors.New("record not found"))
	}
	return nil
}

// Recent returns the most recent records with display fields, newest first.
func (r *RecordRepository) Recent(ctx context.Context, limit int) ([]store.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.person_id, r.event_id, r.record_date,
		       r.check_in_time, r.check_out_time, r.processed, r.recorded_by,
		       p.first_name || ' ' || p.last_name, e.description
		FROM attendance_records r
		INNER JOIN people p ON r.person_id = p.person_id
		INNER JOIN events e ON r.event_id = e.event_id
		ORDER BY GREATEST(
			COALESCE(r.check_in_time, 'epoch'::timestamptz),
			COALESCE(r.check_out_time, 'epoch'::timestamptz)
		) DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, store.NewStorageError("query recent records", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// OnDate returns all records for a calendar date with display fields.
func (r *RecordRepository) OnDate(ctx context.Context, day time.Time) ([]store.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.person_id, r.event_id, r.record_date,
		       r.check_in_time, r.check_out_time, r.processed, r.recorded_by,
		       p.first_name || ' ' || p.last_name, e.description
		FROM attendance_records r
		INNER JOIN people p ON r.person_id = p.person_id
		INNER JOIN events e ON r.event_id = e.event_id
		WHERE r.record_date = $1
		ORDER BY COALESCE(r.check_in_time, r.check_out_time)
	`, day)
	if err != nil {
		return nil, store.NewStorageError("query records by date", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// StatsOnDate aggregates per-event check-in and check-out counts for a
// calendar date.
func (r *RecordRepository) StatsOnDate(ctx context.Context, day time.Time) ([]store.EventDayStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.event_id, e.description,
		       COUNT(r.check_in_time), COUNT(r.check_out_time)
		FROM attendance_records r
		INNER JOIN events e ON r.event_id = e.event_id
		WHERE r.record_date = $1
		GROUP BY r.event_id, e.description
		ORDER BY r.event_id
	`, day)
	if err != nil {
		return nil, store.NewStorageError("query record stats", err)
	}
	defer rows.Close()

	var stats []store.EventDayStats
	for rows.Next() {
		var s store.EventDayStats
		if err := rows.Scan(&s.EventID, &s.Event, &s.CheckIns, &s.CheckOuts); err != nil {
			return nil, store.NewStorageError("scan record stats", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("iterate record stats", err)
	}
	return stats, nil
}

// scanRecords reads record rows (with display fields) into a slice.
func scanRecords(rows *sql.Rows) ([]store.AttendanceRecord, error) {
	var records []store.AttendanceRecord
	for rows.Next() {
		var rec store.AttendanceRecord
		var checkIn, checkOut sql.NullTime
		if err := rows.Scan(
			&rec.ID, &rec.PersonID, &rec.EventID, &rec.Date,
			&checkIn, &checkOut, &rec.Processed, &rec.RecordedBy,
			&rec.PersonName, &rec.EventDescription,
		); err != nil {
			return nil, store.NewStorageError("scan record", err)
		}
		if checkIn.Valid {
			rec.CheckInTime = &checkIn.Time
		}
		if checkOut.Valid {
			rec.CheckOutTime = &checkOut.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("iterate records", err)
	}
	return records, nil
}
