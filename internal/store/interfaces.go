package store

import (
	"context"
	"time"
)

// GalleryReader provides the matching gallery: templates that are active and
// belong to active persons. The returned slice is a snapshot; callers never
// mutate it.
type GalleryReader interface {
	ActiveTemplates(ctx context.Context) ([]FaceTemplate, error)
}

// TemplateWriter manages template enrollment on top of gallery reads.
type TemplateWriter interface {
	GalleryReader

	// GetActiveTemplate returns the active template for a person, or nil if
	// none is enrolled.
	GetActiveTemplate(ctx context.Context, personID string) (*FaceTemplate, error)

	// SaveTemplate deactivates any prior active template for the person and
	// inserts the new one as active. Returns the new template ID.
	SaveTemplate(ctx context.Context, t FaceTemplate) (int64, error)

	// DeactivateTemplate marks the person's active template inactive.
	// Returns false if the person had no active template.
	DeactivateTemplate(ctx context.Context, personID string) (bool, error)
}

// PersonReader looks up roster entries.
type PersonReader interface {
	// GetPerson returns the person, or nil if unknown.
	GetPerson(ctx context.Context, personID string) (*Person, error)

	// SearchPeople finds people whose name matches the query. Matching is
	// case- and diacritic-insensitive.
	SearchPeople(ctx context.Context, query string) ([]Person, error)
}

// AssignmentReader looks up a person's planned participation in an event.
type AssignmentReader interface {
	// FindAssignment returns the assignment, or nil if the person is not
	// planned for the event.
	FindAssignment(ctx context.Context, personID string, eventID int64) (*Assignment, error)
}

// AssignmentWriter flips assignment status on checkout. Status is an
// auxiliary denormalization; the attendance record is the source of truth.
type AssignmentWriter interface {
	// MarkCompleted sets the assignment status to COMPLETED. Returns false
	// if the assignment does not exist.
	MarkCompleted(ctx context.Context, assignmentID int64) (bool, error)
}

// RecordStore persists attendance records. Every failure is surfaced as a
// StorageError so callers can distinguish transient persistence trouble from
// terminal matching outcomes.
type RecordStore interface {
	// FindToday returns the record for the (person, event, date) triple, or
	// nil if the person has not been marked yet that day.
	FindToday(ctx context.Context, personID string, eventID int64, day time.Time) (*AttendanceRecord, error)

	// Insert creates the record and returns its ID. If a record for the
	// same triple already exists, Insert returns ErrDuplicateRecord and
	// writes nothing.
	Insert(ctx context.Context, rec *AttendanceRecord) (string, error)

	// Update applies the non-nil fields to an existing record.
	Update(ctx context.Context, recordID string, fields RecordUpdate) error

	// Recent returns the most recent records, newest first.
	Recent(ctx context.Context, limit int) ([]AttendanceRecord, error)

	// OnDate returns all records for a calendar date.
	OnDate(ctx context.Context, day time.Time) ([]AttendanceRecord, error)

	// StatsOnDate returns per-event check-in and check-out counts for a
	// calendar date, ordered by event ID.
	StatsOnDate(ctx context.Context, day time.Time) ([]EventDayStats, error)
}

// EventReader lists events open for attendance.
type EventReader interface {
	ActiveEvents(ctx context.Context) ([]Event, error)
}
