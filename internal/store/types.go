// Package store defines the persistence contracts and record types shared by
// the matching and attendance packages. Concrete backends live in the
// postgres and mysql subpackages; the mock subpackage implements everything
// in memory for tests.
package store

import (
	"time"
)

// FaceTemplate is one enrolled biometric template. At most one template per
// person is active at a time; enrolling a new one deactivates the previous
// template instead of deleting it.
type FaceTemplate struct {
	ID                   int64
	PersonID             string
	Vector               []float32
	ModelID              string
	EnrollmentConfidence float64
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Person is the roster entry for an enrolled crew member.
type Person struct {
	PersonID   string
	FirstName  string
	LastName   string
	Department string
	Position   string
	Active     bool
}

// FullName returns the display name used in attendance messages.
func (p *Person) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// AssignmentStatus tracks whether a planned participation has been completed.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentCompleted AssignmentStatus = "COMPLETED"
)

// Assignment is a person's planned participation in an event on a given
// date. Assignments are created by external scheduling; this service only
// reads them and flips Status to COMPLETED on checkout.
type Assignment struct {
	ID          int64
	PersonID    string
	EventID     int64
	PlannedDate time.Time
	Status      AssignmentStatus
}

// Event is a scheduled event crew members are assigned to.
type Event struct {
	EventID     int64
	Description string
	EventDate   time.Time
	StartsAt    time.Time
	EndsAt      time.Time
	Active      bool
}

// AttendanceRecord is the single persisted marking for a
// (person, event, calendar date) triple. CheckInTime is written once on the
// first accepted match of the day and never overwritten; CheckOutTime is
// rewritten by every later match of the same day.
type AttendanceRecord struct {
	ID           string
	PersonID     string
	EventID      int64
	Date         time.Time
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Processed    bool
	RecordedBy   string

	// Display fields populated by list queries (joins), empty otherwise.
	PersonName       string
	EventDescription string
}

// RecordUpdate carries the fields a checkout transition may change.
// Nil fields are left untouched.
type RecordUpdate struct {
	CheckOutTime *time.Time
	Processed    *bool
}

// EventDayStats aggregates one event's records for a calendar date.
type EventDayStats struct {
	EventID   int64
	Event     string // display field populated by joins, empty otherwise
	CheckIns  int
	CheckOuts int
}

// DayOf truncates a timestamp to its calendar date, preserving the location.
// Attendance records are keyed by this value.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
