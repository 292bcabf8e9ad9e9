package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/crewmark/crewmark/internal/store"
)

// ErrAlreadyCheckedOut is returned by Mark in strict mode when the day's
// record is already complete.
var ErrAlreadyCheckedOut = errors.New("already checked out today")

// Tracker applies attendance transitions. Exactly one record exists per
// (person, event, calendar date): the first accepted match of the day
// creates it as a check-in, every later match turns into a checkout that
// rewrites the checkout time and leaves the check-in time alone.
type Tracker struct {
	records     store.RecordStore
	assignments store.AssignmentWriter
	mode        CheckoutMode
	keys        *keyMutex
}

// NewTracker creates a tracker over the given stores.
func NewTracker(records store.RecordStore, assignments store.AssignmentWriter, mode CheckoutMode) *Tracker {
	if mode == "" {
		mode = ModeReentrant
	}
	return &Tracker{
		records:     records,
		assignments: assignments,
		mode:        mode,
		keys:        newKeyMutex(),
	}
}

// Mark records an accepted match for the person at the event. It returns the
// persisted record and whether the transition was a check-in or a checkout.
// recordedBy names the operator or device that submitted the scan.
//
// Transitions for the same key are serialized: the per-key lock plus the
// store's unique (person, event, date) constraint guarantee that of two
// racing first scans exactly one observes "absent" and the other observes
// the just-written check-in.
func (t *Tracker) Mark(
	ctx context.Context,
	personID string, eventID int64, assignmentID int64,
	now time.Time, recordedBy string,
) (*store.AttendanceRecord, Transition, error) {
	day := store.DayOf(now)

	key := fmt.Sprintf("%s|%d|%s", personID, eventID, day.Format("2006-01-02"))
	unlock := t.keys.lock(key)
	defer unlock()

	existing, err := t.records.FindToday(ctx, personID, eventID, day)
	if err != nil {
		return nil, "", err
	}

	if existing == nil {
		rec, err := t.checkIn(ctx, personID, eventID, day, now, recordedBy)
		if errors.Is(err, store.ErrDuplicateRecord) {
			// Lost a race against another writer (e.g. a second instance of
			// this service). Re-read and fall through to checkout.
			existing, err = t.records.FindToday(ctx, personID, eventID, day)
			if err != nil {
				return nil, "", err
			}
			if existing == nil {
				return nil, "", store.NewStorageError("find record after insert conflict", errors.New("record missing"))
			}
		} else if err != nil {
			return nil, "", err
		} else {
			return rec, TransitionCheckIn, nil
		}
	}

	rec, err := t.checkOut(ctx, existing, assignmentID, now)
	if err != nil {
		return nil, "", err
	}
	return rec, TransitionCheckOut, nil
}

// checkIn creates the day's record. Assignment status stays PENDING until
// checkout.
func (t *Tracker) checkIn(
	ctx context.Context,
	personID string, eventID int64,
	day, now time.Time, recordedBy string,
) (*store.AttendanceRecord, error) {
	checkIn := now
	rec := &store.AttendanceRecord{
		PersonID:    personID,
		EventID:     eventID,
		Date:        day,
		CheckInTime: &checkIn,
		RecordedBy:  recordedBy,
	}
	id, err := t.records.Insert(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	return rec, nil
}

// checkOut completes (or, in reentrant mode, re-completes) the day's record.
// The record write and the assignment status flip are one logical unit of
// work, but a failure updating the assignment after the record committed is
// only logged: the record is the source of truth for "did this person
// attend".
func (t *Tracker) checkOut(
	ctx context.Context,
	rec *store.AttendanceRecord, assignmentID int64,
	now time.Time,
) (*store.AttendanceRecord, error) {
	if t.mode == ModeStrict && rec.Processed {
		return nil, ErrAlreadyCheckedOut
	}

	checkOut := now
	processed := true
	err := t.records.Update(ctx, rec.ID, store.RecordUpdate{
		CheckOutTime: &checkOut,
		Processed:    &processed,
	})
	if err != nil {
		return nil, err
	}
	rec.CheckOutTime = &checkOut
	rec.Processed = true

	if assignmentID != 0 {
		if ok, err := t.assignments.MarkCompleted(ctx, assignmentID); err != nil {
			log.Printf("attendance: record %s checked out but marking assignment %d completed failed: %v", rec.ID, assignmentID, err)
		} else if !ok {
			log.Printf("attendance: record %s checked out but assignment %d not found", rec.ID, assignmentID)
		}
	}

	return rec, nil
}
