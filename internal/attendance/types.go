// Package attendance turns accepted face matches into attendance records.
// It owns the per-day state machine (absent -> checked in -> checked out)
// and the pipeline that gates matches through eligibility checks before any
// write happens.
package attendance

import (
	"fmt"

	"github.com/crewmark/crewmark/internal/matcher"
	"github.com/crewmark/crewmark/internal/store"
)

// Transition says whether an accepted match was rendered as an arrival or a
// departure, so callers can show the right message.
type Transition string

const (
	TransitionCheckIn  Transition = "check_in"
	TransitionCheckOut Transition = "check_out"
)

// CheckoutMode controls what happens when a person scans again after already
// checking out the same day.
type CheckoutMode string

const (
	// ModeReentrant overwrites the checkout time with every later scan
	// ("last scan wins"). This matches the behavior of the system this
	// service replaced and is the default.
	ModeReentrant CheckoutMode = "reentrant"
	// ModeStrict rejects scans once the day's record is complete.
	ModeStrict CheckoutMode = "strict"
)

// ParseCheckoutMode validates a mode string, defaulting to reentrant when
// empty.
func ParseCheckoutMode(s string) (CheckoutMode, error) {
	switch CheckoutMode(s) {
	case "":
		return ModeReentrant, nil
	case ModeReentrant, ModeStrict:
		return CheckoutMode(s), nil
	default:
		return "", fmt.Errorf("unknown checkout mode %q (want %q or %q)", s, ModeReentrant, ModeStrict)
	}
}

// OutcomeKind enumerates the terminal outcomes of one pipeline call. Every
// variant must be handled explicitly by callers; none of them is an error.
type OutcomeKind string

const (
	// OutcomeMatchRejected: the matcher could not identify one person.
	// Corrective action is a retried capture.
	OutcomeMatchRejected OutcomeKind = "match_rejected"
	// OutcomePersonInactive: the matched person is no longer active.
	OutcomePersonInactive OutcomeKind = "person_inactive"
	// OutcomeNotAssigned: the matched person is not planned for the event.
	OutcomeNotAssigned OutcomeKind = "not_assigned"
	// OutcomeAlreadyCheckedOut: strict mode only; the day's record is
	// already complete.
	OutcomeAlreadyCheckedOut OutcomeKind = "already_checked_out"
	// OutcomeRecorded: an attendance transition was persisted.
	OutcomeRecorded OutcomeKind = "recorded"
)

// Outcome is the verdict of one recognition attempt against one event.
type Outcome struct {
	Kind OutcomeKind

	// Reason is set when Kind is OutcomeMatchRejected.
	Reason matcher.RejectReason

	// Person is set for every outcome past the matching step.
	Person *store.Person

	// Confidence and Distance describe the accepted match.
	Confidence float64
	Distance   float64

	// Record and Transition are set when Kind is OutcomeRecorded.
	Record     *store.AttendanceRecord
	Transition Transition
}
