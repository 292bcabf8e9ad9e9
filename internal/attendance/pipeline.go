package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/crewmark/crewmark/internal/matcher"
	"github.com/crewmark/crewmark/internal/store"
)

// Pipeline runs one recognition attempt end to end: match the probe against
// the gallery, gate the match through eligibility checks, then hand the
// accepted match to the tracker. Steps short-circuit; only the tracker
// writes.
type Pipeline struct {
	gallery     store.GalleryReader
	people      store.PersonReader
	assignments store.AssignmentReader
	tracker     *Tracker
	params      matcher.Params
}

// NewPipeline wires the pipeline's collaborators. All stores are owned by
// the caller (opened at process start, closed at shutdown).
func NewPipeline(
	gallery store.GalleryReader,
	people store.PersonReader,
	assignments store.AssignmentReader,
	tracker *Tracker,
	params matcher.Params,
) *Pipeline {
	return &Pipeline{
		gallery:     gallery,
		people:      people,
		assignments: assignments,
		tracker:     tracker,
		params:      params,
	}
}

// Process matches the probe and applies the attendance transition for the
// event. Terminal matching and eligibility failures come back as Outcome
// variants, not errors; a non-nil error means a storage failure and the
// whole call is safe to retry.
func (p *Pipeline) Process(ctx context.Context, probe []float32, eventID int64, now time.Time, recordedBy string) (Outcome, error) {
	gallery, err := p.gallery.ActiveTemplates(ctx)
	if err != nil {
		return Outcome{}, err
	}

	verdict := matcher.Match(probe, gallery, p.params)
	if !verdict.Accepted {
		return Outcome{Kind: OutcomeMatchRejected, Reason: verdict.Reason}, nil
	}

	person, err := p.people.GetPerson(ctx, verdict.PersonID)
	if err != nil {
		return Outcome{}, err
	}
	if person == nil || !person.Active {
		return Outcome{
			Kind:       OutcomePersonInactive,
			Person:     person,
			Confidence: verdict.Confidence,
			Distance:   verdict.Distance,
		}, nil
	}

	assignment, err := p.assignments.FindAssignment(ctx, person.PersonID, eventID)
	if err != nil {
		return Outcome{}, err
	}
	if assignment == nil {
		return Outcome{
			Kind:       OutcomeNotAssigned,
			Person:     person,
			Confidence: verdict.Confidence,
			Distance:   verdict.Distance,
		}, nil
	}

	rec, transition, err := p.tracker.Mark(ctx, person.PersonID, eventID, assignment.ID, now, recordedBy)
	if errors.Is(err, ErrAlreadyCheckedOut) {
		return Outcome{
			Kind:       OutcomeAlreadyCheckedOut,
			Person:     person,
			Confidence: verdict.Confidence,
			Distance:   verdict.Distance,
		}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Kind:       OutcomeRecorded,
		Person:     person,
		Confidence: verdict.Confidence,
		Distance:   verdict.Distance,
		Record:     rec,
		Transition: transition,
	}, nil
}
