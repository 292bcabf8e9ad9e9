// Package mock provides in-memory implementations of the store interfaces
// for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/crewmark/crewmark/internal/store"
	"github.com/google/uuid"
)

// Gallery is a mock store.TemplateWriter.
type Gallery struct {
	mu        sync.RWMutex
	templates []store.FaceTemplate
	nextID    int64

	// Error injection
	ActiveTemplatesError error
	SaveTemplateError    error
}

// NewGallery creates an empty mock gallery.
func NewGallery() *Gallery {
	return &Gallery{}
}

// AddTemplate appends a template verbatim, assigning an ID if missing.
func (g *Gallery) AddTemplate(t store.FaceTemplate) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.ID == 0 {
		g.nextID++
		t.ID = g.nextID
	}
	g.templates = append(g.templates, t)
}

// ActiveTemplates returns active templates in insertion order.
func (g *Gallery) ActiveTemplates(ctx context.Context) ([]store.FaceTemplate, error) {
	if g.ActiveTemplatesError != nil {
		return nil, g.ActiveTemplatesError
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []store.FaceTemplate
	for _, t := range g.templates {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetActiveTemplate returns the person's active template, or nil.
func (g *Gallery) GetActiveTemplate(ctx context.Context, personID string) (*store.FaceTemplate, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for i := range g.templates {
		if g.templates[i].PersonID == personID && g.templates[i].Active {
			t := g.templates[i]
			return &t, nil
		}
	}
	return nil, nil
}

// SaveTemplate deactivates prior templates for the person and inserts the
// new one as active.
func (g *Gallery) SaveTemplate(ctx context.Context, t store.FaceTemplate) (int64, error) {
	if g.SaveTemplateError != nil {
		return 0, g.SaveTemplateError
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.templates {
		if g.templates[i].PersonID == t.PersonID {
			g.templates[i].Active = false
		}
	}
	g.nextID++
	t.ID = g.nextID
	t.Active = true
	g.templates = append(g.templates, t)
	return t.ID, nil
}

// DeactivateTemplate marks the person's active template inactive.
func (g *Gallery) DeactivateTemplate(ctx context.Context, personID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	found := false
	for i := range g.templates {
		if g.templates[i].PersonID == personID && g.templates[i].Active {
			g.templates[i].Active = false
			found = true
		}
	}
	return found, nil
}

// People is a mock store.PersonReader.
type People struct {
	mu      sync.RWMutex
	people  map[string]store.Person
	GetErr  error
	FindErr error
}

// NewPeople creates an empty mock roster.
func NewPeople() *People {
	return &People{people: make(map[string]store.Person)}
}

// AddPerson registers a roster entry.
func (p *People) AddPerson(person store.Person) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.people[person.PersonID] = person
}

// GetPerson returns the person, or nil if unknown.
func (p *People) GetPerson(ctx context.Context, personID string) (*store.Person, error) {
	if p.GetErr != nil {
		return nil, p.GetErr
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	person, ok := p.people[personID]
	if !ok {
		return nil, nil
	}
	return &person, nil
}

// SearchPeople matches the query against names, case-insensitively.
func (p *People) SearchPeople(ctx context.Context, query string) ([]store.Person, error) {
	if p.FindErr != nil {
		return nil, p.FindErr
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	q := strings.ToLower(query)
	var out []store.Person
	for _, person := range p.people {
		name := strings.ToLower(person.FirstName + " " + person.LastName)
		if strings.Contains(name, q) {
			out = append(out, person)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out, nil
}

// Assignments is a mock store.AssignmentReader + store.AssignmentWriter.
type Assignments struct {
	mu          sync.Mutex
	assignments map[int64]*store.Assignment
	byKey       map[string]int64

	FindError          error
	MarkCompletedError error

	// Completed collects the IDs passed to MarkCompleted, in order.
	Completed []int64
}

// NewAssignments creates an empty mock assignment store.
func NewAssignments() *Assignments {
	return &Assignments{
		assignments: make(map[int64]*store.Assignment),
		byKey:       make(map[string]int64),
	}
}

// AddAssignment registers an assignment.
func (a *Assignments) AddAssignment(assignment store.Assignment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := assignment
	if cp.Status == "" {
		cp.Status = store.AssignmentPending
	}
	a.assignments[cp.ID] = &cp
	a.byKey[fmt.Sprintf("%s|%d", cp.PersonID, cp.EventID)] = cp.ID
}

// Get returns the assignment by ID for assertions.
func (a *Assignments) Get(id int64) *store.Assignment {
	a.mu.Lock()
	defer a.mu.Unlock()
	if asg, ok := a.assignments[id]; ok {
		cp := *asg
		return &cp
	}
	return nil
}

// FindAssignment returns the assignment for (person, event), or nil.
func (a *Assignments) FindAssignment(ctx context.Context, personID string, eventID int64) (*store.Assignment, error) {
	if a.FindError != nil {
		return nil, a.FindError
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.byKey[fmt.Sprintf("%s|%d", personID, eventID)]
	if !ok {
		return nil, nil
	}
	cp := *a.assignments[id]
	return &cp, nil
}

// MarkCompleted flips the assignment status to COMPLETED.
func (a *Assignments) MarkCompleted(ctx context.Context, assignmentID int64) (bool, error) {
	if a.MarkCompletedError != nil {
		return false, a.MarkCompletedError
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	asg, ok := a.assignments[assignmentID]
	if !ok {
		return false, nil
	}
	asg.Status = store.AssignmentCompleted
	a.Completed = append(a.Completed, assignmentID)
	return true, nil
}

// Records is a mock store.RecordStore keyed by (person, event, date). Insert
// enforces uniqueness of the triple the way the real backend's constraint
// does, so concurrency tests exercise the same race discipline.
type Records struct {
	mu      sync.Mutex
	byID    map[string]*store.AttendanceRecord
	byKey   map[string]string
	inOrder []string

	FindTodayError error
	InsertError    error
	UpdateError    error
	StatsError     error
}

// NewRecords creates an empty mock record store.
func NewRecords() *Records {
	return &Records{
		byID:  make(map[string]*store.AttendanceRecord),
		byKey: make(map[string]string),
	}
}

func recordKey(personID string, eventID int64, day time.Time) string {
	return fmt.Sprintf("%s|%d|%s", personID, eventID, day.Format("2006-01-02"))
}

// FindToday returns the record for the triple, or nil.
func (r *Records) FindToday(ctx context.Context, personID string, eventID int64, day time.Time) (*store.AttendanceRecord, error) {
	if r.FindTodayError != nil {
		return nil, r.FindTodayError
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[recordKey(personID, eventID, day)]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

// Insert creates the record, enforcing triple uniqueness.
func (r *Records) Insert(ctx context.Context, rec *store.AttendanceRecord) (string, error) {
	if r.InsertError != nil {
		return "", r.InsertError
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey(rec.PersonID, rec.EventID, rec.Date)
	if _, exists := r.byKey[key]; exists {
		return "", store.ErrDuplicateRecord
	}
	cp := *rec
	cp.ID = uuid.NewString()
	r.byID[cp.ID] = &cp
	r.byKey[key] = cp.ID
	r.inOrder = append(r.inOrder, cp.ID)
	return cp.ID, nil
}

// Update applies non-nil fields to an existing record.
func (r *Records) Update(ctx context.Context, recordID string, fields store.RecordUpdate) error {
	if r.UpdateError != nil {
		return r.UpdateError
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[recordID]
	if !ok {
		return store.NewStorageError("update record", fmt.Errorf("record %s not found", recordID))
	}
	if fields.CheckOutTime != nil {
		t := *fields.CheckOutTime
		rec.CheckOutTime = &t
	}
	if fields.Processed != nil {
		rec.Processed = *fields.Processed
	}
	return nil
}

// Recent returns records newest first (by insertion order).
func (r *Records) Recent(ctx context.Context, limit int) ([]store.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []store.AttendanceRecord
	for i := len(r.inOrder) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *r.byID[r.inOrder[i]])
	}
	return out, nil
}

// OnDate returns all records for the calendar date.
func (r *Records) OnDate(ctx context.Context, day time.Time) ([]store.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []store.AttendanceRecord
	for _, id := range r.inOrder {
		rec := r.byID[id]
		if rec.Date.Equal(store.DayOf(day)) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// StatsOnDate aggregates per-event counts for the calendar date. The Event
// display field stays empty; only the real backend joins event descriptions.
func (r *Records) StatsOnDate(ctx context.Context, day time.Time) ([]store.EventDayStats, error) {
	if r.StatsError != nil {
		return nil, r.StatsError
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byEvent := make(map[int64]*store.EventDayStats)
	for _, id := range r.inOrder {
		rec := r.byID[id]
		if !rec.Date.Equal(store.DayOf(day)) {
			continue
		}
		s, ok := byEvent[rec.EventID]
		if !ok {
			s = &store.EventDayStats{EventID: rec.EventID}
			byEvent[rec.EventID] = s
		}
		if rec.CheckInTime != nil {
			s.CheckIns++
		}
		if rec.CheckOutTime != nil {
			s.CheckOuts++
		}
	}
	var out []store.EventDayStats
	for _, s := range byEvent {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

// Events is a mock store.EventReader.
type Events struct {
	mu     sync.RWMutex
	events []store.Event

	ListError error
}

// NewEvents creates an empty mock event store.
func NewEvents() *Events {
	return &Events{}
}

// AddEvent registers an event.
func (e *Events) AddEvent(ev store.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

// ActiveEvents returns active events in insertion order.
func (e *Events) ActiveEvents(ctx context.Context) ([]store.Event, error) {
	if e.ListError != nil {
		return nil, e.ListError
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []store.Event
	for _, ev := range e.events {
		if ev.Active {
			out = append(out, ev)
		}
	}
	return out, nil
}
