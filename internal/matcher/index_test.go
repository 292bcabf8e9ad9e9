package matcher

import (
	"testing"

	"github.com/crewmark/crewmark/internal/store"
)

func tpl4(id int64, personID string, v [4]float32) store.FaceTemplate {
	return store.FaceTemplate{
		ID:       id,
		PersonID: personID,
		Vector:   v[:],
		ModelID:  "Facenet512",
		Active:   true,
	}
}

func TestGalleryIndexBuildAndCount(t *testing.T) {
	idx := NewGalleryIndex()
	if idx.Count() != 0 {
		t.Errorf("Count() = %d on empty index, want 0", idx.Count())
	}

	templates := []store.FaceTemplate{
		tpl4(1, "alice", [4]float32{1, 0, 0, 0}),
		tpl4(2, "bob", [4]float32{0, 1, 0, 0}),
		{ID: 3, PersonID: "empty", Active: true}, // no vector, skipped
	}
	if err := idx.Build(templates); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if idx.Count() != 2 {
		t.Errorf("Count() = %d, want 2", idx.Count())
	}
}

func TestGalleryIndexNeighbors(t *testing.T) {
	idx := NewGalleryIndex()
	templates := []store.FaceTemplate{
		tpl4(1, "alice", [4]float32{1, 0, 0, 0}),
		tpl4(2, "bob", [4]float32{0, 1, 0, 0}),
		tpl4(3, "carol", [4]float32{4, 3, 0, 0}),
	}
	if err := idx.Build(templates); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	neighbors, distances, err := idx.Neighbors([]float32{1, 0, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("Neighbors() returned %d results, want 2", len(neighbors))
	}
	if neighbors[0].PersonID != "alice" {
		t.Errorf("nearest = %s, want alice", neighbors[0].PersonID)
	}
	if distances[0] != 0.0 {
		t.Errorf("nearest distance = %v, want 0.0", distances[0])
	}
	if neighbors[1].PersonID != "carol" {
		t.Errorf("second = %s, want carol", neighbors[1].PersonID)
	}
}

func TestGalleryIndexNeighborsEmpty(t *testing.T) {
	idx := NewGalleryIndex()
	if _, _, err := idx.Neighbors([]float32{1, 0}, 1); err == nil {
		t.Error("Neighbors() on an unbuilt index should fail")
	}
}

func TestAuditGallery(t *testing.T) {
	templates := []store.FaceTemplate{
		tpl4(1, "alice", [4]float32{1, 0, 0, 0}),
		tpl4(2, "alice-lookalike", [4]float32{4, 3, 0, 0}), // distance 0.2 from alice
		tpl4(3, "bob", [4]float32{0, 0, 1, 0}),             // orthogonal to everyone
	}

	pairs, err := AuditGallery(templates, 0.3)
	if err != nil {
		t.Fatalf("AuditGallery() error = %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("AuditGallery() found %d pairs, want 1: %+v", len(pairs), pairs)
	}
	p := pairs[0]
	if p.PersonA != "alice" || p.PersonB != "alice-lookalike" {
		t.Errorf("pair = (%s, %s), want (alice, alice-lookalike)", p.PersonA, p.PersonB)
	}
	if !almostEqual(p.Distance, 0.2) {
		t.Errorf("pair distance = %v, want 0.2", p.Distance)
	}
}

func TestAuditGalleryNoDuplicates(t *testing.T) {
	templates := []store.FaceTemplate{
		tpl4(1, "alice", [4]float32{1, 0, 0, 0}),
		tpl4(2, "bob", [4]float32{0, 1, 0, 0}),
	}

	pairs, err := AuditGallery(templates, 0.3)
	if err != nil {
		t.Fatalf("AuditGallery() error = %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("AuditGallery() found %d pairs, want 0", len(pairs))
	}
}

func TestAuditGalleryEmpty(t *testing.T) {
	pairs, err := AuditGallery(nil, 0.3)
	if err != nil {
		t.Fatalf("AuditGallery() error = %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("AuditGallery() found %d pairs on empty gallery, want 0", len(pairs))
	}
}
