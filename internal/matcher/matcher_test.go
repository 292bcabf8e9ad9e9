package matcher

import (
	"math"
	"testing"

	"github.com/crewmark/crewmark/internal/store"
)

// Probe and template vectors use integer components with perfect-square norms
// so distances and confidences come out at clean values:
//
//	probe (1,0) vs (4,3)  -> distance 0.20, confidence 0.90
//	probe (1,0) vs (3,4)  -> distance 0.40, confidence 0.80
//	probe (1,0) vs (7,24) -> distance 0.72, confidence 0.64
//	probe (1,0) vs (0,1)  -> distance 1.00, confidence 0.50
var probe = []float32{1, 0}

func template(id int64, personID string, vector []float32) store.FaceTemplate {
	return store.FaceTemplate{
		ID:       id,
		PersonID: personID,
		Vector:   vector,
		ModelID:  "Facenet512",
		Active:   true,
	}
}

func testParams() Params {
	return Params{
		DistanceThreshold:   0.45,
		ConfidenceThreshold: 0.70,
		AmbiguityMargin:     0.10,
		MaxCandidates:       5,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRankFiltersAndOrders(t *testing.T) {
	gallery := []store.FaceTemplate{
		template(1, "far", []float32{7, 24}),  // distance 0.72, filtered out
		template(2, "good", []float32{3, 4}),  // distance 0.40
		template(3, "best", []float32{4, 3}),  // distance 0.20
		template(4, "ortho", []float32{0, 1}), // distance 1.00, filtered out
	}

	candidates := Rank(probe, gallery, testParams())

	if len(candidates) != 2 {
		t.Fatalf("Rank() returned %d candidates, want 2", len(candidates))
	}
	if candidates[0].PersonID != "best" || candidates[1].PersonID != "good" {
		t.Errorf("order = [%s, %s], want [best, good]", candidates[0].PersonID, candidates[1].PersonID)
	}
	if !almostEqual(candidates[0].Distance, 0.2) {
		t.Errorf("best distance = %v, want 0.2", candidates[0].Distance)
	}
	if !almostEqual(candidates[0].Confidence, 0.9) {
		t.Errorf("best confidence = %v, want 0.9", candidates[0].Confidence)
	}
}

func TestRankSkipsInactiveTemplates(t *testing.T) {
	inactive := template(1, "ghost", []float32{1, 0})
	inactive.Active = false
	gallery := []store.FaceTemplate{inactive}

	if got := Rank(probe, gallery, testParams()); len(got) != 0 {
		t.Errorf("Rank() returned %d candidates for inactive gallery, want 0", len(got))
	}
}

func TestRankSkipsDimensionMismatch(t *testing.T) {
	gallery := []store.FaceTemplate{
		template(1, "wrong-model", []float32{1, 0, 0}),
		template(2, "right", []float32{4, 3}),
	}

	candidates := Rank(probe, gallery, testParams())
	if len(candidates) != 1 || candidates[0].PersonID != "right" {
		t.Fatalf("Rank() = %+v, want only [right]", candidates)
	}
}

func TestRankSkipsCorruptTemplates(t *testing.T) {
	// A NaN component would make every threshold comparison false, so a
	// corrupt vector must rank as maximally distant, never as a candidate.
	gallery := []store.FaceTemplate{
		template(1, "corrupt", []float32{float32(math.NaN()), 0}),
		template(2, "right", []float32{4, 3}),
	}

	candidates := Rank(probe, gallery, testParams())
	if len(candidates) != 1 || candidates[0].PersonID != "right" {
		t.Fatalf("Rank() = %+v, want only [right]", candidates)
	}
}

func TestMatchCorruptOnlyGallery(t *testing.T) {
	gallery := []store.FaceTemplate{
		template(1, "corrupt", []float32{float32(math.NaN()), 0}),
	}

	verdict := Match(probe, gallery, testParams())
	if verdict.Accepted || verdict.Reason != RejectNoCandidates {
		t.Errorf("verdict = %+v, want rejection with %s", verdict, RejectNoCandidates)
	}
	if math.IsNaN(verdict.Confidence) || math.IsNaN(verdict.Distance) {
		t.Errorf("verdict carries NaN: %+v", verdict)
	}
}

func TestRankTieKeepsGalleryOrder(t *testing.T) {
	// Two different people at the exact same distance: the
	// first-enrolled template must stay first.
	gallery := []store.FaceTemplate{
		template(1, "first", []float32{3, 4}),
		template(2, "second", []float32{3, -4}),
	}

	candidates := Rank(probe, gallery, testParams())
	if len(candidates) != 2 {
		t.Fatalf("Rank() returned %d candidates, want 2", len(candidates))
	}
	if candidates[0].PersonID != "first" {
		t.Errorf("tie broken as %s, want first", candidates[0].PersonID)
	}
}

func TestRankCapsCandidates(t *testing.T) {
	params := testParams()
	params.MaxCandidates = 2
	gallery := []store.FaceTemplate{
		template(1, "a", []float32{4, 3}),
		template(2, "b", []float32{3, 4}),
		template(3, "c", []float32{5, 0}),
	}

	if got := Rank(probe, gallery, params); len(got) != 2 {
		t.Errorf("Rank() returned %d candidates, want cap of 2", len(got))
	}
}

func TestMatchEmptyGallery(t *testing.T) {
	verdict := Match(probe, nil, testParams())
	if verdict.Accepted {
		t.Fatal("Match() accepted against an empty gallery")
	}
	if verdict.Reason != RejectNoCandidates {
		t.Errorf("Reason = %s, want %s", verdict.Reason, RejectNoCandidates)
	}
}

func TestMatchNoCandidates(t *testing.T) {
	gallery := []store.FaceTemplate{
		template(1, "far", []float32{7, 24}), // distance 0.72
	}

	verdict := Match(probe, gallery, testParams())
	if verdict.Accepted || verdict.Reason != RejectNoCandidates {
		t.Errorf("verdict = %+v, want rejection with %s", verdict, RejectNoCandidates)
	}
}

func TestMatchLowConfidence(t *testing.T) {
	params := testParams()
	params.DistanceThreshold = 1.5
	gallery := []store.FaceTemplate{
		template(1, "weak", []float32{0, 1}), // confidence 0.50
	}

	verdict := Match(probe, gallery, params)
	if verdict.Accepted || verdict.Reason != RejectLowConfidence {
		t.Errorf("verdict = %+v, want rejection with %s", verdict, RejectLowConfidence)
	}
}

func TestMatchAmbiguous(t *testing.T) {
	// Confidences 0.90 and 0.90: gap 0 < margin 0.10.
	gallery := []store.FaceTemplate{
		template(1, "alice", []float32{4, 3}),
		template(2, "bob", []float32{4, -3}),
	}

	verdict := Match(probe, gallery, testParams())
	if verdict.Accepted || verdict.Reason != RejectAmbiguous {
		t.Errorf("verdict = %+v, want rejection with %s", verdict, RejectAmbiguous)
	}
}

func TestMatchGapAboveMarginAccepts(t *testing.T) {
	// Confidences 0.90 and 0.80: gap 0.10 is comfortably above a margin
	// of 0.05, so the best candidate wins despite a close runner-up.
	params := testParams()
	params.AmbiguityMargin = 0.05
	gallery := []store.FaceTemplate{
		template(1, "alice", []float32{4, 3}),
		template(2, "bob", []float32{3, 4}),
	}

	verdict := Match(probe, gallery, params)
	if !verdict.Accepted || verdict.PersonID != "alice" {
		t.Errorf("verdict = %+v, want acceptance of alice", verdict)
	}
}

func TestMatchClearWinner(t *testing.T) {
	// The runner-up at distance 0.72 never makes the candidate list, so
	// the ambiguity check sees a single candidate.
	gallery := []store.FaceTemplate{
		template(1, "alice", []float32{4, 3}),
		template(2, "bob", []float32{7, 24}),
	}

	verdict := Match(probe, gallery, testParams())
	if !verdict.Accepted {
		t.Fatalf("verdict = %+v, want acceptance", verdict)
	}
	if verdict.PersonID != "alice" {
		t.Errorf("PersonID = %s, want alice", verdict.PersonID)
	}
	if !almostEqual(verdict.Confidence, 0.9) {
		t.Errorf("Confidence = %v, want 0.9", verdict.Confidence)
	}
	if !almostEqual(verdict.Distance, 0.2) {
		t.Errorf("Distance = %v, want 0.2", verdict.Distance)
	}
}

func TestMatchSelfMatch(t *testing.T) {
	gallery := []store.FaceTemplate{
		template(1, "alice", []float32{1, 0}),
	}

	verdict := Match(probe, gallery, testParams())
	if !verdict.Accepted {
		t.Fatalf("verdict = %+v, want acceptance", verdict)
	}
	if verdict.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", verdict.Confidence)
	}
	if verdict.Distance != 0.0 {
		t.Errorf("Distance = %v, want 0.0", verdict.Distance)
	}
}

func TestMatchDeterministic(t *testing.T) {
	gallery := []store.FaceTemplate{
		template(1, "alice", []float32{4, 3}),
		template(2, "bob", []float32{7, 24}),
		template(3, "carol", []float32{0, 1}),
	}

	first := Match(probe, gallery, testParams())
	for i := 0; i < 10; i++ {
		if got := Match(probe, gallery, testParams()); got != first {
			t.Fatalf("Match() not deterministic: %+v vs %+v", got, first)
		}
	}
}
