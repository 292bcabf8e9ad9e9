package matcher

import (
	"sort"

	"github.com/crewmark/crewmark/internal/store"
)

// Rank compares the probe against every active template and returns the
// candidates that pass the distance filter, ordered by ascending distance.
// Ties keep gallery order (first-registered wins) so results are
// deterministic. Templates whose vector length differs from the probe are
// non-comparable and skipped, not an error.
func Rank(probe []float32, gallery []store.FaceTemplate, p Params) []Candidate {
	candidates := make([]Candidate, 0, len(gallery))
	for i := range gallery {
		t := &gallery[i]
		if !t.Active {
			continue
		}
		if len(t.Vector) != len(probe) {
			continue
		}
		distance := CosineDistance(probe, t.Vector)
		if distance > p.DistanceThreshold {
			continue
		}
		candidates = append(candidates, Candidate{
			PersonID:   t.PersonID,
			Distance:   distance,
			Confidence: Confidence(distance),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	if p.MaxCandidates > 0 && len(candidates) > p.MaxCandidates {
		candidates = candidates[:p.MaxCandidates]
	}
	return candidates
}

// Match runs the full accept/reject policy over the gallery. The check order
// matters: the ambiguity gap is only evaluated among candidates that already
// passed the distance filter, and on confidence rather than raw distance,
// because confidence is the score users see.
func Match(probe []float32, gallery []store.FaceTemplate, p Params) Verdict {
	candidates := Rank(probe, gallery, p)

	if len(candidates) == 0 {
		return Verdict{Reason: RejectNoCandidates}
	}

	best := candidates[0]
	if best.Confidence < p.ConfidenceThreshold {
		return Verdict{Reason: RejectLowConfidence}
	}

	if len(candidates) > 1 && best.Confidence-candidates[1].Confidence < p.AmbiguityMargin {
		return Verdict{Reason: RejectAmbiguous}
	}

	return Verdict{
		Accepted:   true,
		PersonID:   best.PersonID,
		Confidence: best.Confidence,
		Distance:   best.Distance,
	}
}
