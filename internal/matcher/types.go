// Package matcher scores a probe embedding against the gallery of enrolled
// face templates and decides whether it identifies exactly one person.
package matcher

// RejectReason explains why a matching attempt produced no identification.
type RejectReason string

const (
	// RejectNoCandidates means no template passed the distance filter.
	RejectNoCandidates RejectReason = "no_candidates"
	// RejectLowConfidence means the best candidate scored below the
	// confidence threshold.
	RejectLowConfidence RejectReason = "low_confidence"
	// RejectAmbiguous means the best and second-best candidates were too
	// close to tell apart (look-alikes, twins).
	RejectAmbiguous RejectReason = "ambiguous"
)

// Candidate is the transient result of comparing the probe against one
// enrolled template.
type Candidate struct {
	PersonID   string
	Distance   float64
	Confidence float64
}

// Verdict is the outcome of one matching attempt. Either Accepted is true
// and PersonID/Confidence/Distance identify the match, or Accepted is false
// and Reason explains the rejection. There is no partial state.
type Verdict struct {
	Accepted   bool
	PersonID   string
	Confidence float64
	Distance   float64
	Reason     RejectReason
}

// Params are the tunables of the accept/reject policy.
type Params struct {
	// DistanceThreshold discards candidates farther than this from the probe.
	DistanceThreshold float64
	// ConfidenceThreshold is the minimum score of the best candidate.
	ConfidenceThreshold float64
	// AmbiguityMargin is the minimum confidence gap between the best and
	// second-best candidates required to accept the best one.
	AmbiguityMargin float64
	// MaxCandidates caps the ranked candidate list.
	MaxCandidates int
}

// Default matching parameters, tuned for Facenet512 embeddings.
const (
	DefaultDistanceThreshold   = 0.40
	DefaultConfidenceThreshold = 0.70
	DefaultAmbiguityMargin     = 0.10
	DefaultMaxCandidates       = 5
)

// DefaultParams returns the default accept/reject policy.
func DefaultParams() Params {
	return Params{
		DistanceThreshold:   DefaultDistanceThreshold,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		AmbiguityMargin:     DefaultAmbiguityMargin,
		MaxCandidates:       DefaultMaxCandidates,
	}
}
