package matcher

import (
	"errors"
	"sort"
	"sync"

	"github.com/coder/hnsw"
	"github.com/crewmark/crewmark/internal/store"
)

// HNSW graph parameters for 512-dim face embeddings.
const (
	// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
	hnswMaxNeighbors = 16
)

// GalleryIndex wraps an HNSW graph over enrolled templates for approximate
// nearest-neighbor search. The live matching path always does an exact scan
// (determinism matters there); the index serves diagnostic queries such as
// the duplicate-enrollment audit.
type GalleryIndex struct {
	graph *hnsw.Graph[int64]
	byID  map[int64]*store.FaceTemplate
	mu    sync.RWMutex
}

// NewGalleryIndex creates a new empty gallery index.
func NewGalleryIndex() *GalleryIndex {
	return &GalleryIndex{
		byID: make(map[int64]*store.FaceTemplate),
	}
}

// Build replaces the index contents with the given templates. Templates with
// empty vectors are skipped.
func (g *GalleryIndex) Build(templates []store.FaceTemplate) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(templates) == 0 {
		g.graph = nil
		g.byID = make(map[int64]*store.FaceTemplate)
		return nil
	}

	graph := hnsw.NewGraph[int64]()
	graph.M = hnswMaxNeighbors
	graph.Ml = 1.0 / float64(hnswMaxNeighbors) // Standard HNSW formula
	graph.Distance = hnsw.CosineDistance

	g.byID = make(map[int64]*store.FaceTemplate, len(templates))
	for i := range templates {
		t := &templates[i]
		if len(t.Vector) == 0 {
			continue
		}
		graph.Add(hnsw.MakeNode(t.ID, t.Vector))
		g.byID[t.ID] = t
	}

	g.graph = graph
	return nil
}

// Count returns the number of indexed templates.
func (g *GalleryIndex) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.byID)
}

// Neighbors returns the k templates nearest to the query, with exact cosine
// distances recomputed from the stored vectors.
func (g *GalleryIndex) Neighbors(query []float32, k int) ([]store.FaceTemplate, []float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.graph == nil {
		return nil, nil, errors.New("index not initialized")
	}

	nodes := g.graph.Search(query, k)
	templates := make([]store.FaceTemplate, 0, len(nodes))
	distances := make([]float64, 0, len(nodes))
	for _, n := range nodes {
		t := g.byID[n.Key]
		if t == nil {
			continue
		}
		templates = append(templates, *t)
		distances = append(distances, CosineDistance(query, n.Value))
	}
	return templates, distances, nil
}

// DuplicatePair flags two different persons whose enrolled templates sit
// suspiciously close together. Such pairs will trip the ambiguity rejection
// at scan time, so they should be re-enrolled with better photos.
type DuplicatePair struct {
	PersonA  string
	PersonB  string
	Distance float64
}

// AuditGallery searches every template's nearest neighbors and reports pairs
// of distinct persons closer than maxDistance, nearest first.
func AuditGallery(templates []store.FaceTemplate, maxDistance float64) ([]DuplicatePair, error) {
	idx := NewGalleryIndex()
	if err := idx.Build(templates); err != nil {
		return nil, err
	}

	seen := make(map[[2]string]bool)
	var pairs []DuplicatePair
	for i := range templates {
		t := &templates[i]
		if len(t.Vector) == 0 {
			continue
		}
		// k=2: the nearest neighbor of a template is itself.
		neighbors, distances, err := idx.Neighbors(t.Vector, 2)
		if err != nil {
			return nil, err
		}
		for j := range neighbors {
			other := &neighbors[j]
			if other.PersonID == t.PersonID {
				continue
			}
			if distances[j] > maxDistance {
				continue
			}
			key := [2]string{t.PersonID, other.PersonID}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			pairs = append(pairs, DuplicatePair{
				PersonA:  key[0],
				PersonB:  key[1],
				Distance: distances[j],
			})
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Distance < pairs[j].Distance })
	return pairs, nil
}
