package database

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-registry/internal/constants"
)

// NeighborIndex wraps an HNSW graph over enrolled descriptors.
// It gives an approximate, diagnostic view of the registry and is never used
// for identify, verify or register decisions, which always scan exhaustively.
type NeighborIndex struct {
	graph *hnsw.Graph[string]
	stale bool
	mu    sync.RWMutex
}

// NewNeighborIndex creates a new empty index that needs a build before use.
func NewNeighborIndex() *NeighborIndex {
	return &NeighborIndex{stale: true}
}

// Build replaces the index contents with the given snapshot.
// Records without a full-size descriptor are left out.
func (h *NeighborIndex) Build(records []EnrolledRecord) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stale = false

	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance

	added := 0
	for i := range records {
		rec := &records[i]
		if len(rec.Descriptor) != constants.DescriptorSize {
			continue
		}
		g.Add(hnsw.MakeNode(rec.Name, append([]float32(nil), rec.Descriptor...)))
		added++
	}

	if added == 0 {
		h.graph = nil
		return 0
	}
	h.graph = g
	return added
}

// IndexedDescriptor is a search hit carrying the indexed descriptor for exact reranking.
type IndexedDescriptor struct {
	Name       string
	Descriptor []float32
}

// Search returns approximately nearest entries to query. It over-fetches by
// HNSWSearchMultiplier so callers can rerank exactly and keep the best k.
func (h *NeighborIndex) Search(query []float32, k int) ([]IndexedDescriptor, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stale {
		return nil, errors.New("index not built")
	}
	if h.graph == nil || k <= 0 {
		return nil, nil
	}
	if len(query) != constants.DescriptorSize {
		return nil, errors.New("query has wrong dimension")
	}

	neighbors := h.graph.Search(query, k*HNSWSearchMultiplier)
	hits := make([]IndexedDescriptor, len(neighbors))
	for i, n := range neighbors {
		hits[i] = IndexedDescriptor{Name: n.Key, Descriptor: n.Value}
	}
	return hits, nil
}

// Invalidate marks the index as out of date after the registry changed.
func (h *NeighborIndex) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stale = true
}

// Stale reports whether the index must be rebuilt before searching.
func (h *NeighborIndex) Stale() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stale
}

// Len returns the number of indexed descriptors.
func (h *NeighborIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.graph == nil {
		return 0
	}
	return h.graph.Len()
}
