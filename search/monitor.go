package search

import "github.com/poiesic/engram/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterListing(count int)
	SemanticHit(record *core.VectorizedRecord, similarity float32)
	KeywordHit(record *core.VectorizedRecord, score float64)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                  {}
func (n *noopMonitor) AfterListing(_ int)                              {}
func (n *noopMonitor) SemanticHit(_ *core.VectorizedRecord, _ float32) {}
func (n *noopMonitor) KeywordHit(_ *core.VectorizedRecord, _ float64)  {}
func (n *noopMonitor) Finish(_ []core.SearchResult)                    {}
