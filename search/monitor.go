package search

import "github.com/poiesic/signalsearch/core"

// SearchMonitor receives callbacks at each stage of a search.
// Implementations must not modify the values they are handed.
type SearchMonitor interface {
	Start(query string, topK int)
	AfterQueryVectorization(vector Vector)
	DocumentScored(position int, doc *core.Document, score float64)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                             {}
func (n *noopMonitor) AfterQueryVectorization(_ Vector)                  {}
func (n *noopMonitor) DocumentScored(_ int, _ *core.Document, _ float64) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                     {}
