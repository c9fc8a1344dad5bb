// Package usecases implements the hierarchy aggregator: read-only rollups
// over the partner tree, the ledger, and redemption records. Nothing here
// takes locks; a slightly stale but conservation-consistent snapshot is
// acceptable.
package usecases

import "context"

// SummaryCache caches computed performance summaries. Implementations may
// drop entries at any time; a miss just recomputes from storage.
type SummaryCache interface {
	Get(ctx context.Context, key string) (*PerformanceSummary, bool, error)
	Set(ctx context.Context, key string, summary *PerformanceSummary) error
	Invalidate(ctx context.Context, key string) error
}
