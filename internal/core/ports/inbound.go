package ports

import (
	"context"

	"github.com/kirillkom/evidence-search/internal/core/domain"
)

// EvidenceSearcher is the inbound contract for hybrid evidence retrieval.
// Callers always receive either a (possibly empty) ranked list or an
// explicit failure, never a silently partial result.
type EvidenceSearcher interface {
	Search(ctx context.Context, query string, scope domain.SearchScope, policy domain.HybridPolicy) ([]domain.ScoredChunk, error)
}
