package ports

import (
	"context"

	"github.com/kirillkom/evidence-search/internal/core/domain"
)

// SemanticSearcher performs approximate-nearest-neighbor search over chunk
// embeddings. Hits must arrive sorted by descending cosine similarity.
type SemanticSearcher interface {
	SearchSemantic(ctx context.Context, query string, k int, scope domain.SearchScope) ([]domain.AnnHit, error)
}

// LexicalSearcher is an optional capability. An adapter that cannot serve
// keyword search returns domain.ErrLexicalUnsupported; the retriever then
// proceeds on the semantic source alone.
type LexicalSearcher interface {
	SearchLexical(ctx context.Context, query string, k int, scope domain.SearchScope, matchAll bool) ([]domain.LexicalHit, error)
}

// QueryEmbedder turns query text into a vector. Used by the semantic
// adapter, never by the retrieval core.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// RetrievalObserver receives per-call retrieval telemetry. Implementations
// must tolerate concurrent calls; a nil observer is replaced by a no-op.
type RetrievalObserver interface {
	SearchCompleted(outcome string, candidates, emitted int)
	SourceDegraded(source string)
	UnresolvableChunks(count int)
}

// SearchEvent is the audit record published after a completed search.
type SearchEvent struct {
	RequestID  string  `json:"request_id"`
	Libraries  int     `json:"libraries"`
	Results    int     `json:"results"`
	DurationMS float64 `json:"duration_ms"`
}

// SearchEventPublisher emits audit events for downstream analytics.
type SearchEventPublisher interface {
	PublishSearchCompleted(ctx context.Context, event SearchEvent) error
}
