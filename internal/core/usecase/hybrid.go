package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/kirillkom/evidence-search/internal/core/domain"
	"github.com/kirillkom/evidence-search/internal/core/ports"
)

// Search outcomes reported to the retrieval observer.
const (
	OutcomeOK           = "ok"
	OutcomeEmptyScope   = "empty_scope"
	OutcomeNoCandidates = "no_candidates"
	OutcomeFailed       = "failed"
)

// HybridSearchUseCase fuses a semantic and an optional lexical retrieval
// source into one ranked, diversified evidence list. It holds no per-call
// state and is safe for concurrent use.
type HybridSearchUseCase struct {
	semantic ports.SemanticSearcher
	lexical  ports.LexicalSearcher // nil when the capability is absent
	observer ports.RetrievalObserver
	logger   *slog.Logger
}

func NewHybridSearchUseCase(
	semantic ports.SemanticSearcher,
	lexical ports.LexicalSearcher,
	observer ports.RetrievalObserver,
	logger *slog.Logger,
) *HybridSearchUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridSearchUseCase{
		semantic: semantic,
		lexical:  lexical,
		observer: observer,
		logger:   logger,
	}
}

// Search runs the full pipeline: signal extraction, concurrent fan-out to
// both sources, threshold filtering, rank fusion, soft-signal boosting and
// diversity selection. The policy must have passed Validate at construction
// time. A failed source degrades to empty as long as the other one
// delivered; only when no source is left does the call fail.
func (uc *HybridSearchUseCase) Search(
	ctx context.Context,
	query string,
	scope domain.SearchScope,
	policy domain.HybridPolicy,
) ([]domain.ScoredChunk, error) {
	if scope.IsEmpty() {
		uc.observer.SearchCompleted(OutcomeEmptyScope, 0, 0)
		return nil, nil
	}

	signals := ExtractQuerySignals(query)

	var (
		wg      sync.WaitGroup
		annHits []domain.AnnHit
		annErr  error
		lexHits []domain.LexicalHit
		lexErr  error
	)

	lexAvailable := uc.lexical != nil
	wg.Add(1)
	go func() {
		defer wg.Done()
		annHits, annErr = uc.semantic.SearchSemantic(ctx, query, policy.FetchKAnn, scope)
	}()
	if lexAvailable {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lexHits, lexErr = uc.lexical.SearchLexical(ctx, query, policy.FetchKLexical, scope, policy.LexicalMatchAll)
		}()
	}
	wg.Wait()

	// An adapter declining the capability is not a failure.
	if lexErr != nil && domain.IsKind(lexErr, domain.ErrLexicalUnsupported) {
		lexAvailable = false
		lexHits = nil
		lexErr = nil
	}

	if annErr != nil && (!lexAvailable || lexErr != nil) {
		uc.observer.SearchCompleted(OutcomeFailed, 0, 0)
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "hybrid search", errors.Join(annErr, lexErr))
	}
	if annErr != nil {
		uc.observer.SourceDegraded("semantic")
		uc.logger.Warn("retrieval_source_degraded", "source", "semantic", "error", annErr)
		annHits = nil
	}
	if lexErr != nil {
		uc.observer.SourceDegraded("lexical")
		uc.logger.Warn("retrieval_source_degraded", "source", "lexical", "error", lexErr)
		lexHits = nil
	}

	annKept := thresholdAnnHits(annHits, policy.VectorMinScore)
	lexKept := thresholdLexicalHits(lexHits, policy.LexicalMinScore)
	if len(annKept) == 0 && len(lexKept) == 0 {
		uc.observer.SearchCompleted(OutcomeNoCandidates, 0, 0)
		return nil, nil
	}

	byID := make(map[string]domain.AnnHit, len(annKept))
	annIDs := make([]string, 0, len(annKept))
	for _, hit := range annKept {
		if _, seen := byID[hit.Chunk.ID]; seen {
			continue
		}
		byID[hit.Chunk.ID] = hit
		annIDs = append(annIDs, hit.Chunk.ID)
	}
	lexIDs := make([]string, 0, len(lexKept))
	for _, hit := range lexKept {
		lexIDs = append(lexIDs, hit.ChunkID)
	}

	rankings := make([]weightedRanking, 0, 2)
	if len(annIDs) > 0 {
		rankings = append(rankings, weightedRanking{ranks: rankByOrder(annIDs), weight: policy.WeightAnn})
	}
	if len(lexIDs) > 0 {
		rankings = append(rankings, weightedRanking{ranks: rankByOrder(lexIDs), weight: policy.WeightLexical})
	}
	fused := fuseReciprocalRanks(policy.RRFK, rankings...)

	if policy.EnableSoftSignals {
		applySoftSignalBonuses(fused, byID, signals, policy)
	}

	results, unresolved := selectDiverse(fused, byID, policy)
	if unresolved > 0 {
		uc.observer.UnresolvableChunks(unresolved)
		uc.logger.Debug("lexical_hits_unresolvable", "count", unresolved)
	}
	uc.observer.SearchCompleted(OutcomeOK, len(fused), len(results))
	return results, nil
}

type noopObserver struct{}

func (noopObserver) SearchCompleted(string, int, int) {}
func (noopObserver) SourceDegraded(string)            {}
func (noopObserver) UnresolvableChunks(int)           {}
