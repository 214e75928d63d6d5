package usecase

import "github.com/kirillkom/evidence-search/internal/core/domain"

// weightedRanking is one source's contribution to rank fusion: dense
// 1-based ranks (smaller is better) and the source weight.
type weightedRanking struct {
	ranks  map[string]int
	weight float64
}

// thresholdAnnHits drops semantic hits below the minimum cosine before any
// rank is assigned, so surviving ranks stay dense.
func thresholdAnnHits(hits []domain.AnnHit, minScore float64) []domain.AnnHit {
	out := make([]domain.AnnHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Cosine < minScore {
			continue
		}
		out = append(out, hit)
	}
	return out
}

func thresholdLexicalHits(hits []domain.LexicalHit, minScore float64) []domain.LexicalHit {
	out := make([]domain.LexicalHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < minScore {
			continue
		}
		out = append(out, hit)
	}
	return out
}

// rankByOrder assigns dense 1-based ranks in list order. The first
// occurrence of a duplicated id wins.
func rankByOrder(ids []string) map[string]int {
	ranks := make(map[string]int, len(ids))
	rank := 1
	for _, id := range ids {
		if _, seen := ranks[id]; seen {
			continue
		}
		ranks[id] = rank
		rank++
	}
	return ranks
}

// fuseReciprocalRanks sums weight/(rrfK+rank) per chunk over every source
// that ranked it. A chunk need not appear in all sources; two empty sources
// fuse to an empty map.
func fuseReciprocalRanks(rrfK int, rankings ...weightedRanking) map[string]float64 {
	fused := make(map[string]float64)
	for _, ranking := range rankings {
		for id, rank := range ranking.ranks {
			fused[id] += ranking.weight / float64(rrfK+rank)
		}
	}
	return fused
}
