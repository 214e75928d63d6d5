package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/evidence-search/internal/core/domain"
	"github.com/kirillkom/evidence-search/internal/core/ports"
	"github.com/kirillkom/evidence-search/internal/observability/metrics"
)

type Router struct {
	searcher   ports.EvidenceSearcher
	basePolicy domain.HybridPolicy
	events     ports.SearchEventPublisher
	metrics    *metrics.SearchMetrics
	limiter    *rate.Limiter
}

// NewRouter wires the search endpoint. events and searchMetrics may be nil;
// rateRPS <= 0 disables rate limiting.
func NewRouter(
	searcher ports.EvidenceSearcher,
	basePolicy domain.HybridPolicy,
	events ports.SearchEventPublisher,
	searchMetrics *metrics.SearchMetrics,
	rateRPS float64,
	rateBurst int,
) *Router {
	var limiter *rate.Limiter
	if rateRPS > 0 {
		if rateBurst <= 0 {
			rateBurst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rateRPS), rateBurst)
	}
	return &Router{
		searcher:   searcher,
		basePolicy: basePolicy,
		events:     events,
		metrics:    searchMetrics,
		limiter:    limiter,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/search", rt.search)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.limiter != nil {
		handler = rateLimitMiddleware(rt.limiter, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Query      string   `json:"query"`
	LibraryIDs []string `json:"library_ids"`
	Limit      int      `json:"limit"`
	MatchAll   bool     `json:"match_all"`
}

type searchResponse struct {
	Results []domain.ScoredChunk `json:"results"`
	Count   int                  `json:"count"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	policy := rt.basePolicy
	if req.Limit > 0 {
		policy.ResultLimit = req.Limit
	}
	policy.LexicalMatchAll = req.MatchAll
	scope := domain.SearchScope{LibraryIDs: req.LibraryIDs}

	start := time.Now()
	results, err := rt.searcher.Search(r.Context(), req.Query, scope, policy)
	duration := time.Since(start)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		rt.observeDuration(status, duration)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	rt.observeDuration(http.StatusOK, duration)

	if results == nil {
		results = []domain.ScoredChunk{}
	}
	rt.publishSearchEvent(requestIDFromContext(r.Context()), len(req.LibraryIDs), len(results), duration)
	writeJSON(w, http.StatusOK, searchResponse{Results: results, Count: len(results)})
}

func (rt *Router) observeDuration(status int, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.ObserveHandlerDuration(strconv.Itoa(status), duration)
}

// publishSearchEvent is fire and forget: audit delivery must never extend
// or fail a search response.
func (rt *Router) publishSearchEvent(requestID string, libraries, results int, duration time.Duration) {
	if rt.events == nil {
		return
	}
	event := ports.SearchEvent{
		RequestID:  requestID,
		Libraries:  libraries,
		Results:    results,
		DurationMS: float64(duration.Microseconds()) / 1000.0,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rt.events.PublishSearchCompleted(ctx, event); err != nil {
			slog.Warn("search_event_publish_failed", "error", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
