package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/evidence-search/internal/core/domain"
	"github.com/kirillkom/evidence-search/internal/core/ports"
	"github.com/kirillkom/evidence-search/internal/infrastructure/resilience"
)

// Client is the semantic retrieval adapter: it embeds the query and runs a
// cosine search against one Qdrant collection. Indexing is owned by the
// ingestion pipeline and does not appear here.
type Client struct {
	baseURL    string
	collection string
	embedder   ports.QueryEmbedder
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, collection string, embedder ports.QueryEmbedder, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
	}
}

func (c *Client) SearchSemantic(
	ctx context.Context,
	query string,
	k int,
	scope domain.SearchScope,
) ([]domain.AnnHit, error) {
	queryVector, err := c.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        k,
		"with_payload": true,
	}
	if !scope.IsEmpty() {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key": "library_id",
					"match": map[string]any{
						"any": scope.LibraryIDs,
					},
				},
			},
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	call := func(ctx context.Context) error {
		url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create search request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant search request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &statusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(raw)}
		}
		if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
			return fmt.Errorf("decode search response: %w", err)
		}
		return nil
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, "qdrant_search", call, classifySearchError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.AnnHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		chunk := domain.Chunk{
			ID:         payloadString(r.Payload, "chunk_id"),
			DocumentID: payloadString(r.Payload, "document_id"),
			Content:    payloadString(r.Payload, "text"),
			Metadata:   payloadMetadata(r.Payload),
		}
		if chunk.ID == "" {
			continue
		}
		out = append(out, domain.AnnHit{Chunk: chunk, Cosine: clipCosine(r.Score)})
	}
	return out, nil
}

// clipCosine maps the raw similarity into the conventional [0,1] band.
func clipCosine(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func payloadString(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return value
}

func payloadMetadata(payload map[string]any) map[string]string {
	meta := make(map[string]string, 3)
	for _, key := range []string{domain.MetaTitle, domain.MetaSection, domain.MetaFilename} {
		if value := payloadString(payload, key); value != "" {
			meta[key] = value
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

type statusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *statusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("qdrant search status: %s", e.Status)
	}
	return fmt.Sprintf("qdrant search status: %s: %s", e.Status, strings.TrimSpace(e.Body))
}

func classifySearchError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		retryable := statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
