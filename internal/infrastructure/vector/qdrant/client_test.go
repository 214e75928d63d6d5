package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/evidence-search/internal/core/domain"
)

type embedderFake struct {
	vector []float32
	err    error
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return f.vector, f.err
}

func TestSearchSemanticMapsPayloadAndClipsCosine(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/chunks/points/search" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":[
			{"score":1.2,"payload":{"chunk_id":"c1","document_id":"doc-a","text":"alpha","title":"Alpha","section":"Intro"}},
			{"score":-0.3,"payload":{"chunk_id":"c2","document_id":"doc-b","text":"beta"}},
			{"score":0.5,"payload":{"text":"no id"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks", &embedderFake{vector: []float32{0.1, 0.2}}, nil)
	hits, err := client.SearchSemantic(context.Background(), "alpha", 10, domain.SearchScope{LibraryIDs: []string{"lib-1"}})
	if err != nil {
		t.Fatalf("SearchSemantic() error = %v", err)
	}

	if len(hits) != 2 {
		t.Fatalf("expected payloads without chunk_id dropped, got %d hits", len(hits))
	}
	if hits[0].Chunk.ID != "c1" || hits[0].Chunk.DocumentID != "doc-a" || hits[0].Chunk.Title() != "Alpha" {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
	if hits[0].Cosine != 1.0 {
		t.Fatalf("expected cosine clipped to 1.0, got %v", hits[0].Cosine)
	}
	if hits[1].Cosine != 0 {
		t.Fatalf("expected negative cosine clipped to 0, got %v", hits[1].Cosine)
	}

	if gotBody["limit"] != float64(10) {
		t.Fatalf("expected limit 10 forwarded, got %v", gotBody["limit"])
	}
	if _, hasFilter := gotBody["filter"]; !hasFilter {
		t.Fatalf("expected library scope filter in request body")
	}
}

func TestSearchSemanticIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "collection missing", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "chunks", &embedderFake{vector: []float32{0.1}}, nil)
	_, err := client.SearchSemantic(context.Background(), "alpha", 10, domain.SearchScope{LibraryIDs: []string{"lib-1"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "collection missing") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}

func TestSearchSemanticEmbedFailureShortCircuits(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	client := New(server.URL, "chunks", &embedderFake{err: context.DeadlineExceeded}, nil)
	if _, err := client.SearchSemantic(context.Background(), "alpha", 10, domain.SearchScope{LibraryIDs: []string{"lib-1"}}); err == nil {
		t.Fatalf("expected error")
	}
	if called {
		t.Fatalf("expected no qdrant call after embed failure")
	}
}
