package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inklessnews/internal/config"
	"inklessnews/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.OpenAIConfig{
		Endpoint: server.URL,
		Model:    "gpt-4o",
		APIKey:   "test-key",
	})
	client.httpClient = server.Client()

	return client, server
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()

	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func testCandidates() []domain.Candidate {
	return []domain.Candidate{
		{Title: "Chips ahead", URL: "https://example.com/a", Source: "TechWire", Content: "Long piece about semiconductors."},
		{Title: "Match report", URL: "https://example.com/b", Source: "SportDay", Content: "Ninety minutes of football."},
		{Title: "Rate cut", URL: "https://example.com/c", Source: "FinanceNow", Content: "Central bank lowers rates."},
	}
}

func TestCurate(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("curation must request json_object responses")
		}
		chatReply(t, w, `{
			"selectedArticles": [3, 1, 99],
			"reasoning": "finance first, then tech",
			"categorization": {"3": "Finance", "1": "Technology"}
		}`)
	})

	curation, err := client.Curate(context.Background(), testCandidates(), []string{"Finance", "Technology"}, 10)
	if err != nil {
		t.Fatalf("Curate error: %v", err)
	}

	// Out-of-range id 99 is dropped; selection order is preserved.
	if len(curation.Selected) != 2 || curation.Selected[0] != 2 || curation.Selected[1] != 0 {
		t.Fatalf("unexpected selection: %v", curation.Selected)
	}
	if curation.Categories[2] != "Finance" || curation.Categories[0] != "Technology" {
		t.Fatalf("unexpected categories: %v", curation.Categories)
	}
	if curation.Rationale != "finance first, then tech" {
		t.Fatalf("unexpected rationale: %q", curation.Rationale)
	}
}

func TestCurateCategoryFallback(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"selectedArticles": [2], "categorization": {}}`)
	})

	curation, err := client.Curate(context.Background(), testCandidates(), []string{"Science"}, 10)
	if err != nil {
		t.Fatalf("Curate error: %v", err)
	}
	if curation.Categories[1] != "Science" {
		t.Fatalf("expected first-topic fallback, got %q", curation.Categories[1])
	}

	client2, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"selectedArticles": [1], "categorization": {}}`)
	})

	curation, err = client2.Curate(context.Background(), testCandidates(), nil, 10)
	if err != nil {
		t.Fatalf("Curate error: %v", err)
	}
	if curation.Categories[0] != "General" {
		t.Fatalf("expected General fallback, got %q", curation.Categories[0])
	}
}

func TestCurateMalformedResponse(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `this is not json`)
	})

	if _, err := client.Curate(context.Background(), testCandidates(), []string{"News"}, 10); err == nil {
		t.Fatal("expected error for malformed curation response")
	}
}

func TestCurateRespectsCap(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"selectedArticles": [1, 2, 3], "categorization": {}}`)
	})

	curation, err := client.Curate(context.Background(), testCandidates(), []string{"News"}, 2)
	if err != nil {
		t.Fatalf("Curate error: %v", err)
	}
	if len(curation.Selected) != 2 {
		t.Fatalf("expected cap of 2, got %d selections", len(curation.Selected))
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}
		chatReply(t, w, "  A tight newspaper-style summary.  ")
	})

	summary, err := client.Summarize(context.Background(), "Chips ahead", "<p>Long piece</p>", 150)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if summary != "A tight newspaper-style summary." {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestSummarizeProviderError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if _, err := client.Summarize(context.Background(), "t", "c", 150); err == nil {
		t.Fatal("expected error on provider failure")
	}
}
