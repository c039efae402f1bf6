package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inklessnews/internal/config"
	"inklessnews/internal/domain"
	"inklessnews/internal/infrastructure/rss"
	"inklessnews/internal/ports"
)

const (
	defaultMaxArticles  = 10
	defaultSummaryWords = 150

	// candidatePreviewLength bounds per-candidate content in the
	// curation prompt to stay inside token limits.
	candidatePreviewLength = 300

	fallbackCategory = "General"
)

// Client implements curation and summarization against an
// OpenAI-compatible chat-completions API.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Curator = (*Client)(nil)
var _ ports.Summarizer = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// curationResponse is the strict contract expected from the model.
// Categorization keys arrive as stringified candidate numbers.
type curationResponse struct {
	SelectedArticles []int             `json:"selectedArticles"`
	Reasoning        string            `json:"reasoning"`
	Categorization   map[string]string `json:"categorization"`
}

// Curate asks the model to pick at most maxArticles candidates that
// best match the user's topics. Candidates are numbered 1..N in the
// prompt; ids outside that range in the response are ignored rather
// than failing the run. A selection missing a category falls back to
// the first topic, then to "General".
func (c *Client) Curate(ctx context.Context, candidates []domain.Candidate, topics []string, maxArticles int) (ports.Curation, error) {
	if maxArticles <= 0 {
		maxArticles = defaultMaxArticles
	}

	type promptArticle struct {
		ID      int    `json:"id"`
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
		Source  string `json:"source"`
	}

	numbered := make([]promptArticle, 0, len(candidates))
	for i, cand := range candidates {
		numbered = append(numbered, promptArticle{
			ID:      i + 1,
			Title:   cand.Title,
			Content: rss.CleanText(cand.Content, candidatePreviewLength),
			URL:     cand.URL,
			Source:  cand.Source,
		})
	}

	encoded, err := json.Marshal(numbered)
	if err != nil {
		return ports.Curation{}, fmt.Errorf("encode candidates: %w", err)
	}

	prompt := fmt.Sprintf(`You are a newspaper editor curating articles for a personalized Sunday newspaper.

User's topics of interest: %s

List of articles:
%s

Select up to %d articles that best match the user's interests.
Consider article relevance, diversity across topics, and quality.

Respond with JSON in this format:
{
  "selectedArticles": [array of article IDs],
  "reasoning": brief explanation of your selection,
  "categorization": {articleId: category}
}`, strings.Join(topics, ", "), encoded, maxArticles)

	content, err := c.chat(ctx, prompt, 0, 0.5, true)
	if err != nil {
		return ports.Curation{}, fmt.Errorf("curate: %w", err)
	}

	var parsed curationResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ports.Curation{}, fmt.Errorf("curate: malformed response: %w", err)
	}

	defaultCategory := fallbackCategory
	if len(topics) > 0 {
		defaultCategory = topics[0]
	}

	curation := ports.Curation{
		Categories: make(map[int]string),
		Rationale:  parsed.Reasoning,
	}
	for _, id := range parsed.SelectedArticles {
		if id < 1 || id > len(candidates) {
			continue
		}
		if len(curation.Selected) >= maxArticles {
			break
		}
		idx := id - 1
		category := parsed.Categorization[strconv.Itoa(id)]
		if category == "" {
			category = defaultCategory
		}
		curation.Selected = append(curation.Selected, idx)
		curation.Categories[idx] = category
	}

	return curation, nil
}

// Summarize asks the model for a newspaper-style synopsis of roughly
// targetWords words. Callers must not invoke this for truncated
// content; excerpts pass through the pipeline unchanged.
func (c *Client) Summarize(ctx context.Context, title, content string, targetWords int) (string, error) {
	if targetWords <= 0 {
		targetWords = defaultSummaryWords
	}

	prompt := fmt.Sprintf(`Please summarize the following article in approximately %d words.
Keep the summary concise while maintaining key points and the main message.
Make it engaging and newspaper-style.

Title: %s

Content: %s`, targetWords, title, rss.CleanText(content, rss.MaxPromptContent))

	summary, err := c.chat(ctx, prompt, 200, 0.5, false)
	if err != nil {
		return "", fmt.Errorf("summarize %q: %w", title, err)
	}

	return strings.TrimSpace(summary), nil
}

func (c *Client) chat(ctx context.Context, prompt string, maxTokens int, temperature float64, jsonMode bool) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	if jsonMode {
		reqBody.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
