package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"foxo/pkg/logger"
)

const (
	tavilyEndpoint   = "https://api.tavily.com/search"
	tavilySnippetCap = 250
)

// WebSearcher answers queries with live web results from the Tavily search
// API. Without an API key it stays constructable and reports unavailability,
// so the assistant degrades instead of failing to start.
type WebSearcher struct {
	apiKey     string
	maxResults int
	httpClient *http.Client
	log        *logger.Logger
}

// NewWebSearcher creates a Tavily-backed searcher. An empty apiKey produces a
// searcher that reports the tool as unavailable.
func NewWebSearcher(apiKey string, maxResults int, log *logger.Logger) *WebSearcher {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &WebSearcher{
		apiKey:     apiKey,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// Available reports whether the searcher is configured with an API key.
func (w *WebSearcher) Available() bool {
	return w.apiKey != ""
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search runs the query and returns a numbered summary of the results. All
// failure modes are reported as text, since the output is fed back to the
// model.
func (w *WebSearcher) Search(ctx context.Context, query string) string {
	if !w.Available() {
		return "Error: The web search tool is not available because TAVILY_API_KEY is not set."
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:     w.apiKey,
		Query:      query,
		MaxResults: w.maxResults,
	})
	if err != nil {
		return fmt.Sprintf("Error performing web search: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Sprintf("Error performing web search: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.log.WithError(err).Warn("Tavily request failed")
		return fmt.Sprintf("Error performing web search: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		w.log.Warn(fmt.Sprintf("Tavily returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
		return fmt.Sprintf("Error performing web search: unexpected status %d from search API.", resp.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Sprintf("Error performing web search: %v", err)
	}
	if len(parsed.Results) == 0 {
		return "No relevant results found from web search."
	}

	var sb strings.Builder
	sb.WriteString("Web Search Results:\n")
	for i, res := range parsed.Results {
		title := res.Title
		if title == "" {
			title = "No Title"
		}
		url := res.URL
		if url == "" {
			url = "#"
		}
		snippet := res.Content
		if snippet == "" {
			snippet = "No snippet available."
		}
		if runes := []rune(snippet); len(runes) > tavilySnippetCap {
			snippet = string(runes[:tavilySnippetCap])
		}
		sb.WriteString(fmt.Sprintf("%d. [%s](%s)\n   - Snippet: %s...\n", i+1, title, url, snippet))
	}
	return sb.String()
}
