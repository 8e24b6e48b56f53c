package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andreguimel/salesloop-kit-sub001/internal/lookup"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
)

const (
	defaultSearchURL = "https://google.serper.dev/search"
	defaultScrapeURL = "https://scrape.serper.dev"
	defaultTimeout   = 25 * time.Second
)

// Client queries the serper.dev search and scrape APIs. Results come back
// as structured place entries plus loosely formatted page text; both are
// mined for company leads by the parser in parse.go.
type Client struct {
	apiKey     string
	searchURL  string
	scrapeURL  string
	httpClient *http.Client
}

// NewClient creates a new serper.dev client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:    apiKey,
		searchURL: defaultSearchURL,
		scrapeURL: defaultScrapeURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetEndpoints overrides the API endpoints (used by tests)
func (c *Client) SetEndpoints(searchURL, scrapeURL string) {
	c.searchURL = searchURL
	c.scrapeURL = scrapeURL
}

type searchResponse struct {
	Places []placeResult `json:"places"`
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic"`
}

type placeResult struct {
	Title       string  `json:"title"`
	Address     string  `json:"address"`
	PhoneNumber string  `json:"phoneNumber"`
	Rating      float64 `json:"rating"`
	Website     string  `json:"website"`
}

type scrapeResponse struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown"`
}

func (c *Client) post(ctx context.Context, url string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return lookup.NewError(lookup.CodeUpstream, "Falha ao consultar o serviço de busca")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return lookup.NewError(lookup.CodeUpstream, "Falha ao ler a resposta do serviço de busca")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return lookup.NewError(lookup.CodeInvalidKey, "Chave do serviço de busca inválida")
	case resp.StatusCode == http.StatusTooManyRequests:
		return lookup.NewError(lookup.CodeRateLimited, "Limite do serviço de busca atingido")
	case resp.StatusCode >= 400:
		return lookup.NewError(lookup.CodeUpstream, fmt.Sprintf("Serviço de busca respondeu com status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return lookup.NewError(lookup.CodeUpstream, "Resposta inválida do serviço de busca")
	}
	return nil
}

// Search runs a free-text query and extracts company leads from both the
// structured place results and the scraped content of the top organic
// hit. Finding nothing is not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.CompanyRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	var search searchResponse
	err := c.post(ctx, c.searchURL, map[string]interface{}{
		"q":   query,
		"gl":  "br",
		"hl":  "pt-br",
		"num": limit,
	}, &search)
	if err != nil {
		return nil, err
	}

	// First pass: structured place results
	records := extractFromPlaces(search.Places)

	// Second pass: scrape the top organic hit and mine its text. This is
	// best-effort; a failed scrape still leaves the structured results.
	if len(search.Organic) > 0 && search.Organic[0].Link != "" {
		var scraped scrapeResponse
		if err := c.post(ctx, c.scrapeURL, map[string]interface{}{
			"url": search.Organic[0].Link,
		}, &scraped); err == nil {
			text := scraped.Markdown
			if text == "" {
				text = scraped.Text
			}
			records = mergeByName(records, ExtractFromText(text))
		}
	}

	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}
