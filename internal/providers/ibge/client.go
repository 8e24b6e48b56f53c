package ibge

import (
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
	defaultBaseURL = "https://servicodados.ibge.gov.br/api/v2"
	defaultTimeout = 30 * time.Second
)

// Client fetches the CNAE industry-code catalog from the IBGE open API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new IBGE API client
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetBaseURL overrides the API base URL (used by tests)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

type rawClass struct {
	ID        json.Number `json:"id"`
	Descricao string      `json:"descricao"`
}

// FetchCatalog downloads the full CNAE class catalog
func (c *Client) FetchCatalog(ctx context.Context) ([]models.CNAEEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cnae/classes", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Falha ao consultar o catálogo de CNAEs")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Falha ao ler o catálogo de CNAEs")
	}

	if resp.StatusCode >= 400 {
		return nil, lookup.NewError(lookup.CodeUpstream, fmt.Sprintf("IBGE respondeu com status %d", resp.StatusCode))
	}

	var raw []rawClass
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Catálogo de CNAEs em formato inválido")
	}

	catalog := make([]models.CNAEEntry, 0, len(raw))
	for _, class := range raw {
		catalog = append(catalog, models.CNAEEntry{
			ID:        class.ID.String(),
			Descricao: class.Descricao,
		})
	}

	return catalog, nil
}
