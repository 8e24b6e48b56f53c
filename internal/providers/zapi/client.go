package zapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andreguimel/salesloop-kit-sub001/internal/lookup"
)

const defaultTimeout = 30 * time.Second

// Client talks to a Z-API WhatsApp instance to check whether a phone
// number has an active WhatsApp account.
type Client struct {
	baseURL     string
	instanceID  string
	token       string
	clientToken string
	httpClient  *http.Client
}

// NewClient creates a new Z-API client for a specific instance
func NewClient(instanceID, token, clientToken string) *Client {
	return &Client{
		baseURL:     "https://api.z-api.io",
		instanceID:  instanceID,
		token:       token,
		clientToken: clientToken,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetBaseURL overrides the API base URL (used by tests)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// PresenceResult is the outcome of a single phone presence check
type PresenceResult struct {
	Exists bool
	Name   string
}

type rawPresence struct {
	Exists *bool  `json:"exists"`
	Name   string `json:"name"`
	Error  string `json:"error"`
}

// CheckPhone asks the instance whether the given phone number exists on
// WhatsApp. The number must already be in digits-only international form.
func (c *Client) CheckPhone(ctx context.Context, phone string) (*PresenceResult, error) {
	url := fmt.Sprintf("%s/instances/%s/token/%s/phone-exists/%s", c.baseURL, c.instanceID, c.token, phone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.clientToken != "" {
		req.Header.Set("Client-Token", c.clientToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Falha ao consultar o status do WhatsApp")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Falha ao ler a resposta do WhatsApp")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, lookup.NewError(lookup.CodeInvalidKey, "Credenciais do WhatsApp inválidas")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, lookup.NewError(lookup.CodeRateLimited, "Limite de consultas do WhatsApp atingido")
	case resp.StatusCode >= 400:
		return nil, lookup.NewError(lookup.CodeUpstream, fmt.Sprintf("WhatsApp respondeu com status %d", resp.StatusCode))
	}

	var raw rawPresence
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Resposta do WhatsApp em formato inválido")
	}
	if raw.Exists == nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Resposta do WhatsApp sem o campo de existência")
	}

	return &PresenceResult{
		Exists: *raw.Exists,
		Name:   raw.Name,
	}, nil
}
