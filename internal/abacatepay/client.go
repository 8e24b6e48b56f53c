package abacatepay

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
	defaultBaseURL = "https://api.abacatepay.com/v1"
	defaultTimeout = 30 * time.Second

	// StatusPaid is the upstream terminal status that triggers crediting
	StatusPaid = "PAID"

	// EventBillingPaid is the only webhook event that settles a charge
	EventBillingPaid = "billing.paid"
)

// Client talks to the AbacatePay PIX API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new AbacatePay client
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetBaseURL overrides the API base URL (used by tests)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Customer identifies the payer on a new charge
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createRequest struct {
	Amount      int64             `json:"amount"`
	ExpiresIn   int               `json:"expiresIn"`
	Description string            `json:"description"`
	Customer    Customer          `json:"customer"`
	Metadata    map[string]string `json:"metadata"`
}

type chargeData struct {
	ID           string            `json:"id"`
	BRCode       string            `json:"brCode"`
	BRCodeBase64 string            `json:"brCodeBase64"`
	Amount       int64             `json:"amount"`
	Status       string            `json:"status"`
	ExpiresAt    time.Time         `json:"expiresAt"`
	Metadata     map[string]string `json:"metadata"`
}

type apiResponse struct {
	Data  *chargeData `json:"data"`
	Error string      `json:"error"`
}

// WebhookPayload is the body AbacatePay posts to the webhook endpoint
type WebhookPayload struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData carries the paid charge inside a webhook delivery
type WebhookData struct {
	Billing WebhookBilling `json:"billing"`
}

// WebhookBilling describes the charge and payer of a webhook event
type WebhookBilling struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Status   string            `json:"status"`
	Customer WebhookCustomer   `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

// WebhookCustomer is the payer identity as reported by the provider
type WebhookCustomer struct {
	Metadata WebhookCustomerMetadata `json:"metadata"`
}

// WebhookCustomerMetadata holds the payer contact fields
type WebhookCustomerMetadata struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateQRCode requests a new PIX charge. Metadata round-trips through
// the provider and comes back on both the poll and webhook paths.
func (c *Client) CreateQRCode(ctx context.Context, amountCents int64, expiresInSeconds int, description string, customer Customer, metadata map[string]string) (*models.PixCharge, error) {
	payload := createRequest{
		Amount:      amountCents,
		ExpiresIn:   expiresInSeconds,
		Description: description,
		Customer:    customer,
		Metadata:    metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/pixQrCode/create", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	return toPixCharge(data), nil
}

// CheckQRCode polls the current status of an existing charge
func (c *Client) CheckQRCode(ctx context.Context, pixID string) (*models.PixCharge, error) {
	if pixID == "" {
		return nil, lookup.NewError(lookup.CodeValidation, "Identificador da cobrança é obrigatório")
	}

	url := fmt.Sprintf("%s/pixQrCode/check?id=%s", c.baseURL, pixID)
	data, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	return toPixCharge(data), nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, body io.Reader) (*chargeData, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Falha ao contatar o provedor de pagamento")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Falha ao ler a resposta do provedor de pagamento")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, lookup.NewError(lookup.CodeInvalidKey, "Credenciais do provedor de pagamento inválidas")
	case resp.StatusCode == http.StatusNotFound:
		return nil, lookup.NewError(lookup.CodeNotFound, "Cobrança não encontrada")
	case resp.StatusCode >= 400:
		return nil, lookup.NewError(lookup.CodeUpstream, fmt.Sprintf("Provedor de pagamento respondeu com status %d", resp.StatusCode))
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Resposta do provedor de pagamento em formato inválido")
	}
	if parsed.Error != "" {
		return nil, lookup.NewError(lookup.CodeUpstream, parsed.Error)
	}
	if parsed.Data == nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Resposta do provedor de pagamento sem dados")
	}

	return parsed.Data, nil
}

func toPixCharge(data *chargeData) *models.PixCharge {
	return &models.PixCharge{
		ID:           data.ID,
		BRCode:       data.BRCode,
		BRCodeBase64: data.BRCodeBase64,
		AmountCents:  data.Amount,
		ExpiresAt:    data.ExpiresAt,
		Status:       data.Status,
		Metadata:     data.Metadata,
	}
}
