package receitaws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andreguimel/salesloop-kit-sub001/internal/lookup"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/validation"
)

const (
	defaultBaseURL = "https://receitaws.com.br/v1"
	defaultTimeout = 20 * time.Second
)

// Client queries the ReceitaWS public registry API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new ReceitaWS client
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

// rawCompany is the upstream response shape. Fields routinely go missing
// or arrive empty depending on the registry record, so everything is
// optional and defaulted during normalization.
type rawCompany struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	CNPJ              string `json:"cnpj"`
	Nome              string `json:"nome"`
	Fantasia          string `json:"fantasia"`
	AtividadePrincipal []struct {
		Code string `json:"code"`
		Text string `json:"text"`
	} `json:"atividade_principal"`
	Municipio       string `json:"municipio"`
	UF              string `json:"uf"`
	Telefone        string `json:"telefone"`
	Email           string `json:"email"`
	Logradouro      string `json:"logradouro"`
	Numero          string `json:"numero"`
	Bairro          string `json:"bairro"`
	CEP             string `json:"cep"`
	CapitalSocial   string `json:"capital_social"`
	NaturezaJuridica string `json:"natureza_juridica"`
	Porte           string `json:"porte"`
	Situacao        string `json:"situacao"`
	Abertura        string `json:"abertura"`
	Simples         *struct {
		Optante bool `json:"optante"`
	} `json:"simples"`
	Simei *struct {
		Optante bool `json:"optante"`
	} `json:"simei"`
}

// LookupCNPJ fetches a company by its 14-digit tax id
func (c *Client) LookupCNPJ(ctx context.Context, cnpj string) (*models.CompanyRecord, error) {
	url := fmt.Sprintf("%s/cnpj/%s", c.baseURL, cnpj)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Falha ao consultar a ReceitaWS")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Falha ao ler a resposta da ReceitaWS")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, lookup.NewError(lookup.CodeRateLimited, "Limite de consultas da ReceitaWS atingido, tente novamente em instantes")
	case resp.StatusCode == http.StatusNotFound:
		return nil, lookup.NewError(lookup.CodeNotFound, "CNPJ não encontrado")
	case resp.StatusCode >= 400:
		return nil, lookup.NewError(lookup.CodeUpstream, fmt.Sprintf("ReceitaWS respondeu com status %d", resp.StatusCode))
	}

	var raw rawCompany
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Resposta inválida da ReceitaWS")
	}

	if strings.EqualFold(raw.Status, "ERROR") {
		return nil, lookup.NewError(lookup.CodeNotFound, "CNPJ não encontrado")
	}

	return Normalize(&raw), nil
}

// Normalize maps the upstream shape into the canonical record. It is
// total: absent fields default to empty, never to an error.
func Normalize(raw *rawCompany) *models.CompanyRecord {
	if raw == nil {
		return nil
	}

	record := &models.CompanyRecord{
		CNPJ:         validation.DigitsOnly(raw.CNPJ),
		LegalName:    raw.Nome,
		TradeName:    raw.Fantasia,
		City:         raw.Municipio,
		State:        raw.UF,
		Email:        raw.Email,
		Street:       raw.Logradouro,
		Number:       raw.Numero,
		Neighborhood: raw.Bairro,
		PostalCode:   validation.DigitsOnly(raw.CEP),
		LegalNature:  raw.NaturezaJuridica,
		CompanySize:  raw.Porte,
		Status:       raw.Situacao,
		FoundingDate: raw.Abertura,
	}

	if len(raw.AtividadePrincipal) > 0 {
		record.CNAECode = validation.DigitsOnly(raw.AtividadePrincipal[0].Code)
		record.CNAEDescription = raw.AtividadePrincipal[0].Text
	}

	// The registry packs up to two phones into one field separated by "/"
	phones := strings.Split(raw.Telefone, "/")
	if len(phones) > 0 {
		record.Phone1 = validation.DigitsOnly(phones[0])
	}
	if len(phones) > 1 {
		record.Phone2 = validation.DigitsOnly(phones[1])
	}

	if raw.CapitalSocial != "" {
		if capital, err := strconv.ParseFloat(raw.CapitalSocial, 64); err == nil {
			record.Capital = capital
		}
	}
	if raw.Simples != nil {
		record.OptanteSimples = raw.Simples.Optante
	}
	if raw.Simei != nil {
		record.OptanteMEI = raw.Simei.Optante
	}

	return record
}
