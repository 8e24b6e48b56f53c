package cnpjws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andreguimel/salesloop-kit-sub001/internal/lookup"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/validation"
)

const (
	defaultBaseURL = "https://comercial.cnpj.ws"
	defaultTimeout = 30 * time.Second
)

// Client queries the cnpj.ws commercial API. Search endpoints are gated
// behind the paid plan; the basic plan only serves single-CNPJ lookups.
type Client struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new cnpj.ws API client
func NewClient(apiToken string) *Client {
	return &Client{
		apiToken: apiToken,
		baseURL:  defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetBaseURL overrides the API base URL (used by tests)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// doRequest performs an authenticated GET and maps non-2xx statuses onto
// the canonical error taxonomy.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x_api_token", c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Falha ao consultar o cnpj.ws")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Falha ao ler a resposta do cnpj.ws")
	}

	if resp.StatusCode >= 400 {
		return nil, mapStatus(resp.StatusCode, body)
	}

	return body, nil
}

// mapStatus converts upstream HTTP statuses into the canonical taxonomy.
// Unknown statuses become upstream_error.
func mapStatus(status int, body []byte) error {
	var detail apiError
	_ = json.Unmarshal(body, &detail)

	switch status {
	case http.StatusUnauthorized:
		return lookup.NewError(lookup.CodeInvalidKey, "Chave de API do cnpj.ws inválida ou ausente")
	case http.StatusPaymentRequired:
		return lookup.NewError(lookup.CodeInsufficientCredits, "Créditos do plano cnpj.ws esgotados")
	case http.StatusForbidden:
		// Distinguishes plan tier from authentication: the key is valid,
		// the contracted plan just does not include this endpoint.
		return lookup.NewError(lookup.CodeForbiddenPlan, "Seu plano cnpj.ws não inclui este tipo de consulta (recurso do plano comercial)")
	case http.StatusNotFound:
		return lookup.NewError(lookup.CodeNotFound, "CNPJ não encontrado")
	case http.StatusTooManyRequests:
		return lookup.NewError(lookup.CodeRateLimited, "Limite de requisições do cnpj.ws atingido")
	default:
		msg := fmt.Sprintf("cnpj.ws respondeu com status %d", status)
		if detail.Titulo != "" {
			msg = fmt.Sprintf("%s: %s", msg, detail.Titulo)
		}
		return lookup.NewError(lookup.CodeUpstream, msg)
	}
}

// LookupCNPJ fetches a single company by its 14-digit tax id
func (c *Client) LookupCNPJ(ctx context.Context, cnpj string) (*models.CompanyRecord, error) {
	body, err := c.doRequest(ctx, "/cnpj/"+cnpj)
	if err != nil {
		return nil, err
	}

	var raw RawCompany
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, lookup.NewError(lookup.CodeUpstream, "Resposta inválida do cnpj.ws")
	}

	return NormalizeCompany(&raw), nil
}

// SearchByCNAE runs the plan-gated industry-code search
func (c *Client) SearchByCNAE(ctx context.Context, cnae, uf, municipio string, page, limit int) ([]models.CompanyRecord, int, error) {
	params := url.Values{}
	params.Set("atividade_principal_id", cnae)
	if uf != "" {
		params.Set("uf", uf)
	}
	if municipio != "" {
		params.Set("municipio", municipio)
	}
	params.Set("pagina", strconv.Itoa(page))
	if limit > 0 {
		params.Set("limite", strconv.Itoa(limit))
	}

	return c.search(ctx, params)
}

// SearchByCEP runs the plan-gated postal-code search
func (c *Client) SearchByCEP(ctx context.Context, cep string, page int) ([]models.CompanyRecord, int, error) {
	params := url.Values{}
	params.Set("cep", cep)
	params.Set("pagina", strconv.Itoa(page))

	return c.search(ctx, params)
}

func (c *Client) search(ctx context.Context, params url.Values) ([]models.CompanyRecord, int, error) {
	body, err := c.doRequest(ctx, "/pesquisa?"+params.Encode())
	if err != nil {
		return nil, 0, err
	}

	var raw SearchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, lookup.NewError(lookup.CodeUpstream, "Resposta inválida do cnpj.ws")
	}

	records := make([]models.CompanyRecord, 0, len(raw.Dados))
	for i := range raw.Dados {
		records = append(records, *NormalizeSearchRow(&raw.Dados[i]))
	}

	return records, raw.Total, nil
}

// NormalizeCompany maps the nested upstream shape into the canonical
// record, defaulting every absent branch to empty.
func NormalizeCompany(raw *RawCompany) *models.CompanyRecord {
	if raw == nil {
		return nil
	}

	record := &models.CompanyRecord{
		LegalName: raw.RazaoSocial,
	}

	if capital, err := strconv.ParseFloat(raw.CapitalSocial, 64); err == nil {
		record.Capital = capital
	}
	if raw.NaturezaJuridica != nil {
		record.LegalNature = raw.NaturezaJuridica.Descricao
	}
	if raw.Porte != nil {
		record.CompanySize = raw.Porte.Descricao
	}
	if raw.Simples != nil {
		record.OptanteSimples = strings.EqualFold(raw.Simples.Simples, "Sim")
		record.OptanteMEI = strings.EqualFold(raw.Simples.MEI, "Sim")
	}

	est := raw.Estabelecimento
	if est == nil {
		return record
	}

	record.CNPJ = validation.DigitsOnly(est.CNPJ)
	record.TradeName = est.NomeFantasia
	record.Status = est.SituacaoCadastral
	record.FoundingDate = est.DataInicioAtividade
	record.Email = est.Email
	record.Street = strings.TrimSpace(est.TipoLogradouro + " " + est.Logradouro)
	record.Number = est.Numero
	record.Neighborhood = est.Bairro
	record.PostalCode = validation.DigitsOnly(est.CEP)
	record.Phone1 = joinPhone(est.DDD1, est.Telefone1)
	record.Phone2 = joinPhone(est.DDD2, est.Telefone2)

	if est.AtividadePrincipal != nil {
		record.CNAECode = validation.DigitsOnly(est.AtividadePrincipal.ID)
		record.CNAEDescription = est.AtividadePrincipal.Descricao
	}
	if est.Cidade != nil {
		record.City = est.Cidade.Nome
	}
	if est.Estado != nil {
		record.State = est.Estado.Sigla
	}

	return record
}

// NormalizeSearchRow maps one flat search result row
func NormalizeSearchRow(row *SearchRow) *models.CompanyRecord {
	if row == nil {
		return nil
	}

	record := &models.CompanyRecord{
		CNPJ:         validation.DigitsOnly(row.CNPJ),
		LegalName:    row.RazaoSocial,
		TradeName:    row.NomeFantasia,
		Email:        row.Email,
		Street:       row.Logradouro,
		Number:       row.Numero,
		Neighborhood: row.Bairro,
		PostalCode:   validation.DigitsOnly(row.CEP),
		City:         row.Municipio,
		State:        row.UF,
		Phone1:       joinPhone(row.DDD1, row.Telefone1),
		Phone2:       joinPhone(row.DDD2, row.Telefone2),
	}

	if row.AtividadePrincipal != nil {
		record.CNAECode = validation.DigitsOnly(row.AtividadePrincipal.ID)
		record.CNAEDescription = row.AtividadePrincipal.Descricao
	}

	return record
}

// joinPhone concatenates area code and subscriber number only when both
// are present; a missing half yields an empty phone, never an error.
func joinPhone(ddd, number string) string {
	ddd = validation.DigitsOnly(ddd)
	number = validation.DigitsOnly(number)
	if ddd == "" || number == "" {
		return ""
	}
	return ddd + number
}
