package lookup

import (
	"context"

	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/validation"
)

const (
	defaultTextLimit = 10
	maxTextLimit     = 20
)

// TaxIDProvider resolves a single company by its 14-digit tax id
type TaxIDProvider interface {
	LookupCNPJ(ctx context.Context, cnpj string) (*models.CompanyRecord, error)
}

// SearchProvider supports the paginated industry-code and postal-code
// searches in addition to single-company resolution.
type SearchProvider interface {
	TaxIDProvider
	SearchByCNAE(ctx context.Context, cnae, uf, municipio string, page, limit int) ([]models.CompanyRecord, int, error)
	SearchByCEP(ctx context.Context, cep string, page int) ([]models.CompanyRecord, int, error)
}

// TextSearchProvider resolves a free-text query into company records
type TextSearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]models.CompanyRecord, error)
}

// CatalogProvider fetches the full CNAE class catalog
type CatalogProvider interface {
	FetchCatalog(ctx context.Context) ([]models.CNAEEntry, error)
}

// Service orchestrates company lookups across providers. Tax-id lookups
// try the primary provider first and fall back to the search provider
// only on transient upstream failures, never on definitive answers like
// not_found or invalid_key.
type Service struct {
	primary TaxIDProvider
	search  SearchProvider
	text    TextSearchProvider
	catalog *catalogCache
}

// NewService wires the lookup orchestrator from its provider adapters
func NewService(primary TaxIDProvider, search SearchProvider, text TextSearchProvider, catalog CatalogProvider) *Service {
	return &Service{
		primary: primary,
		search:  search,
		text:    text,
		catalog: newCatalogCache(catalog),
	}
}

// ByTaxID validates and normalizes the tax id, then resolves the company.
// All input validation happens before any network call.
func (s *Service) ByTaxID(ctx context.Context, cnpj string) (*models.CompanyRecord, error) {
	normalized, err := validation.NormalizeCNPJ(cnpj)
	if err != nil {
		return nil, NewError(CodeValidation, "CNPJ inválido. Informe os 14 dígitos do CNPJ")
	}

	company, err := s.primary.LookupCNPJ(ctx, normalized)
	if err == nil {
		return company, nil
	}

	switch CodeOf(err) {
	case CodeUpstream, CodeRateLimited:
		return s.search.LookupCNPJ(ctx, normalized)
	default:
		return nil, err
	}
}

// ByIndustryCode runs the plan-gated CNAE search. The provider reports
// forbidden_plan when the account tier does not include it.
func (s *Service) ByIndustryCode(ctx context.Context, cnae, uf, municipio string, page, limit int) ([]models.CompanyRecord, int, error) {
	normalized, err := validation.NormalizeCNAE(cnae)
	if err != nil {
		return nil, 0, NewError(CodeValidation, "Código CNAE inválido")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	return s.search.SearchByCNAE(ctx, normalized, uf, municipio, page, limit)
}

// ByPostalCode lists companies registered at an 8-digit postal code
func (s *Service) ByPostalCode(ctx context.Context, cep string, page int) ([]models.CompanyRecord, int, error) {
	normalized, err := validation.NormalizeCEP(cep)
	if err != nil {
		return nil, 0, NewError(CodeValidation, "CEP inválido. Informe os 8 dígitos do CEP")
	}
	if page < 1 {
		page = 1
	}

	return s.search.SearchByCEP(ctx, normalized, page)
}

// FreeText searches companies by an arbitrary query string
func (s *Service) FreeText(ctx context.Context, query string, limit int) ([]models.CompanyRecord, error) {
	if query == "" {
		return nil, NewError(CodeValidation, "Informe um termo de busca")
	}
	if limit < 1 {
		limit = defaultTextLimit
	}
	if limit > maxTextLimit {
		limit = maxTextLimit
	}

	return s.text.Search(ctx, query, limit)
}

// Catalog returns the CNAE class catalog, fetching it on first use
func (s *Service) Catalog(ctx context.Context) ([]models.CNAEEntry, error) {
	return s.catalog.get(ctx)
}
