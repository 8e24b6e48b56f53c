package salesloop

import (
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
)

// ErrorResponse is the uniform error payload for every endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}

// LookupCNPJRequest requests a single-company lookup by tax id
type LookupCNPJRequest struct {
	CNPJ string `json:"cnpj"`
}

// LookupCNPJResponse returns the normalized company record
type LookupCNPJResponse struct {
	Success bool                  `json:"success"`
	Company *models.CompanyRecord `json:"company"`
}

// LookupCNAERequest requests a premium industry-code search
type LookupCNAERequest struct {
	CNAE      string `json:"cnae"`
	UF        string `json:"uf,omitempty"`
	Municipio string `json:"municipio,omitempty"`
	Pagina    int    `json:"pagina"`
}

// LookupCNAEResponse returns premium search results
type LookupCNAEResponse struct {
	Success   bool                   `json:"success"`
	IsPremium bool                   `json:"isPremium"`
	Data      []models.CompanyRecord `json:"data"`
}

// LookupCNAEErrorResponse is returned when the provider plan forbids the search
type LookupCNAEErrorResponse struct {
	Error     string `json:"error"`
	IsPremium bool   `json:"isPremium"`
}

// LookupCEPRequest requests a postal-code bulk lookup
type LookupCEPRequest struct {
	CEP    string `json:"cep"`
	Pagina int    `json:"pagina,omitempty"`
}

// LookupCEPResponse returns companies registered at a postal code
type LookupCEPResponse struct {
	Success   bool                   `json:"success"`
	Companies []models.CompanyRecord `json:"companies"`
	Total     int                    `json:"total"`
	Page      int                    `json:"page"`
}

// FreeTextSearchRequest requests a free-text map search
type FreeTextSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// FreeTextSearchResponse returns heuristically extracted partial records
type FreeTextSearchResponse struct {
	Success   bool                   `json:"success"`
	Companies []models.CompanyRecord `json:"companies"`
	Total     int                    `json:"total"`
	Query     string                 `json:"query"`
}

// CompanySearchRequest requests the general catalog-backed industry search
type CompanySearchRequest struct {
	CNAE   string `json:"cnae"`
	UF     string `json:"uf,omitempty"`
	Cidade string `json:"cidade,omitempty"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

// CNAECatalogResponse returns the cached industry-code catalog
type CNAECatalogResponse struct {
	Success bool               `json:"success"`
	CNAEs   []models.CNAEEntry `json:"cnaes"`
}

// CheckoutRequest creates an instant-payment charge for a credit package
type CheckoutRequest struct {
	PackageID string `json:"packageId"`
}

// CheckoutResponse returns the displayable charge
type CheckoutResponse struct {
	Success      bool   `json:"success"`
	PixID        string `json:"pixId"`
	BRCode       string `json:"brCode"`
	BRCodeBase64 string `json:"brCodeBase64"`
	Amount       int64  `json:"amount"`
	ExpiresAt    string `json:"expiresAt"`
	PackageName  string `json:"packageName"`
	TotalCredits int    `json:"totalCredits"`
}

// PaymentStatusRequest polls an instant-payment charge
type PaymentStatusRequest struct {
	PixID string `json:"pixId"`
}

// PaymentStatusResponse reports the charge state
type PaymentStatusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	IsPaid  bool   `json:"isPaid"`
}

// WebhookResponse acknowledges an inbound payment notification
type WebhookResponse struct {
	Received  bool `json:"received"`
	Processed bool `json:"processed"`
}

// PhoneValidationRequest requests a messaging-presence check batch
type PhoneValidationRequest struct {
	PhoneIDs []string `json:"phoneIds"`
}

// PhoneValidationSummary aggregates a validation batch
type PhoneValidationSummary struct {
	Total     int `json:"total"`
	Valid     int `json:"valid"`
	Invalid   int `json:"invalid"`
	Uncertain int `json:"uncertain"`
}

// PhoneValidationResponse returns per-phone outcomes plus a summary
type PhoneValidationResponse struct {
	Success bool                      `json:"success"`
	Results []models.PhoneCheckResult `json:"results"`
	Summary PhoneValidationSummary    `json:"summary"`
}

// BalanceResponse returns the caller's current credit balance
type BalanceResponse struct {
	Success bool  `json:"success"`
	Balance int64 `json:"balance"`
}

// PackagesResponse returns the active credit package catalog
type PackagesResponse struct {
	Success  bool                   `json:"success"`
	Packages []models.CreditPackage `json:"packages"`
}

// TransactionsResponse returns the caller's recent ledger entries
type TransactionsResponse struct {
	Success      bool                       `json:"success"`
	Transactions []models.CreditTransaction `json:"transactions"`
}
