package handlers

import (
	"net/http"

	"github.com/andreguimel/salesloop-kit-sub001/internal/audit"
	"github.com/andreguimel/salesloop-kit-sub001/internal/lookup"
	api "github.com/andreguimel/salesloop-kit-sub001/pkg/api/salesloop"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/middleware"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/validation"
)

const lookupCreditCost = 1

// requireCredits rejects the request with 402 when the caller's balance
// cannot cover one paid lookup. Returns false after writing the response.
func requireCredits(c middleware.Context, userID string) bool {
	balance, err := creditLedger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		logger.WithFields(logging.Fields{"user_id": userID, "error": err}).Error("Failed to read balance")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Erro ao verificar seu saldo de créditos"})
		return false
	}
	if balance < lookupCreditCost {
		c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: "Créditos insuficientes. Adquira um pacote para continuar"})
		return false
	}
	return true
}

// chargeLookup debits one credit after a successful paid lookup. A race
// that drained the balance between the check and here is logged, not
// surfaced, since the result was already produced.
func chargeLookup(c middleware.Context, userID, description string) {
	ok, err := creditLedger.Consume(c.Request.Context(), userID, lookupCreditCost, description, "")
	if err != nil || !ok {
		logger.WithFields(logging.Fields{"user_id": userID, "ok": ok, "error": err}).Warn("Failed to charge lookup credit")
		countCredit("consumption", "rejected")
		return
	}
	countCredit("consumption", "applied")
}

// LookupCNPJ resolves a single company by its 14-digit tax id
func LookupCNPJ(c middleware.Context) {
	userID := c.GetString("user_id")

	var req api.LookupCNPJRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Requisição inválida"})
		return
	}
	if _, err := validation.NormalizeCNPJ(req.CNPJ); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "CNPJ inválido. Informe os 14 dígitos do CNPJ"})
		return
	}

	if !requireCredits(c, userID) {
		return
	}

	company, err := lookupService.ByTaxID(c.Request.Context(), req.CNPJ)
	if err != nil {
		countLookup("cnpj", string(lookup.CodeOf(err)))
		c.JSON(lookup.HTTPStatus(err), api.ErrorResponse{Error: lookup.MessageOf(err)})
		return
	}
	countLookup("cnpj", "ok")

	chargeLookup(c, userID, "Consulta de CNPJ "+company.CNPJ)

	c.JSON(http.StatusOK, api.LookupCNPJResponse{Success: true, Company: company})
}

// LookupCNAE runs the plan-gated industry-code search
func LookupCNAE(c middleware.Context) {
	userID := c.GetString("user_id")

	var req api.LookupCNAERequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Requisição inválida"})
		return
	}
	if _, err := validation.NormalizeCNAE(req.CNAE); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Código CNAE inválido"})
		return
	}

	if !requireCredits(c, userID) {
		return
	}

	companies, _, err := lookupService.ByIndustryCode(c.Request.Context(), req.CNAE, req.UF, req.Municipio, req.Pagina, 0)
	if err != nil {
		countLookup("cnae", string(lookup.CodeOf(err)))
		if lookup.CodeOf(err) == lookup.CodeForbiddenPlan {
			c.JSON(http.StatusForbidden, api.LookupCNAEErrorResponse{Error: lookup.MessageOf(err), IsPremium: false})
			return
		}
		c.JSON(lookup.HTTPStatus(err), api.ErrorResponse{Error: lookup.MessageOf(err)})
		return
	}
	countLookup("cnae", "ok")

	chargeLookup(c, userID, "Busca por CNAE "+req.CNAE)

	c.JSON(http.StatusOK, api.LookupCNAEResponse{Success: true, IsPremium: true, Data: companies})
}

// LookupCEP lists companies registered at a postal code
func LookupCEP(c middleware.Context) {
	userID := c.GetString("user_id")

	var req api.LookupCEPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Requisição inválida"})
		return
	}
	if _, err := validation.NormalizeCEP(req.CEP); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "CEP inválido. Informe os 8 dígitos do CEP"})
		return
	}

	if !requireCredits(c, userID) {
		return
	}

	page := req.Pagina
	if page < 1 {
		page = 1
	}

	companies, total, err := lookupService.ByPostalCode(c.Request.Context(), req.CEP, page)
	if err != nil {
		countLookup("cep", string(lookup.CodeOf(err)))
		c.JSON(lookup.HTTPStatus(err), api.ErrorResponse{Error: lookup.MessageOf(err)})
		return
	}
	countLookup("cep", "ok")

	chargeLookup(c, userID, "Busca por CEP "+req.CEP)

	if companies == nil {
		companies = []models.CompanyRecord{}
	}
	c.JSON(http.StatusOK, api.LookupCEPResponse{Success: true, Companies: companies, Total: total, Page: page})
}

// LookupSearch runs the free-text map search
func LookupSearch(c middleware.Context) {
	userID := c.GetString("user_id")

	var req api.FreeTextSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Informe um termo de busca"})
		return
	}

	if !requireCredits(c, userID) {
		return
	}

	companies, err := lookupService.FreeText(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		countLookup("search", string(lookup.CodeOf(err)))
		c.JSON(lookup.HTTPStatus(err), api.ErrorResponse{Error: lookup.MessageOf(err)})
		return
	}
	countLookup("search", "ok")

	chargeLookup(c, userID, "Busca livre: "+req.Query)

	if companies == nil {
		companies = []models.CompanyRecord{}
	}
	c.JSON(http.StatusOK, api.FreeTextSearchResponse{Success: true, Companies: companies, Total: len(companies), Query: req.Query})
}

// GetCNAECatalog serves the cached industry-code catalog. Free of charge.
func GetCNAECatalog(c middleware.Context) {
	catalog, err := lookupService.Catalog(c.Request.Context())
	if err != nil {
		c.JSON(lookup.HTTPStatus(err), api.ErrorResponse{Error: lookup.MessageOf(err)})
		return
	}

	c.JSON(http.StatusOK, api.CNAECatalogResponse{Success: true, CNAEs: catalog})
}

// SearchCompanies is the general catalog-backed industry search. It is
// rate limited per user and every admitted call is audited.
func SearchCompanies(c middleware.Context) {
	userID := c.GetString("user_id")

	var req api.CompanySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Requisição inválida"})
		return
	}
	if _, err := validation.NormalizeCNAE(req.CNAE); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Código CNAE inválido"})
		return
	}

	if !limiter.CheckAndIncrement(c.Request.Context(), userID, "company_search", searchRateMax, searchRateWindowMin) {
		c.JSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "Limite de buscas atingido. Tente novamente mais tarde"})
		return
	}

	auditor.Record(c.Request.Context(), buildAuditEntry(c, userID, "company_search", "cnae", req.CNAE, models.JSONB{
		"cnae":   req.CNAE,
		"uf":     req.UF,
		"cidade": req.Cidade,
		"page":   req.Page,
		"limit":  req.Limit,
	}))

	companies, _, err := lookupService.ByIndustryCode(c.Request.Context(), req.CNAE, req.UF, req.Cidade, req.Page, req.Limit)
	if err != nil {
		countLookup("companies", string(lookup.CodeOf(err)))
		c.JSON(lookup.HTTPStatus(err), api.ErrorResponse{Error: lookup.MessageOf(err)})
		return
	}
	countLookup("companies", "ok")

	if companies == nil {
		companies = []models.CompanyRecord{}
	}
	c.JSON(http.StatusOK, api.LookupCNAEResponse{Success: true, IsPremium: true, Data: companies})
}

func buildAuditEntry(c middleware.Context, userID, action, targetType, targetID string, params models.JSONB) audit.Entry {
	return audit.Entry{
		UserID:     userID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Params:     params,
		ClientIP:   c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
}
