package handlers

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/andreguimel/salesloop-kit-sub001/internal/abacatepay"
	"github.com/andreguimel/salesloop-kit-sub001/internal/audit"
	"github.com/andreguimel/salesloop-kit-sub001/internal/ledger"
	"github.com/andreguimel/salesloop-kit-sub001/internal/lookup"
	"github.com/andreguimel/salesloop-kit-sub001/internal/providers/zapi"
	"github.com/andreguimel/salesloop-kit-sub001/internal/ratelimit"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
)

const (
	testUserID = "7a1f9d40-3c2e-4d6b-8e5a-1b2c3d4e5f60"
	testEmail  = "maria@exemplo.com.br"
)

type fakeTaxID struct {
	company *models.CompanyRecord
	err     error
	calls   int
}

func (f *fakeTaxID) LookupCNPJ(ctx context.Context, cnpj string) (*models.CompanyRecord, error) {
	f.calls++
	return f.company, f.err
}

type fakeSearch struct {
	fakeTaxID
	results []models.CompanyRecord
	total   int
	err2    error
}

func (f *fakeSearch) SearchByCNAE(ctx context.Context, cnae, uf, municipio string, page, limit int) ([]models.CompanyRecord, int, error) {
	return f.results, f.total, f.err2
}

func (f *fakeSearch) SearchByCEP(ctx context.Context, cep string, page int) ([]models.CompanyRecord, int, error) {
	return f.results, f.total, f.err2
}

type fakeText struct{ results []models.CompanyRecord }

func (f *fakeText) Search(ctx context.Context, query string, limit int) ([]models.CompanyRecord, error) {
	return f.results, nil
}

type fakeCatalog struct{ entries []models.CNAEEntry }

func (f *fakeCatalog) FetchCatalog(ctx context.Context) ([]models.CNAEEntry, error) {
	return f.entries, nil
}

type fakePhoneChecker struct {
	results map[string]*zapi.PresenceResult
	err     error
}

func (f *fakePhoneChecker) CheckPhone(ctx context.Context, phone string) (*zapi.PresenceResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[phone]; ok {
		return r, nil
	}
	return &zapi.PresenceResult{Exists: false}, nil
}

type memStore struct {
	counts map[string]int64
}

func (s memStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if s.counts == nil {
		return 1, nil
	}
	s.counts[key]++
	return s.counts[key], nil
}

// setupTest wires the handler package against a sqlmock database and a
// default set of fakes. Individual tests override what they need.
func setupTest(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	log := logging.NewLogger()

	Init(Config{
		DB:             mockDB,
		Logger:         log,
		Lookup:         lookup.NewService(&fakeTaxID{}, &fakeSearch{}, &fakeText{}, &fakeCatalog{}),
		Ledger:         ledger.New(mockDB, log),
		Limiter:        ratelimit.NewLimiter(memStore{}, log),
		Auditor:        audit.NewRecorder(mockDB, log),
		Payments:       abacatepay.NewClient("test-key"),
		PhoneChecker:   &fakePhoneChecker{},
		WebhookSecret:  "shh-webhook",
		WebhookHMACKey: "",
	})
	phoneCheckDelay = 0
	searchRateMax = 30
	searchRateWindowMin = 60

	return mock
}

func performJSON(router *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "salesloop-test")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// authStub injects the identity the JWT middleware would have set
func authStub(c *gin.Context) {
	c.Set("user_id", testUserID)
	c.Set("email", testEmail)
	c.Next()
}

func newRouter(register func(*gin.Engine)) *gin.Engine {
	router := gin.New()
	register(router)
	return router
}
