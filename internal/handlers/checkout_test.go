package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func checkoutRouter() *gin.Engine {
	return newRouter(func(r *gin.Engine) {
		group := r.Group("", authStub)
		group.POST("/checkout", CreateCheckout)
		group.POST("/checkout/status", CheckPaymentStatus)
	})
}

func TestCreateCheckoutReturnsCharge(t *testing.T) {
	mock := setupTest(t)

	var gotMetadata map[string]string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount   int64             `json:"amount"`
			Metadata map[string]string `json:"metadata"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotMetadata = req.Metadata

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":           "pix_char_abc",
				"brCode":       "00020126...",
				"brCodeBase64": "iVBORw0KGgo=",
				"amount":       req.Amount,
				"status":       "PENDING",
				"expiresAt":    "2026-08-30T12:00:00Z",
				"metadata":     req.Metadata,
			},
		})
	}))
	defer upstream.Close()
	payments.SetBaseURL(upstream.URL)

	expectPackageLookup(mock, "pkg-1", 100, 10)
	mock.ExpectQuery("SELECT name FROM user_profiles").
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Maria"))
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := performJSON(checkoutRouter(), http.MethodPost, "/checkout", []byte(`{"packageId":"pkg-1"}`), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success      bool   `json:"success"`
		PixID        string `json:"pixId"`
		BRCode       string `json:"brCode"`
		TotalCredits int    `json:"totalCredits"`
		PackageName  string `json:"packageName"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.Success || resp.PixID != "pix_char_abc" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.TotalCredits != 110 {
		t.Errorf("expected 110 total credits, got %d", resp.TotalCredits)
	}

	if gotMetadata["userId"] != testUserID || gotMetadata["packageId"] != "pkg-1" {
		t.Errorf("metadata did not round-trip identity: %+v", gotMetadata)
	}
	externalID := gotMetadata["externalId"]
	if !strings.HasPrefix(externalID, testUserID+"_pkg-1_") {
		t.Errorf("unexpected externalId format: %q", externalID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateCheckoutExternalIDsNeverCollide(t *testing.T) {
	mock := setupTest(t)

	seen := make(map[string]bool)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Metadata map[string]string `json:"metadata"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		id := req.Metadata["externalId"]
		if seen[id] {
			t.Errorf("externalId %q reused across checkouts", id)
		}
		seen[id] = true

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"id": "pix_" + id, "status": "PENDING"},
		})
	}))
	defer upstream.Close()
	payments.SetBaseURL(upstream.URL)

	router := checkoutRouter()
	for i := 0; i < 2; i++ {
		expectPackageLookup(mock, "pkg-1", 100, 10)
		mock.ExpectQuery("SELECT name FROM user_profiles").
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Maria"))
		mock.ExpectExec("INSERT INTO audit_logs").
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := performJSON(router, http.MethodPost, "/checkout", []byte(`{"packageId":"pkg-1"}`), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("checkout %d failed: %d", i, w.Code)
		}
	}
}

func TestCreateCheckoutUnknownPackage(t *testing.T) {
	mock := setupTest(t)

	mock.ExpectQuery("SELECT id, name, price_cents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := performJSON(checkoutRouter(), http.MethodPost, "/checkout", []byte(`{"packageId":"missing"}`), nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCheckPaymentStatusSettlesPaidCharge(t *testing.T) {
	mock := setupTest(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":     "pix_char_abc",
				"status": "PAID",
				"metadata": map[string]string{
					"externalId": "ext-poll",
					"userId":     testUserID,
					"packageId":  "pkg-1",
				},
			},
		})
	}))
	defer upstream.Close()
	payments.SetBaseURL(upstream.URL)

	expectPackageLookup(mock, "pkg-1", 100, 10)
	expectCreditApplied(mock, 100, "purchase", "ext-poll")
	expectCreditApplied(mock, 10, "bonus", "ext-poll_bonus")

	w := performJSON(checkoutRouter(), http.MethodPost, "/checkout/status", []byte(`{"pixId":"pix_char_abc"}`), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
		IsPaid  bool   `json:"isPaid"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.IsPaid || resp.Status != "PAID" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCheckPaymentStatusPollAfterWebhookIsNoOp(t *testing.T) {
	mock := setupTest(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":     "pix_char_abc",
				"status": "PAID",
				"metadata": map[string]string{
					"externalId": "ext-race",
					"userId":     testUserID,
					"packageId":  "pkg-1",
				},
			},
		})
	}))
	defer upstream.Close()
	payments.SetBaseURL(upstream.URL)

	expectPackageLookup(mock, "pkg-1", 100, 10)
	expectCreditSkipped(mock, 100, "purchase", "ext-race")
	expectCreditSkipped(mock, 10, "bonus", "ext-race_bonus")

	w := performJSON(checkoutRouter(), http.MethodPost, "/checkout/status", []byte(`{"pixId":"pix_char_abc"}`), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCheckPaymentStatusPendingDoesNotSettle(t *testing.T) {
	mock := setupTest(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":     "pix_char_abc",
				"status": "PENDING",
				"metadata": map[string]string{
					"externalId": "ext-1",
					"userId":     testUserID,
					"packageId":  "pkg-1",
				},
			},
		})
	}))
	defer upstream.Close()
	payments.SetBaseURL(upstream.URL)

	w := performJSON(checkoutRouter(), http.MethodPost, "/checkout/status", []byte(`{"pixId":"pix_char_abc"}`), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		IsPaid bool `json:"isPaid"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.IsPaid {
		t.Error("pending charge must not report paid")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("ledger must not be touched: %v", err)
	}
}
