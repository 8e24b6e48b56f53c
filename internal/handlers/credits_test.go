package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func creditsRouter() *gin.Engine {
	return newRouter(func(r *gin.Engine) {
		group := r.Group("/credits", authStub)
		group.GET("/balance", GetBalance)
		group.GET("/packages", GetPackages)
		group.GET("/transactions", GetTransactions)
	})
}

func TestGetBalanceDefaultsToZeroForNewUser(t *testing.T) {
	mock := setupTest(t)

	mock.ExpectQuery("SELECT balance FROM credit_balances").
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))

	w := performJSON(creditsRouter(), http.MethodGet, "/credits/balance", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Success bool  `json:"success"`
		Balance int64 `json:"balance"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success || resp.Balance != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestGetPackagesListsActiveOnly(t *testing.T) {
	mock := setupTest(t)

	mock.ExpectQuery("SELECT id, name, price_cents").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price_cents", "credits", "bonus_credits", "sort_order", "is_active"}).
			AddRow("pkg-1", "Starter", 4990, 100, 10, 1, true).
			AddRow("pkg-2", "Pro", 14990, 400, 60, 2, true))

	w := performJSON(creditsRouter(), http.MethodGet, "/credits/packages", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Packages []struct {
			Name string `json:"name"`
		} `json:"packages"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Packages) != 2 || resp.Packages[1].Name != "Pro" {
		t.Errorf("unexpected packages: %+v", resp.Packages)
	}
}

func TestGetTransactionsEmptyHistory(t *testing.T) {
	mock := setupTest(t)

	mock.ExpectQuery("SELECT id, user_id, amount, type, description").
		WithArgs(testUserID, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "type", "description", "reference_id", "created_at"}))

	w := performJSON(creditsRouter(), http.MethodGet, "/credits/transactions", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Success      bool              `json:"success"`
		Transactions []json.RawMessage `json:"transactions"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Transactions == nil {
		t.Error("expected empty array, not null")
	}
	if len(resp.Transactions) != 0 {
		t.Errorf("expected no transactions, got %d", len(resp.Transactions))
	}
}
