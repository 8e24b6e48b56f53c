package handlers

import (
	"net/http"
	"strconv"

	api "github.com/andreguimel/salesloop-kit-sub001/pkg/api/salesloop"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/middleware"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
)

// GetBalance returns the caller's current credit balance
func GetBalance(c middleware.Context) {
	userID := c.GetString("user_id")

	balance, err := creditLedger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		logger.WithFields(logging.Fields{"user_id": userID, "error": err}).Error("Failed to read balance")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Erro ao consultar seu saldo"})
		return
	}

	c.JSON(http.StatusOK, api.BalanceResponse{Success: true, Balance: balance})
}

// GetPackages lists the active credit packages
func GetPackages(c middleware.Context) {
	packages, err := creditLedger.ListPackages(c.Request.Context())
	if err != nil {
		logger.WithFields(logging.Fields{"error": err}).Error("Failed to list packages")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Erro ao carregar os pacotes"})
		return
	}

	if packages == nil {
		packages = []models.CreditPackage{}
	}
	c.JSON(http.StatusOK, api.PackagesResponse{Success: true, Packages: packages})
}

// GetTransactions returns the caller's recent ledger entries
func GetTransactions(c middleware.Context) {
	userID := c.GetString("user_id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	transactions, err := creditLedger.ListTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		logger.WithFields(logging.Fields{"user_id": userID, "error": err}).Error("Failed to list transactions")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Erro ao carregar o extrato"})
		return
	}

	if transactions == nil {
		transactions = []models.CreditTransaction{}
	}
	c.JSON(http.StatusOK, api.TransactionsResponse{Success: true, Transactions: transactions})
}
