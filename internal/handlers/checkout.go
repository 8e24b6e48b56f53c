package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/andreguimel/salesloop-kit-sub001/internal/abacatepay"
	"github.com/andreguimel/salesloop-kit-sub001/internal/ledger"
	"github.com/andreguimel/salesloop-kit-sub001/internal/lookup"
	api "github.com/andreguimel/salesloop-kit-sub001/pkg/api/salesloop"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/middleware"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
)

const chargeExpirySeconds = 3600

// CreateCheckout creates a PIX charge for a credit package. Every call
// produces a fresh externalId, so retrying checkout after an expired
// charge can never collide with a previous settlement.
func CreateCheckout(c middleware.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	var req api.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PackageID == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Informe o pacote de créditos"})
		return
	}

	pkg, err := creditLedger.GetPackage(c.Request.Context(), req.PackageID)
	if err != nil {
		if errors.Is(err, ledger.ErrPackageNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Pacote de créditos não encontrado"})
			return
		}
		logger.WithFields(logging.Fields{"package_id": req.PackageID, "error": err}).Error("Failed to load package")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Erro ao carregar o pacote"})
		return
	}

	var name string
	if err := db.QueryRowContext(c.Request.Context(),
		"SELECT name FROM user_profiles WHERE id = $1", userID).Scan(&name); err != nil {
		logger.WithFields(logging.Fields{"user_id": userID, "error": err}).Warn("Failed to load profile name for checkout")
	}

	externalID := fmt.Sprintf("%s_%s_%d", userID, pkg.ID, time.Now().UnixNano())
	metadata := map[string]string{
		"externalId": externalID,
		"userId":     userID,
		"packageId":  pkg.ID,
	}

	charge, err := payments.CreateQRCode(c.Request.Context(), pkg.PriceCents, chargeExpirySeconds,
		"Pacote "+pkg.Name, abacatepay.Customer{Name: name, Email: email}, metadata)
	if err != nil {
		c.JSON(lookup.HTTPStatus(err), api.ErrorResponse{Error: lookup.MessageOf(err)})
		return
	}

	auditor.Record(c.Request.Context(), buildAuditEntry(c, userID, "checkout_created", "pix_charge", charge.ID, models.JSONB{
		"package_id":  pkg.ID,
		"external_id": externalID,
		"amount":      pkg.PriceCents,
	}))

	c.JSON(http.StatusOK, api.CheckoutResponse{
		Success:      true,
		PixID:        charge.ID,
		BRCode:       charge.BRCode,
		BRCodeBase64: charge.BRCodeBase64,
		Amount:       charge.AmountCents,
		ExpiresAt:    charge.ExpiresAt.Format(time.RFC3339),
		PackageName:  pkg.Name,
		TotalCredits: pkg.Credits + pkg.BonusCredits,
	})
}

// CheckPaymentStatus polls upstream for a charge and, when it has been
// paid, settles it through the ledger. The webhook path may have settled
// the same charge already; the ledger's idempotency makes that a no-op.
func CheckPaymentStatus(c middleware.Context) {
	var req api.PaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PixID == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Informe o identificador da cobrança"})
		return
	}

	charge, err := payments.CheckQRCode(c.Request.Context(), req.PixID)
	if err != nil {
		c.JSON(lookup.HTTPStatus(err), api.ErrorResponse{Error: lookup.MessageOf(err)})
		return
	}

	isPaid := charge.Status == abacatepay.StatusPaid
	if isPaid && charge.Metadata != nil {
		settleFromMetadata(c.Request.Context(), charge.Metadata)
	}

	c.JSON(http.StatusOK, api.PaymentStatusResponse{Success: true, Status: charge.Status, IsPaid: isPaid})
}

// settleFromMetadata credits the package amount for a paid charge using
// the metadata that round-tripped through the provider. The bonus is a
// second, independently idempotent transaction; its failure is swallowed
// so the base credit always lands.
func settleFromMetadata(ctx context.Context, metadata map[string]string) {
	externalID := metadata["externalId"]
	userID := metadata["userId"]
	packageID := metadata["packageId"]
	if externalID == "" || userID == "" || packageID == "" {
		logger.WithFields(logging.Fields{"metadata": metadata}).Warn("Paid charge metadata incomplete, cannot settle")
		return
	}

	pkg, err := creditLedger.GetPackage(ctx, packageID)
	if err != nil {
		logger.WithFields(logging.Fields{"package_id": packageID, "error": err}).Error("Failed to load package for settlement")
		return
	}

	settle(ctx, userID, pkg, externalID)
}

func settle(ctx context.Context, userID string, pkg *models.CreditPackage, externalID string) {
	result, err := creditLedger.Credit(ctx, userID, int64(pkg.Credits), models.TransactionPurchase,
		"Compra do pacote "+pkg.Name, externalID)
	if err != nil {
		logger.WithFields(logging.Fields{
			"user_id":      userID,
			"reference_id": externalID,
			"error":        err,
		}).Error("Failed to credit purchase")
		return
	}

	logger.WithFields(logging.Fields{
		"user_id":      userID,
		"reference_id": externalID,
		"credits":      pkg.Credits,
		"result":       result,
	}).Info("Purchase settlement processed")
	countCredit(string(models.TransactionPurchase), string(result))

	if pkg.BonusCredits > 0 {
		bonusResult, err := creditLedger.Credit(ctx, userID, int64(pkg.BonusCredits), models.TransactionBonus,
			"Bônus do pacote "+pkg.Name, externalID+"_bonus")
		if err != nil {
			logger.WithFields(logging.Fields{
				"user_id":      userID,
				"reference_id": externalID + "_bonus",
				"error":        err,
			}).Warn("Failed to credit bonus")
			return
		}
		countCredit(string(models.TransactionBonus), string(bonusResult))
	}
}
