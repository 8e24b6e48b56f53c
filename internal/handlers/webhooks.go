package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/andreguimel/salesloop-kit-sub001/internal/abacatepay"
	"github.com/andreguimel/salesloop-kit-sub001/internal/ledger"
	api "github.com/andreguimel/salesloop-kit-sub001/pkg/api/salesloop"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/middleware"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
)

// AbacatePayWebhook receives payment notifications from the provider.
// Auth is a shared secret in the query string plus an optional HMAC
// signature over the raw body. Only the paid event credits; every other
// event is acknowledged and dropped. The target user is resolved by the
// payer's email, not by the metadata user id, so a charge paid from a
// different account than the one that created it still lands on the
// profile that owns the payer address.
func AbacatePayWebhook(c middleware.Context) {
	secret := c.Query("webhookSecret")
	if webhookSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(webhookSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Failed to read request body"})
		return
	}

	if signature := c.GetHeader("X-Webhook-Signature"); signature != "" {
		if !verifySignature(body, signature) {
			logger.Warn("Webhook signature mismatch")
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid signature"})
			return
		}
	}

	var payload abacatepay.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Malformed payload"})
		return
	}

	if payload.Event != abacatepay.EventBillingPaid {
		logger.WithFields(logging.Fields{"event": payload.Event}).Info("Ignoring webhook event")
		countWebhook(payload.Event, "ignored")
		c.JSON(http.StatusOK, api.WebhookResponse{Received: true, Processed: false})
		return
	}

	billing := payload.Data.Billing
	email := billing.Customer.Metadata.Email
	if email == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Payload missing payer email"})
		return
	}

	var userID string
	err = db.QueryRowContext(c.Request.Context(),
		"SELECT id FROM user_profiles WHERE email = $1", email).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.WithFields(logging.Fields{"email": email}).Error("Webhook payer has no profile")
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "No profile for payer"})
		return
	}
	if err != nil {
		logger.WithFields(logging.Fields{"error": err}).Error("Failed to resolve webhook payer")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to resolve payer"})
		return
	}

	externalID := billing.Metadata["externalId"]
	packageID := billing.Metadata["packageId"]
	if externalID == "" || packageID == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Payload missing charge metadata"})
		return
	}

	pkg, err := creditLedger.GetPackage(c.Request.Context(), packageID)
	if err != nil {
		if errors.Is(err, ledger.ErrPackageNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Unknown package"})
			return
		}
		logger.WithFields(logging.Fields{"package_id": packageID, "error": err}).Error("Failed to load package for webhook")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load package"})
		return
	}

	settle(c.Request.Context(), userID, pkg, externalID)
	countWebhook(payload.Event, "processed")

	auditor.Record(c.Request.Context(), buildAuditEntry(c, userID, "webhook_settlement", "pix_charge", billing.ID, models.JSONB{
		"external_id": externalID,
		"package_id":  packageID,
		"amount":      billing.Amount,
	}))

	c.JSON(http.StatusOK, api.WebhookResponse{Received: true, Processed: true})
}

func verifySignature(body []byte, signature string) bool {
	if webhookHMACKey == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(webhookHMACKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
