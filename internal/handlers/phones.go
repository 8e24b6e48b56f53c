package handlers

import (
	"context"
	"net/http"
	"time"

	api "github.com/andreguimel/salesloop-kit-sub001/pkg/api/salesloop"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/middleware"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/validation"
)

const (
	phoneStatusValid     = "valid"
	phoneStatusInvalid   = "invalid"
	phoneStatusUncertain = "uncertain"
)

// ValidatePhones checks a batch of stored lead phones against the
// messaging-presence provider and persists each outcome. Checks run
// sequentially with a fixed pause between them to stay under the
// provider's throttle. A check failure marks the phone uncertain rather
// than failing the batch.
func ValidatePhones(c middleware.Context) {
	userID := c.GetString("user_id")

	var req api.PhoneValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.PhoneIDs) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Informe os telefones a validar"})
		return
	}
	if len(req.PhoneIDs) > 50 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Máximo de 50 telefones por lote"})
		return
	}

	ctx := c.Request.Context()
	results := make([]models.PhoneCheckResult, 0, len(req.PhoneIDs))
	summary := api.PhoneValidationSummary{}

	for i, phoneID := range req.PhoneIDs {
		if i > 0 && !pauseBetweenChecks(ctx) {
			logger.WithFields(logging.Fields{"user_id": userID, "checked": i}).Warn("Phone validation batch aborted by client")
			return
		}

		var phone string
		err := db.QueryRowContext(ctx,
			"SELECT phone FROM lead_phones WHERE id = $1 AND user_id = $2", phoneID, userID).Scan(&phone)
		if err != nil {
			logger.WithFields(logging.Fields{"phone_id": phoneID, "error": err}).Warn("Phone not found for validation")
			continue
		}

		status := phoneStatusUncertain
		whatsappName := ""

		if digits := validation.DigitsOnly(phone); len(digits) >= 10 {
			if len(digits) <= 11 {
				digits = "55" + digits
			}
			presence, err := phoneChecker.CheckPhone(ctx, digits)
			if err != nil {
				logger.WithFields(logging.Fields{"phone_id": phoneID, "error": err}).Warn("Presence check failed")
			} else if presence.Exists {
				status = phoneStatusValid
				whatsappName = presence.Name
			} else {
				status = phoneStatusInvalid
			}
		} else {
			status = phoneStatusInvalid
		}

		if _, err := db.ExecContext(ctx, `
			UPDATE lead_phones
			SET whatsapp_status = $1, whatsapp_name = $2, checked_at = NOW()
			WHERE id = $3 AND user_id = $4`,
			status, whatsappName, phoneID, userID); err != nil {
			logger.WithFields(logging.Fields{"phone_id": phoneID, "error": err}).Warn("Failed to persist phone status")
		}

		results = append(results, models.PhoneCheckResult{ID: phoneID, Status: status, WhatsappName: whatsappName})
		summary.Total++
		switch status {
		case phoneStatusValid:
			summary.Valid++
		case phoneStatusInvalid:
			summary.Invalid++
		default:
			summary.Uncertain++
		}
	}

	c.JSON(http.StatusOK, api.PhoneValidationResponse{Success: true, Results: results, Summary: summary})
}

// pauseBetweenChecks waits out the provider-throttle delay, returning
// false when the request context is cancelled first.
func pauseBetweenChecks(ctx context.Context) bool {
	if phoneCheckDelay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(phoneCheckDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
