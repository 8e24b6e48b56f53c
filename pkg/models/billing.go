package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONB is a custom type for handling JSONB fields
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// TransactionType classifies a credit ledger entry
type TransactionType string

const (
	TransactionPurchase    TransactionType = "purchase"
	TransactionConsumption TransactionType = "consumption"
	TransactionBonus       TransactionType = "bonus"
	TransactionRefund      TransactionType = "refund"
)

// CreditTransaction is an immutable, append-only ledger entry. Amount is
// positive for purchase/bonus/refund and negative for consumption.
// ReferenceID is the idempotency key for externally-triggered credits.
type CreditTransaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      int64           `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	ReferenceID string          `json:"reference_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreditPackage is a priced catalog entry for checkout
type CreditPackage struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	Credits      int    `json:"credits"`
	BonusCredits int    `json:"bonus_credits"`
	SortOrder    int    `json:"sort_order"`
	IsActive     bool   `json:"is_active"`
}

// PixCharge is an upstream-issued instant-payment charge. It is never
// persisted locally; the metadata must round-trip userId, packageId and
// the globally unique externalId used as the settlement idempotency key.
type PixCharge struct {
	ID           string            `json:"id"`
	BRCode       string            `json:"br_code"`
	BRCodeBase64 string            `json:"br_code_base64"`
	AmountCents  int64             `json:"amount_cents"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

// PhoneCheckResult is the outcome of one messaging-presence check
type PhoneCheckResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"` // valid, invalid, uncertain
	WhatsappName string `json:"whatsappName,omitempty"`
}
