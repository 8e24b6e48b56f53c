package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/andreguimel/salesloop-kit-sub001/internal/abacatepay"
	"github.com/andreguimel/salesloop-kit-sub001/internal/audit"
	"github.com/andreguimel/salesloop-kit-sub001/internal/ledger"
	"github.com/andreguimel/salesloop-kit-sub001/internal/lookup"
	"github.com/andreguimel/salesloop-kit-sub001/internal/providers/zapi"
	"github.com/andreguimel/salesloop-kit-sub001/internal/ratelimit"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/monitoring"
)

// PhoneChecker is the messaging-presence provider used by the phone
// validation batch.
type PhoneChecker interface {
	CheckPhone(ctx context.Context, phone string) (*zapi.PresenceResult, error)
}

var (
	db            *sql.DB
	logger        logging.Logger
	lookupService *lookup.Service
	creditLedger  *ledger.Ledger
	limiter       *ratelimit.Limiter
	auditor       *audit.Recorder
	payments      *abacatepay.Client
	phoneChecker  PhoneChecker

	webhookSecret  string
	webhookHMACKey string

	// pause between sequential presence checks, avoids upstream throttling
	phoneCheckDelay = 1 * time.Second

	// general company search quota per user
	searchRateMax       = 30
	searchRateWindowMin = 60
)

// Config carries everything the handlers need
type Config struct {
	DB             *sql.DB
	Logger         logging.Logger
	Lookup         *lookup.Service
	Ledger         *ledger.Ledger
	Limiter        *ratelimit.Limiter
	Auditor        *audit.Recorder
	Payments       *abacatepay.Client
	PhoneChecker   PhoneChecker
	Metrics        *monitoring.MetricsCollector
	WebhookSecret  string
	WebhookHMACKey string
}

// Init initializes the handlers with their dependencies
func Init(cfg Config) {
	db = cfg.DB
	logger = cfg.Logger
	lookupService = cfg.Lookup
	creditLedger = cfg.Ledger
	limiter = cfg.Limiter
	auditor = cfg.Auditor
	payments = cfg.Payments
	phoneChecker = cfg.PhoneChecker
	webhookSecret = cfg.WebhookSecret
	webhookHMACKey = cfg.WebhookHMACKey
	if cfg.Metrics != nil {
		registerMetrics(cfg.Metrics)
	}
}
