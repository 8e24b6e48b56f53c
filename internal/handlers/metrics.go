package handlers

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andreguimel/salesloop-kit-sub001/pkg/monitoring"
)

var (
	lookupsTotal       *prometheus.CounterVec
	creditEventsTotal  *prometheus.CounterVec
	webhookEventsTotal *prometheus.CounterVec
)

// registerMetrics wires the domain counters into the service collector.
// Tests run the handlers without a collector, so the count helpers
// tolerate the counters being nil.
func registerMetrics(mc *monitoring.MetricsCollector) {
	lookupsTotal = mc.NewCounter("lookups_total",
		"Company lookups by kind and outcome", []string{"kind", "outcome"})
	creditEventsTotal = mc.NewCounter("credit_events_total",
		"Ledger credit events by type and result", []string{"type", "result"})
	webhookEventsTotal = mc.NewCounter("webhook_events_total",
		"Payment webhook deliveries by event and outcome", []string{"event", "outcome"})
}

func countLookup(kind, outcome string) {
	if lookupsTotal != nil {
		lookupsTotal.WithLabelValues(kind, outcome).Inc()
	}
}

func countCredit(txType, result string) {
	if creditEventsTotal != nil {
		creditEventsTotal.WithLabelValues(txType, result).Inc()
	}
}

func countWebhook(event, outcome string) {
	if webhookEventsTotal != nil {
		webhookEventsTotal.WithLabelValues(event, outcome).Inc()
	}
}
