package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Device authorization lifecycle
	DeviceCodesIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_auth_device_codes_issued_total",
		Help: "Total number of device authorization requests created",
	}, []string{"client_id"})
	DeviceDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_auth_device_decisions_total",
		Help: "Total number of approve/deny decisions recorded for device authorizations",
	}, []string{"decision"})
	DeviceDecisionConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_auth_device_decision_conflicts_total",
		Help: "Total number of approve/deny calls rejected because the request was already resolved",
	})
	// Exchange outcomes are keyed by the RFC 8628 result ("success" or the error code)
	DeviceTokenExchanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_auth_device_token_exchanges_total",
		Help: "Total number of device code token exchange attempts grouped by outcome",
	}, []string{"outcome"})
	DeviceCodesPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_auth_device_codes_purged_total",
		Help: "Total number of expired device authorization records deleted",
	})

	// Token issuance across grants
	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_auth_tokens_issued_total",
		Help: "Total number of access tokens minted",
	}, []string{"grant_type"})
	IdentityLookupFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_auth_identity_lookup_failures_total",
		Help: "Total number of bearer tokens that did not resolve to an identity",
	})
)

func init() {
	prometheus.MustRegister(DeviceCodesIssued)
	prometheus.MustRegister(DeviceDecisions)
	prometheus.MustRegister(DeviceDecisionConflicts)
	prometheus.MustRegister(DeviceTokenExchanges)
	prometheus.MustRegister(DeviceCodesPurged)
	prometheus.MustRegister(TokensIssued)
	prometheus.MustRegister(IdentityLookupFailures)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
