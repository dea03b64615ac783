package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "carbon_ledger"

var (
	// HTTPRequests counts API requests by route pattern and status code
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "API requests by method, route and status code",
	}, []string{"method", "route", "code"})

	// HTTPDuration observes API latency by route pattern
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "API latency by method and route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// CalculatorCalls counts requests sent to the AI calculator
	CalculatorCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculator_calls_total",
		Help:      "Calculator requests by standard and outcome",
	}, []string{"standard", "outcome"})

	// SummaryRecalculations counts summary upserts by kind of summary
	SummaryRecalculations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summary_recalculations_total",
		Help:      "Project summary recalculations by kind",
	}, []string{"kind"})

	// Imports counts bulk imports by outcome
	Imports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_total",
		Help:      "Bulk activity imports by outcome",
	}, []string{"outcome"})
)

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, CalculatorCalls, SummaryRecalculations, Imports)
}

// Outcome returns the outcome label of err
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
