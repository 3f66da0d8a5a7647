package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// MarketMetrics holds every Prometheus collector the marketplace exports.
// A nil *MarketMetrics is valid and records nothing.
type MarketMetrics struct {
	registry prometheus.Gatherer

	// Заказы
	OrdersCreatedTotal   *prometheus.CounterVec
	OrdersCompletedTotal *prometheus.CounterVec
	OrdersCancelledTotal *prometheus.CounterVec
	OrderGMVTotal        *prometheus.CounterVec

	// Комиссии
	FeesCollectedTotal *prometheus.CounterVec

	// Выплаты
	PayoutsTotal       *prometheus.CounterVec
	PayoutAmountTotal  *prometheus.CounterVec
	DisputesTotal      *prometheus.CounterVec
	FraudFlagsTotal    *prometheus.CounterVec
	RiskTierAssigned   *prometheus.CounterVec
	ScoringRunDuration prometheus.Histogram

	// Агентский интерфейс
	MCPCallsTotal   *prometheus.CounterVec
	MCPCallDuration *prometheus.HistogramVec
}

// NewMarketMetrics registers collectors on reg; pass prometheus.NewRegistry() in tests.
func NewMarketMetrics(reg *prometheus.Registry) *MarketMetrics {
	factory := promauto.With(reg)
	return &MarketMetrics{
		registry: reg,

		OrdersCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_orders_created_total",
				Help: "Orders created, by sales channel",
			},
			[]string{"channel", "currency"},
		),
		OrdersCompletedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_orders_completed_total",
				Help: "Orders that reached completed",
			},
			[]string{"channel", "currency"},
		),
		OrdersCancelledTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_orders_cancelled_total",
				Help: "Cancelled orders, by who cancelled",
			},
			[]string{"cancelled_by"},
		),
		OrderGMVTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_order_gmv_total",
				Help: "Item value of completed orders",
			},
			[]string{"currency"},
		),
		FeesCollectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_fees_collected_total",
				Help: "Platform fees collected, by kind",
			},
			[]string{"kind", "currency"},
		),
		PayoutsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_payouts_total",
				Help: "Payout attempts by method and result",
			},
			[]string{"method", "status"},
		),
		PayoutAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_payout_amount_total",
				Help: "Net amount transferred to sellers",
			},
			[]string{"currency"},
		),
		DisputesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_disputes_total",
				Help: "Dispute lifecycle events",
			},
			[]string{"event", "reason"},
		),
		FraudFlagsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_fraud_flags_total",
				Help: "Fraud flags raised",
			},
			[]string{"source", "severity"},
		),
		RiskTierAssigned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_risk_tier_assigned_total",
				Help: "Risk tier assignments from scoring runs",
			},
			[]string{"tier"},
		),
		ScoringRunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "market_scoring_run_duration_seconds",
				Help:    "Duration of full seller rescoring runs",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		MCPCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_mcp_calls_total",
				Help: "Agent tool calls by method and result",
			},
			[]string{"method", "result"},
		),
		MCPCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "market_mcp_call_duration_seconds",
				Help:    "Agent tool call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *MarketMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MarketMetrics) RecordOrderCreated(channel, currency string) {
	if m == nil {
		return
	}
	m.OrdersCreatedTotal.WithLabelValues(channel, currency).Inc()
}

// RecordOrderCompleted counts the order and its GMV and fee revenue.
func (m *MarketMetrics) RecordOrderCompleted(channel, currency string, itemPrice, commission, protection, shippingMargin decimal.Decimal) {
	if m == nil {
		return
	}
	m.OrdersCompletedTotal.WithLabelValues(channel, currency).Inc()
	m.OrderGMVTotal.WithLabelValues(currency).Add(itemPrice.InexactFloat64())
	m.FeesCollectedTotal.WithLabelValues("seller_commission", currency).Add(commission.InexactFloat64())
	m.FeesCollectedTotal.WithLabelValues("buyer_protection", currency).Add(protection.InexactFloat64())
	m.FeesCollectedTotal.WithLabelValues("shipping_margin", currency).Add(shippingMargin.InexactFloat64())
}

func (m *MarketMetrics) RecordOrderCancelled(cancelledBy string) {
	if m == nil {
		return
	}
	m.OrdersCancelledTotal.WithLabelValues(cancelledBy).Inc()
}

func (m *MarketMetrics) RecordPayout(method, status, currency string, net, fee decimal.Decimal) {
	if m == nil {
		return
	}
	m.PayoutsTotal.WithLabelValues(method, status).Inc()
	if status == "completed" {
		m.PayoutAmountTotal.WithLabelValues(currency).Add(net.InexactFloat64())
		if fee.IsPositive() {
			m.FeesCollectedTotal.WithLabelValues("instant_payout", currency).Add(fee.InexactFloat64())
		}
	}
}

func (m *MarketMetrics) RecordDispute(event, reason string) {
	if m == nil {
		return
	}
	m.DisputesTotal.WithLabelValues(event, reason).Inc()
}

func (m *MarketMetrics) RecordFraudFlag(source, severity string) {
	if m == nil {
		return
	}
	m.FraudFlagsTotal.WithLabelValues(source, severity).Inc()
}

func (m *MarketMetrics) RecordRiskTier(tier string) {
	if m == nil {
		return
	}
	m.RiskTierAssigned.WithLabelValues(tier).Inc()
}

func (m *MarketMetrics) RecordScoringRun(durationSeconds float64) {
	if m == nil {
		return
	}
	m.ScoringRunDuration.Observe(durationSeconds)
}

func (m *MarketMetrics) RecordMCPCall(method, result string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.MCPCallsTotal.WithLabelValues(method, result).Inc()
	m.MCPCallDuration.WithLabelValues(method).Observe(durationSeconds)
}
