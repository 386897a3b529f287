package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersSubmittedTotal counts checkout submissions by outcome.
	OrdersSubmittedTotal *prometheus.CounterVec
	// ReturnsProcessedTotal counts processed returns by resulting status.
	ReturnsProcessedTotal *prometheus.CounterVec
	// DiscountValidationsTotal counts discount code validations by result.
	DiscountValidationsTotal *prometheus.CounterVec
	// OrderActivationsTotal counts orders flipped to active by the worker sweep.
	OrderActivationsTotal prometheus.Counter
	// CartsExpiredTotal counts carts removed by the expiry sweep.
	CartsExpiredTotal prometheus.Counter
	// SettlementBalance records the outstanding balance computed at return time.
	SettlementBalance *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Count of checkout submissions by outcome.",
		}, []string{"result"})
		ReturnsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "returns_processed_total",
			Help:      "Count of processed returns by resulting order status.",
		}, []string{"status"})
		DiscountValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_validations_total",
			Help:      "Count of discount code validations by result.",
		}, []string{"result"})
		OrderActivationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_activations_total",
			Help:      "Orders transitioned to active by the scheduled sweep.",
		})
		CartsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carts_expired_total",
			Help:      "Carts removed by the expiry sweep.",
		})
		SettlementBalance = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_balance",
			Help:      "Outstanding balance computed when a return is processed.",
			Buckets:   []float64{0, 10000, 50000, 100000, 250000, 500000, 1000000, 5000000},
		}, []string{"status"})

		mustRegisterCollector(reg, OrdersSubmittedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersSubmittedTotal = v
			}
		})
		mustRegisterCollector(reg, ReturnsProcessedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReturnsProcessedTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountValidationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountValidationsTotal = v
			}
		})
		mustRegisterCollector(reg, OrderActivationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrderActivationsTotal = v
			}
		})
		mustRegisterCollector(reg, CartsExpiredTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartsExpiredTotal = v
			}
		})
		mustRegisterCollector(reg, SettlementBalance, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				SettlementBalance = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
