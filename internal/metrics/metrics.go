package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PricePointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "price_points_total", Help: "Mid-price samples recorded per symbol"},
		[]string{"symbol"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders accepted by the exchange"},
		[]string{"symbol", "side"},
	)
	OrderRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "order_rejections_total", Help: "Decision cycles ending without a submission"},
		[]string{"symbol", "reason"},
	)
	FillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fills_total", Help: "Fills applied to the position ledger"},
		[]string{"symbol", "side"},
	)
	DuplicateFillsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "duplicate_fills_total", Help: "Fills dropped by ledger deduplication"},
	)
	BudgetBlockedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "budget_blocked_total", Help: "Requests that had to wait for budget capacity"},
	)
	ReconcileMismatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "reconcile_mismatches_total", Help: "Position discrepancies corrected from exchange holdings"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(
		PricePointsTotal,
		OrdersTotal,
		OrderRejectionsTotal,
		FillsTotal,
		DuplicateFillsTotal,
		BudgetBlockedTotal,
		ReconcileMismatchesTotal,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
