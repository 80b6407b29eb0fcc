package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/optsniper/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry agrupa las métricas del sniper sobre un registry propio
// (no el global), así cada test puede crear el suyo sin colisiones.
//
// Todos los métodos aceptan receptor nil: un *Registry nil es un no-op.
type Registry struct {
	reg *prometheus.Registry

	TickersScanned   prometheus.Counter
	TickersSkipped   *prometheus.CounterVec
	ContractsScored  prometheus.Counter
	ContractsSkipped *prometheus.CounterVec
	Allocations      prometheus.Counter
	CapitalDeployed  prometheus.Gauge
	BacktestTrades   *prometheus.CounterVec
	ScanDuration     prometheus.Histogram
	CacheLookups     *prometheus.CounterVec
}

// NewRegistry crea y registra todas las métricas.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		TickersScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optsniper_tickers_scanned_total",
			Help: "Tickers processed by the scan pipeline",
		}),
		TickersSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optsniper_tickers_skipped_total",
			Help: "Tickers skipped, by reason",
		}, []string{"reason"}),
		ContractsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optsniper_contracts_scored_total",
			Help: "Option contracts that produced a scored record",
		}),
		ContractsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optsniper_contracts_skipped_total",
			Help: "Option contracts skipped, by reason",
		}, []string{"reason"}),
		Allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optsniper_allocations_total",
			Help: "Allocation entries emitted",
		}),
		CapitalDeployed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optsniper_capital_deployed",
			Help: "Capital deployed by the last allocation plan",
		}),
		BacktestTrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optsniper_backtest_trades_total",
			Help: "Backtest trades, by result",
		}, []string{"result"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "optsniper_scan_duration_seconds",
			Help:    "Wall time of a full scan pass",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optsniper_history_cache_lookups_total",
			Help: "Price history cache lookups, by result",
		}, []string{"result"}),
	}

	r.reg.MustRegister(
		r.TickersScanned,
		r.TickersSkipped,
		r.ContractsScored,
		r.ContractsSkipped,
		r.Allocations,
		r.CapitalDeployed,
		r.BacktestTrades,
		r.ScanDuration,
		r.CacheLookups,
		collectors.NewGoCollector(),
	)
	return r
}

// RecordTickers cuenta los outcomes de una pasada.
func (r *Registry) RecordTickers(outcomes []domain.TickerOutcome) {
	if r == nil {
		return
	}
	r.TickersScanned.Add(float64(len(outcomes)))
	for reason, n := range domain.CountSkips(outcomes) {
		r.TickersSkipped.WithLabelValues(string(reason)).Add(float64(n))
	}
}

// RecordContract cuenta un contrato puntuado (reason vacío) o saltado.
func (r *Registry) RecordContract(reason domain.SkipReason) {
	if r == nil {
		return
	}
	if reason == domain.SkipNone {
		r.ContractsScored.Inc()
		return
	}
	r.ContractsSkipped.WithLabelValues(string(reason)).Inc()
}

// RecordPlan registra el plan de asignación de la última pasada.
func (r *Registry) RecordPlan(plan domain.AllocationPlan) {
	if r == nil {
		return
	}
	r.Allocations.Add(float64(len(plan.Entries)))
	r.CapitalDeployed.Set(plan.Deployed().InexactFloat64())
}

// RecordBacktest registra wins y losses de un backtest.
func (r *Registry) RecordBacktest(stats domain.BacktestStats) {
	if r == nil {
		return
	}
	r.BacktestTrades.WithLabelValues("win").Add(float64(stats.Wins))
	r.BacktestTrades.WithLabelValues("loss").Add(float64(stats.Losses))
}

// ObserveScan registra la duración de una pasada.
func (r *Registry) ObserveScan(d time.Duration) {
	if r == nil {
		return
	}
	r.ScanDuration.Observe(d.Seconds())
}

// RecordCacheLookup cuenta un hit o miss del cache de historial.
func (r *Registry) RecordCacheLookup(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	r.CacheLookups.WithLabelValues("miss").Inc()
}

// Handler expone las métricas en formato Prometheus.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve expone /metrics en addr hasta que ctx se cancele.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
