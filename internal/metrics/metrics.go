package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fx-monitor/internal/analytics"
)

// Recorder publishes the latest dashboard figures per pair.
type Recorder struct {
	registry      *prometheus.Registry
	latestRate    *prometheus.GaugeVec
	change1d      *prometheus.GaugeVec
	vol30         *prometheus.GaugeVec
	regime        *prometheus.GaugeVec
	observations  *prometheus.GaugeVec
	refreshErrors *prometheus.CounterVec
	refreshTime   *prometheus.HistogramVec
}

// New creates a recorder on its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		latestRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxmonitor_latest_rate",
				Help: "Latest reference rate for a pair",
			},
			[]string{"pair"},
		),
		change1d: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxmonitor_change_1d_pct",
				Help: "One-day change of the reference rate in percent",
			},
			[]string{"pair"},
		),
		vol30: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxmonitor_vol30_log_return_pct",
				Help: "Sample standard deviation of the last 30 daily log returns in percent",
			},
			[]string{"pair"},
		),
		regime: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxmonitor_volatility_regime",
				Help: "Current volatility regime: 0 low, 1 normal, 2 high",
			},
			[]string{"pair"},
		),
		observations: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxmonitor_observations",
				Help: "Observations in the selected range",
			},
			[]string{"pair"},
		),
		refreshErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxmonitor_refresh_errors_total",
				Help: "Refresh failures by stage",
			},
			[]string{"pair", "stage"},
		),
		refreshTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxmonitor_refresh_duration_seconds",
				Help:    "Duration of a pair refresh in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pair"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordDashboard sets the gauges from a computed dashboard. Absent KPIs
// leave the previous value untouched.
func (r *Recorder) RecordDashboard(pair string, d analytics.Dashboard) {
	if d.Kpis.Latest != nil {
		r.latestRate.WithLabelValues(pair).Set(*d.Kpis.Latest)
	}
	if d.Kpis.Change1d != nil {
		r.change1d.WithLabelValues(pair).Set(*d.Kpis.Change1d)
	}
	if d.Kpis.Vol30LogReturnPct != nil {
		r.vol30.WithLabelValues(pair).Set(*d.Kpis.Vol30LogReturnPct)
	}
	r.regime.WithLabelValues(pair).Set(float64(d.Snapshot.VolatilityRegime.Level()))
	r.observations.WithLabelValues(pair).Set(float64(d.Snapshot.Observations))
}

// RecordError counts a refresh failure.
func (r *Recorder) RecordError(pair, stage string) {
	r.refreshErrors.WithLabelValues(pair, stage).Inc()
}

// RecordDuration observes a refresh duration.
func (r *Recorder) RecordDuration(pair string, d time.Duration) {
	r.refreshTime.WithLabelValues(pair).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve runs a metrics listener until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr, path string, logger zerolog.Logger) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Str("path", path).Msg("metrics listener started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
