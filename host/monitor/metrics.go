package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// MetricsSink exposes the sample stream as Prometheus metrics
type MetricsSink struct {
	registry *prometheus.Registry
	samples  prometheus.Counter
	volts    prometheus.Gauge
	levels   prometheus.Histogram
}

// NewMetricsSink creates a sink with its own registry
func NewMetricsSink() *MetricsSink {
	m := &MetricsSink{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serialsh",
			Name:      "samples_total",
			Help:      "Samples received from the board",
		}),
		volts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "serialsh",
			Name:      "sample_volts",
			Help:      "Most recent sample in volts",
		}),
		levels: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "serialsh",
			Name:      "sample_volts_distribution",
			Help:      "Distribution of sample values in volts",
			Buckets:   prometheus.LinearBuckets(0, 0.33, 11),
		}),
	}
	m.registry.MustRegister(m.samples, m.volts, m.levels)
	return m
}

// Publish implements Sink
func (m *MetricsSink) Publish(_ context.Context, s Sample) error {
	v := s.Volts()
	m.samples.Inc()
	m.volts.Set(v)
	m.levels.Observe(v)
	return nil
}

// Close implements Sink
func (m *MetricsSink) Close() error { return nil }

// Handler returns the /metrics handler for this sink's registry
func (m *MetricsSink) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve serves /metrics on addr until ctx is done
func (m *MetricsSink) Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
