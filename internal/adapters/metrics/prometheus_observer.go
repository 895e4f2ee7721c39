package metrics

import (
	"NoticeBoard/internal/core/domain"
	"NoticeBoard/internal/core/ports"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "noticeboard"

// PrometheusObserver counts publications, deliveries and handler failures per event.
type PrometheusObserver struct {
	publications *prometheus.CounterVec
	deliveries   *prometheus.CounterVec
	failures     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

var _ ports.PublicationObserver = (*PrometheusObserver)(nil)

// NewPrometheusObserver creates the collectors and registers them on reg.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		publications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publications_total",
			Help:      "Number of Publish calls per event.",
		}, []string{"event"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Handlers that completed per event.",
		}, []string{"event"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_failures_total",
			Help:      "Handlers that panicked per event.",
		}, []string{"event"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Time spent delivering one publication.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"event"}),
	}

	for _, c := range []prometheus.Collector{o.publications, o.deliveries, o.failures, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ObservePublication records pub.
func (o *PrometheusObserver) ObservePublication(pub domain.Publication) {
	o.publications.WithLabelValues(pub.Event).Inc()
	o.deliveries.WithLabelValues(pub.Event).Add(float64(pub.Delivered))
	o.failures.WithLabelValues(pub.Event).Add(float64(len(pub.Failures)))
	o.duration.WithLabelValues(pub.Event).Observe(pub.Duration.Seconds())
}

// Serve exposes gatherer on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, baseLogger *zerolog.Logger) error {
	log := baseLogger.With().Str("component", "metrics_server").Logger()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting metrics HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down metrics HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Metrics HTTP server failed")
		}
		return err
	}
}
