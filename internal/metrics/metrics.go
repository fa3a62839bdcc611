package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report stitching activity.
type Metrics struct {
	stitchDuration *prometheus.HistogramVec
	decodes        *prometheus.CounterVec
	cohortsActive  prometheus.Gauge
	rasterPixels   prometheus.Histogram
}

// MustNew registers the collectors with reg. A nil reg uses the default
// registerer. Registration errors panic.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		stitchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stitcher",
				Name:      "stitch_duration_seconds",
				Help:      "Time from cohort start to finished raster.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode", "status"},
		),
		decodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stitcher",
				Name:      "decodes_total",
				Help:      "Entries resolved by decode cohorts.",
			},
			[]string{"status"},
		),
		cohortsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "stitcher",
				Name:      "cohorts_active",
				Help:      "Decode cohorts currently in flight.",
			},
		),
		rasterPixels: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "stitcher",
				Name:      "raster_pixels",
				Help:      "Pixel count of finished rasters.",
				Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 10),
			},
		),
	}
	reg.MustRegister(m.stitchDuration, m.decodes, m.cohortsActive, m.rasterPixels)
	return m
}

// CohortStarted marks a cohort in flight. Nil-safe.
func (m *Metrics) CohortStarted() {
	if m == nil {
		return
	}
	m.cohortsActive.Inc()
}

// CohortFinished records a finished stitch.
func (m *Metrics) CohortFinished(mode, status string, elapsed time.Duration, pixels int) {
	if m == nil {
		return
	}
	m.cohortsActive.Dec()
	m.stitchDuration.WithLabelValues(mode, status).Observe(elapsed.Seconds())
	if status == "ok" {
		m.rasterPixels.Observe(float64(pixels))
	}
}

// Decoded counts one resolved entry.
func (m *Metrics) Decoded(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.decodes.WithLabelValues(status).Inc()
}
