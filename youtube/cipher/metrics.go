package cipher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a Cache.
type Metrics struct {
	hits           prometheus.Counter
	misses         prometheus.Counter
	failures       *prometheus.CounterVec
	extractionTime prometheus.Histogram
}

// NewMetrics creates the cache collectors and registers them on reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "ytdl_cipher_cache_hits_total", Help: "Number of token sequence cache hits"},
		),
		misses: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "ytdl_cipher_cache_misses_total", Help: "Number of token sequence cache misses"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "ytdl_cipher_extraction_failures_total", Help: "Number of failed script fetches or extractions"},
			[]string{"code"},
		),
		extractionTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ytdl_cipher_extraction_seconds",
				Help:    "Time spent extracting a token sequence from a player script",
				Buckets: prometheus.ExponentialBucketsRange(float64(time.Microsecond)/float64(time.Second), 5, 20),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.failures, m.extractionTime)
	}
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) failure(err error) {
	if m == nil {
		return
	}
	code := "unknown"
	if e, ok := asError(err); ok {
		code = e.Code
	}
	m.failures.WithLabelValues(code).Inc()
}

func (m *Metrics) observe(d time.Duration) {
	if m != nil {
		m.extractionTime.Observe(d.Seconds())
	}
}
