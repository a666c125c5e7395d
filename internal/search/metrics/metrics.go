// Package metrics holds the Prometheus instruments for the search orchestrator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all orchestrator metrics.
type Metrics struct {
	SearchesTotal *prometheus.CounterVec
	TaskDuration  prometheus.Histogram
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
}

// New creates and registers the orchestrator metrics.
func New() *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "titlesearch_searches_total",
			Help: "Completed multi-jurisdiction searches by overall status",
		}, []string{"status"}),
		TaskDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "titlesearch_task_duration_seconds",
			Help:    "Duration of one jurisdiction's search task",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "titlesearch_result_cache_hits_total",
			Help: "Jurisdiction searches served from the result cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "titlesearch_result_cache_misses_total",
			Help: "Jurisdiction searches that had to hit a source system",
		}),
	}
}

// ObserveSearch records one finished aggregate search.
func (m *Metrics) ObserveSearch(status string) {
	m.SearchesTotal.WithLabelValues(status).Inc()
}

// ObserveTask records one finished jurisdiction task.
func (m *Metrics) ObserveTask(d time.Duration) {
	m.TaskDuration.Observe(d.Seconds())
}
