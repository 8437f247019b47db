package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval Prometheus metrics.
var (
	IndexCards = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "index_cards",
		Help:      "Number of cards in the published index",
	})

	IndexBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "index_build_duration_seconds",
		Help:      "Card index build duration in seconds",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	IndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Card index builds by outcome",
		},
		[]string{"status"}, // "success" / "error"
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Questions answered by outcome",
		},
		[]string{"outcome"}, // "hit" / "nohit" / "error"
	)

	TopScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_top_score",
		Help:      "Similarity score of the best revealed card",
		Buckets:   []float64{0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
	})
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexCards)
	prometheus.MustRegister(IndexBuildDuration)
	prometheus.MustRegister(IndexBuildsTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(TopScore)
	retrievalMetricsRegistered = true
}

// ObserveIndexBuild records one index build.
func ObserveIndexBuild(cards int, duration time.Duration, err error) {
	if err != nil {
		IndexBuildsTotal.WithLabelValues("error").Inc()
		return
	}
	IndexBuildsTotal.WithLabelValues("success").Inc()
	IndexBuildDuration.Observe(duration.Seconds())
	IndexCards.Set(float64(cards))
}

// ObserveQuery records the outcome of one question.
// scores holds the revealed card scores, best first.
func ObserveQuery(scores []float64, err error) {
	switch {
	case err != nil:
		QueriesTotal.WithLabelValues("error").Inc()
	case len(scores) == 0:
		QueriesTotal.WithLabelValues("nohit").Inc()
	default:
		QueriesTotal.WithLabelValues("hit").Inc()
		TopScore.Observe(scores[0])
	}
}
