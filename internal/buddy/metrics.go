package buddy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoverRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buddy_discover_requests_total",
			Help: "Total number of buddy discovery requests",
		},
	)

	likesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buddy_likes_total",
			Help: "Total number of likes sent",
		},
		[]string{"result"},
	)

	blocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buddy_blocks_total",
			Help: "Total number of users blocked",
		},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "buddy_compatibility_scores",
			Help:    "Distribution of compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)

func RecordDiscoverRequest() {
	discoverRequestsTotal.Inc()
}

func RecordLike(mutual bool) {
	result := "pending"
	if mutual {
		result = "mutual"
	}
	likesTotal.WithLabelValues(result).Inc()
}

func RecordBlock() {
	blocksTotal.Inc()
}

func RecordCompatibilityScore(score float64) {
	compatibilityScores.Observe(score)
}
