package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RewardsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_granted_total",
			Help: "Reward grants committed, by activity type",
		},
		[]string{"activity"},
	)
	RewardsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewards_skipped_total",
			Help: "Reward attempts withheld by the daily cap, by activity type",
		},
		[]string{"activity"},
	)
	PointsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_points_total",
			Help: "Points credited to wallets, by activity type",
		},
		[]string{"activity"},
	)
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_submissions_total",
			Help: "Image submissions by outcome (published, preview, failed)",
		},
		[]string{"outcome"},
	)
	OracleVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_verdicts_total",
			Help: "Classification results by kind (ok, degraded)",
		},
		[]string{"kind"},
	)
	OracleLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Latency of classification calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(RewardsGranted)
	prometheus.MustRegister(RewardsSkipped)
	prometheus.MustRegister(PointsGranted)
	prometheus.MustRegister(Submissions)
	prometheus.MustRegister(OracleVerdicts)
	prometheus.MustRegister(OracleLatency)
}
