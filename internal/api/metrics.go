package api

import "github.com/prometheus/client_golang/prometheus"

var (
	mixRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mixer_runs_total", Help: "Mix runs by outcome"},
		[]string{"status"},
	)
	mixDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mixer_run_duration_seconds",
			Help:    "Time spent inside the mixing engine",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	tracksEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "mixer_tracks_emitted_total", Help: "Tracks emitted across all runs"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(mixRuns, mixDuration, tracksEmitted)
}
