// Package metrics exposes Prometheus collectors for site checks and runs.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aleister1102/robotswatch/internal/httpclient"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	checkOutcomesTotal   *prometheus.CounterVec
	checkDurationSeconds prometheus.Histogram
	fetchAttemptsTotal   *prometheus.CounterVec
	runsTotal            *prometheus.CounterVec
	runDurationSeconds   prometheus.Histogram
	lastRunTimestamp     prometheus.Gauge
	digestErrors         prometheus.Gauge

	once sync.Once
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		checkOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robotswatch_check_outcomes_total",
				Help: "Site checks by outcome and, for errors, error class.",
			},
			[]string{"outcome", "error_class"},
		)

		checkDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "robotswatch_check_duration_seconds",
				Help:    "Time spent checking one site, fetch retries included.",
				Buckets: []float64{0.1, 0.5, 1, 5, 30, 120, 600},
			},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robotswatch_fetch_attempts_total",
				Help: "HTTP attempts made while fetching robots.txt, labeled success, timeout or error.",
			},
			[]string{"result"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robotswatch_runs_total",
				Help: "Completed runs, labeled by trigger and whether they were interrupted.",
			},
			[]string{"trigger", "interrupted"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "robotswatch_run_duration_seconds",
				Help:    "Wall time of a full run over the site list.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		)

		lastRunTimestamp = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "robotswatch_last_run_timestamp_seconds",
				Help: "Unix time the last run finished.",
			},
		)

		digestErrors = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "robotswatch_last_run_digest_errors",
				Help: "Number of errors in the last run's administrator digest.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCheck records one site check. errorClass is empty unless the outcome is an error.
func ObserveCheck(outcome, errorClass string, duration time.Duration) {
	Init()
	checkOutcomesTotal.WithLabelValues(outcome, errorClass).Inc()
	checkDurationSeconds.Observe(duration.Seconds())
}

// ObserveFetchAttempt records one HTTP attempt. Its signature matches httpclient.AttemptObserver.
func ObserveFetchAttempt(_ int, err error) {
	Init()
	result := "success"
	switch {
	case err == nil:
	case httpclient.IsTimeout(err):
		result = "timeout"
	default:
		result = "error"
	}
	fetchAttemptsTotal.WithLabelValues(result).Inc()
}

// ObserveRun records a finished run.
func ObserveRun(trigger string, interrupted bool, duration time.Duration, digestSize int, finishedAt time.Time) {
	Init()
	runsTotal.WithLabelValues(trigger, strconv.FormatBool(interrupted)).Inc()
	runDurationSeconds.Observe(duration.Seconds())
	lastRunTimestamp.Set(float64(finishedAt.Unix()))
	digestErrors.Set(float64(digestSize))
}
