package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	schedulerRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kudi",
		Name:      "scheduler_runs_total",
		Help:      "Total number of recurring scheduler passes",
	})
	materializedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kudi",
		Name:      "scheduler_materialized_total",
		Help:      "Total number of ledger entries materialized from recurring rules",
	})
	ruleIssuesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kudi",
		Name:      "scheduler_rule_issues_total",
		Help:      "Total number of rules skipped due to validation or storage errors",
	})
	runDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kudi",
		Name:      "scheduler_run_duration_seconds",
		Help:      "Duration of recurring scheduler passes",
		Buckets:   prometheus.DefBuckets,
	})
)
