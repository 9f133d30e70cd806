// Package metrics 定义定位轮询的 Prometheus 指标
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// 定位轮询指标
var (
	AttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zoeylocate",
			Name:      "poll_attempts_total",
			Help:      "Total number of snapshot/evaluate cycles",
		},
		[]string{"locator"},
	)

	ReusedEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zoeylocate",
			Name:      "reused_evaluations_total",
			Help:      "Cycles whose snapshot was unchanged and reused the previous evaluation",
		},
		[]string{"locator"},
	)

	TransientErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zoeylocate",
			Name:      "transient_errors_total",
			Help:      "Transient provider errors swallowed by the poll loop",
		},
		[]string{"locator"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zoeylocate",
			Name:      "searches_total",
			Help:      "Completed locate calls by mode and outcome",
		},
		[]string{"locator", "mode", "outcome"}, // outcome: found / not_found / error
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zoeylocate",
			Name:      "search_duration_seconds",
			Help:      "Wall time of locate calls",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"locator", "mode"},
	)
)

var registerOnce sync.Once

// Collectors 返回全部指标
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		AttemptsTotal,
		ReusedEvaluationsTotal,
		TransientErrorsTotal,
		SearchesTotal,
		SearchDuration,
	}
}

// Register 将指标注册到默认 registry（重复调用安全）
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}
