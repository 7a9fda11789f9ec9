package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for trust analyses.
type Metrics struct {
	AnalysesTotal     *prometheus.CounterVec
	FallbacksTotal    prometheus.Counter
	AnalyzeDurationMs prometheus.Histogram
	FactorScores      *prometheus.HistogramVec
	TrustScores       prometheus.Histogram
}

// New registers and returns engine metrics collectors.
func New() *Metrics {
	return &Metrics{
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustd_analyses_total",
			Help: "Total number of completed trust analyses",
		}, []string{"action", "risk_level", "decision"}),
		FallbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustd_analysis_fallbacks_total",
			Help: "Total number of analyses that returned the fail-safe result",
		}),
		AnalyzeDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustd_analyze_duration_ms",
			Help:    "Duration of trust analyses in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		FactorScores: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustd_factor_score",
			Help:    "Distribution of per-factor sub-scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"factor"}),
		TrustScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustd_trust_score",
			Help:    "Distribution of aggregate trust scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}
}

func (m *Metrics) ObserveAnalysis(action, riskLevel, decision string, score float64, duration time.Duration) {
	m.AnalysesTotal.WithLabelValues(action, riskLevel, decision).Inc()
	m.TrustScores.Observe(score)
	m.AnalyzeDurationMs.Observe(float64(duration.Milliseconds()))
}

func (m *Metrics) IncrementFallbacks() {
	m.FallbacksTotal.Inc()
}

func (m *Metrics) ObserveFactorScore(factor string, score float64) {
	m.FactorScores.WithLabelValues(factor).Observe(score)
}
