package metrics

import "github.com/prometheus/client_golang/prometheus"

// DecisionMetrics exposes counters/histograms for the decision flows.
type DecisionMetrics struct {
	intentsTotal         *prometheus.CounterVec
	escalationsTotal     *prometheus.CounterVec
	fallbacksTotal       *prometheus.CounterVec
	categorizationsTotal *prometheus.CounterVec
	chunksTotal          *prometheus.CounterVec
	promptEfficiency     prometheus.Histogram
	flowLatency          *prometheus.HistogramVec
}

func NewDecisionMetrics(reg prometheus.Registerer) *DecisionMetrics {
	m := &DecisionMetrics{
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatcore",
			Subsystem: "decision",
			Name:      "intents_total",
			Help:      "Detected intents by intent and category",
		}, []string{"intent", "category"}),
		escalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatcore",
			Subsystem: "decision",
			Name:      "escalations_total",
			Help:      "Escalation verdicts by firing trigger type",
		}, []string{"trigger"}),
		fallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatcore",
			Subsystem: "decision",
			Name:      "fallbacks_total",
			Help:      "Fallback responses served by context and failure cause",
		}, []string{"context", "cause", "escalated"}),
		categorizationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatcore",
			Subsystem: "knowledge",
			Name:      "categorizations_total",
			Help:      "Knowledge documents categorized by category and source",
		}, []string{"category", "source"}),
		chunksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatcore",
			Subsystem: "knowledge",
			Name:      "chunks_total",
			Help:      "Knowledge chunks produced by category",
		}, []string{"category"}),
		promptEfficiency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatcore",
			Subsystem: "prompt",
			Name:      "efficiency",
			Help:      "Overall prompt token efficiency",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.5, 0.7, 0.8, 0.9, 1.0},
		}),
		flowLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatcore",
			Subsystem: "decision",
			Name:      "flow_latency_seconds",
			Help:      "Latency of decision flows",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.intentsTotal, m.escalationsTotal, m.fallbacksTotal,
		m.categorizationsTotal, m.chunksTotal, m.promptEfficiency, m.flowLatency)
	return m
}

func (m *DecisionMetrics) ObserveIntent(intent, category string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent, category).Inc()
}

// ObserveEscalation records a positive escalation verdict.
func (m *DecisionMetrics) ObserveEscalation(trigger string) {
	if m == nil {
		return
	}
	m.escalationsTotal.WithLabelValues(trigger).Inc()
}

func (m *DecisionMetrics) ObserveFallback(context, cause string, escalated bool) {
	if m == nil {
		return
	}
	label := "false"
	if escalated {
		label = "true"
	}
	m.fallbacksTotal.WithLabelValues(context, cause, label).Inc()
}

func (m *DecisionMetrics) ObserveCategorization(category, source string) {
	if m == nil {
		return
	}
	m.categorizationsTotal.WithLabelValues(category, source).Inc()
}

func (m *DecisionMetrics) ObserveChunks(category string, count int) {
	if m == nil {
		return
	}
	m.chunksTotal.WithLabelValues(category).Add(float64(count))
}

func (m *DecisionMetrics) ObservePromptEfficiency(efficiency float64) {
	if m == nil {
		return
	}
	m.promptEfficiency.Observe(efficiency)
}

func (m *DecisionMetrics) ObserveFlowLatency(flow string, seconds float64) {
	if m == nil {
		return
	}
	m.flowLatency.WithLabelValues(flow).Observe(seconds)
}
