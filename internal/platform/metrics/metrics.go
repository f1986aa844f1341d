package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PhaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurocal_phase_transitions_total",
		Help: "Phases entered by kind",
	}, []string{"kind"})

	Sequences = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurocal_sequences_total",
		Help: "Calibration sequences by outcome",
	}, []string{"outcome"})

	Polls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurocal_metric_polls_total",
		Help: "Metric polls by result",
	}, []string{"result"})

	DisplayedMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "neurocal_displayed_metric",
		Help: "Last interpolated metric value rendered",
	}, []string{"metric"})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurocal_submissions_total",
		Help: "Report submissions to the backend by endpoint and result",
	}, []string{"endpoint", "result"})

	ServerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurocal_backend_requests_total",
		Help: "Reference backend requests by route and status class",
	}, []string{"route", "status"})

	CollectionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "neurocal_backend_collection_active",
		Help: "1 while the reference backend has an open collection window",
	})
)
