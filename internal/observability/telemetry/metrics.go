package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ==================== Ingestion Metrics ====================

	// TelemetrySamplesTotal tracks ingested telemetry samples by outcome.
	TelemetrySamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeplan_telemetry_samples_total",
		Help: "Total telemetry samples ingested",
	}, []string{"outcome"}) // accepted, dropped

	// ReplansRequestedTotal tracks replans requested by trigger.
	ReplansRequestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeplan_replans_requested_total",
		Help: "Total replans requested",
	}, []string{"trigger"}) // connection, charge_curve, trip, price_feed, account

	// ReplanDuration tracks the wall time of a full refreshVehicleChargePlan call.
	ReplanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chargeplan_replan_duration_seconds",
		Help:    "Duration of a vehicle replan",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// PlanSegmentsEmitted tracks reconciled plan segments by charge type.
	PlanSegmentsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeplan_plan_segments_emitted_total",
		Help: "Total plan segments emitted by the reconciler",
	}, []string{"charge_type"})

	// ==================== Statistics Engine Metrics ====================

	// StatsSimulationDuration tracks the cost of createNewStats's threshold sweep.
	StatsSimulationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chargeplan_stats_simulation_duration_seconds",
		Help:    "Duration of the threshold simulation in createNewStats",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	// StatsCacheAccess tracks CurrentStats cache hits and misses.
	StatsCacheAccess = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeplan_stats_cache_total",
		Help: "CurrentStats cache accesses",
	}, []string{"result"}) // hit, miss

	// ==================== Infrastructure Metrics ====================

	// GatewayLatency tracks Persistence Gateway call latency.
	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chargeplan_gateway_latency_seconds",
		Help:    "Persistence gateway call latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation"})

	// GatewayErrorsTotal tracks Persistence Gateway errors by kind.
	GatewayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeplan_gateway_errors_total",
		Help: "Persistence gateway errors by kind",
	}, []string{"operation", "kind"})

	// ActionsPublishedTotal tracks Action-channel messages published for
	// provider adapters to consume.
	ActionsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chargeplan_actions_published_total",
		Help: "Total Action messages published to the action channel",
	}, []string{"action"})
)

// RecordTelemetrySample records an ingestion outcome.
func RecordTelemetrySample(accepted bool) {
	if accepted {
		TelemetrySamplesTotal.WithLabelValues("accepted").Inc()
		return
	}
	TelemetrySamplesTotal.WithLabelValues("dropped").Inc()
}

// RecordReplanRequested records why a replan was scheduled.
func RecordReplanRequested(trigger string) {
	ReplansRequestedTotal.WithLabelValues(trigger).Inc()
}

// RecordPlanSegments records the charge types present in a reconciled plan.
func RecordPlanSegments(chargeTypes []string) {
	for _, t := range chargeTypes {
		PlanSegmentsEmitted.WithLabelValues(t).Inc()
	}
}

// RecordStatsCacheAccess records a CurrentStats cache outcome.
func RecordStatsCacheAccess(result string) {
	StatsCacheAccess.WithLabelValues(result).Inc()
}

// RecordGatewayCall records latency and, on failure, the error kind for a
// single Persistence Gateway operation.
func RecordGatewayCall(operation string, durationSeconds float64, errKind string) {
	GatewayLatency.WithLabelValues(operation).Observe(durationSeconds)
	if errKind != "" {
		GatewayErrorsTotal.WithLabelValues(operation, errKind).Inc()
	}
}

// RecordActionPublished records an Action dispatched to the action channel.
func RecordActionPublished(action string) {
	ActionsPublishedTotal.WithLabelValues(action).Inc()
}
