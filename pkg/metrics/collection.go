// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	partiesInQueue     prometheus.GaugeVec
	playersInQueue     prometheus.GaugeVec
	cycleElapsedTime   prometheus.HistogramVec
	searchElapsedTime  prometheus.HistogramVec
	unmatchedReasons   prometheus.CounterVec
	roomsCreated       prometheus.CounterVec
	readyCheckOutcomes prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	partiesInQueue := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "d2c_mm_parties_in_queue",
			Help: "Number of parties currently waiting in each mode queue",
		}, []string{"mode"})

	playersInQueue := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "d2c_mm_players_in_queue",
			Help: "Number of players currently waiting in each mode queue",
		}, []string{"mode"})

	//nolint:promlinter
	cycleElapsedTime := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "d2c_mm_cycle_elapsed_time_ms",
			Help:    "A histogram of matching cycle elapsed time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"mode"})

	//nolint:promlinter
	searchElapsedTime := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "d2c_mm_search_elapsed_time_ms",
			Help:    "A histogram of balance search elapsed time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"mode"})

	unmatchedReasons := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "d2c_mm_unmatched_reasons",
			Help: "Reasons a mode's cycle produced no match",
		}, []string{"mode", "reason"})

	roomsCreated := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "d2c_mm_rooms_created",
			Help: "Rooms committed from balance results",
		}, []string{"mode"})

	readyCheckOutcomes := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "d2c_mm_ready_check_outcomes",
			Help: "Terminal ready check outcomes per mode",
		}, []string{"mode", "outcome"})

	return prometheusMetrics{
		partiesInQueue:     *partiesInQueue,
		playersInQueue:     *playersInQueue,
		cycleElapsedTime:   *cycleElapsedTime,
		searchElapsedTime:  *searchElapsedTime,
		unmatchedReasons:   *unmatchedReasons,
		roomsCreated:       *roomsCreated,
		readyCheckOutcomes: *readyCheckOutcomes,
	}
}

func (metrics prometheusMetrics) PartiesInQueue(mode string, numParties, numPlayers int) {
	metrics.partiesInQueue.With(prometheus.Labels{"mode": mode}).Set(float64(numParties))
	metrics.playersInQueue.With(prometheus.Labels{"mode": mode}).Set(float64(numPlayers))
}

func (metrics prometheusMetrics) AddCycleElapsedTimeMs(mode string, elapsedTime time.Duration) {
	metrics.cycleElapsedTime.With(prometheus.Labels{"mode": mode}).Observe(float64(elapsedTime.Milliseconds()))
}

func (metrics prometheusMetrics) AddSearchElapsedTimeMs(mode string, elapsedTime time.Duration) {
	metrics.searchElapsedTime.With(prometheus.Labels{"mode": mode}).Observe(float64(elapsedTime.Milliseconds()))
}

func (metrics prometheusMetrics) AddUnmatchedReason(mode string, reason string) {
	metrics.unmatchedReasons.With(prometheus.Labels{"mode": mode, "reason": reason}).Add(1)
}

func (metrics prometheusMetrics) AddRoomCreated(mode string) {
	metrics.roomsCreated.With(prometheus.Labels{"mode": mode}).Add(1)
}

func (metrics prometheusMetrics) AddReadyCheckOutcome(mode string, outcome string) {
	metrics.readyCheckOutcomes.With(prometheus.Labels{"mode": mode, "outcome": outcome}).Add(1)
}
