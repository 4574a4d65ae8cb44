// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MatchmakingMetrics interface {
	PartiesInQueue(mode string, numParties, numPlayers int)
	AddCycleElapsedTimeMs(mode string, elapsedTime time.Duration)
	AddSearchElapsedTimeMs(mode string, elapsedTime time.Duration)
	AddUnmatchedReason(mode string, reason string)
	AddRoomCreated(mode string)
	AddReadyCheckOutcome(mode string, outcome string)
}

func NewMetrics(registry *prometheus.Registry) MatchmakingMetrics {
	return setupPrometheusMetrics(registry)
}

// NewNoop returns a metrics sink that records nothing. Used in tests.
func NewNoop() MatchmakingMetrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) PartiesInQueue(string, int, int)               {}
func (noopMetrics) AddCycleElapsedTimeMs(string, time.Duration)   {}
func (noopMetrics) AddSearchElapsedTimeMs(string, time.Duration)  {}
func (noopMetrics) AddUnmatchedReason(string, string)             {}
func (noopMetrics) AddRoomCreated(string)                         {}
func (noopMetrics) AddReadyCheckOutcome(string, string)           {}
