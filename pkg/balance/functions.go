// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package balance implements the combinatorial team balancer: pluggable
// lower-is-better scoring functions, hard-constraint predicates, and a
// time-boxed best-split search over a pool of parties.
package balance

import (
	"fmt"
	"math"
	"time"

	"github.com/dota2classic/matchmaker/pkg/constants"
	"github.com/dota2classic/matchmaker/pkg/mathutil"
	"github.com/dota2classic/matchmaker/pkg/models"
)

// Function scores a candidate split. Lower is better; 0 is perfect balance.
// Anything that should be maximized enters with a flipped sign.
type Function func(left, right []models.Party) float64

// LogWaitingTime balances per-side average score but lets accumulated
// waiting time dominate: the longer the involved parties have queued, the
// more negative the waiting component, so old queues win over slightly
// better balance.
func LogWaitingTime(now time.Time) Function {
	return func(left, right []models.Party) float64 {
		lavg := totalScore(left) / constants.CanonicalTeamSize
		ravg := totalScore(right) / constants.CanonicalTeamSize
		avgDiff := mathutil.Abs(lavg - ravg)

		var waitingScore float64
		for _, p := range left {
			waitingScore += p.QueueTimeMillis(now) / 100
		}
		for _, p := range right {
			waitingScore += p.QueueTimeMillis(now) / 100
		}

		// waiting score should be the highest, so invert it
		waitingScore = -math.Log(mathutil.Max(1, waitingScore))

		return waitingScore*100000 + avgDiff
	}
}

// MultWaitingTime compares headcount-weighted score sums with a light
// reward for older queues.
func MultWaitingTime(now time.Time) Function {
	const (
		weightMMR  = 1.0
		weightWait = -0.005 // negative -> reward older queues
	)

	return func(left, right []models.Party) float64 {
		var leftMMR, rightMMR float64
		for _, p := range left {
			leftMMR += p.Score * float64(p.Size())
		}
		for _, p := range right {
			rightMMR += p.Score * float64(p.Size())
		}
		mmrDiff := mathutil.Abs(leftMMR - rightMMR)

		var totalWait float64
		for _, p := range left {
			totalWait += p.QueueTimeMillis(now)
		}
		for _, p := range right {
			totalWait += p.QueueTimeMillis(now)
		}
		avgWait := totalWait / float64(len(left)+len(right))

		return weightMMR*mmrDiff + weightWait*avgWait
	}
}

// TakeMost rewards combined headcount so heavily that a bigger match always
// beats a smaller one, with LogWaitingTime as the tie-break.
func TakeMost(now time.Time) Function {
	const weightPlayerCount = -10000

	logWaiting := LogWaitingTime(now)
	return func(left, right []models.Party) float64 {
		var playerCount int
		for _, p := range left {
			playerCount += p.Size()
		}
		for _, p := range right {
			playerCount += p.Size()
		}

		return logWaiting(left, right) + float64(playerCount)*weightPlayerCount
	}
}

// ByType resolves a scoring function from its persisted discriminator.
// The returned function measures queue time against the given instant for
// the whole search, so comparisons stay stable within one invocation.
func ByType(t models.BalanceFunctionType, now time.Time) (Function, error) {
	switch t {
	case models.BalanceLogWaitingScore:
		return LogWaitingTime(now), nil
	case models.BalanceMultWaitingScore:
		return MultWaitingTime(now), nil
	case models.BalanceOptimizePlayerCount:
		return TakeMost(now), nil
	default:
		return nil, fmt.Errorf("unknown balance function type %q", t)
	}
}

func totalScore(parties []models.Party) float64 {
	var total float64
	for _, p := range parties {
		total += p.Score
	}
	return total
}
