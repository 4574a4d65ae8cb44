// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package constants

import "time"

const (
	// ReadyCheckDuration is how long players have to accept a found game.
	ReadyCheckDuration = 45 * time.Second

	// DefaultSearchTimeBudget bounds one balancer invocation.
	DefaultSearchTimeBudget = 5 * time.Second

	// SolomidSearchTimeBudget is shorter, the search space is tiny.
	SolomidSearchTimeBudget = 2 * time.Second

	// LongQueueThreshold marks a party as guaranteed for the next pop.
	LongQueueThreshold = 10 * time.Minute

	// CanonicalTeamSize divides side score sums in the log-wait balance
	// function regardless of the actual split size.
	CanonicalTeamSize = 5
)

const (
	// MaxGuaranteedParties caps how many long-waiting parties a single
	// split must include.
	MaxGuaranteedParties = 8

	// DefaultScoreDifferenceLimit effectively disables a score predicate.
	DefaultScoreDifferenceLimit = 1_000_000
)

// Unmatched reason constants.
const (
	ReasonNotEnoughPlayers = "not_enough_players"
	ReasonNoViableSplit    = "no_viable_split"
	ReasonSearchTimeout    = "search_timeout"
)
