// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package scheduler

import (
	"time"

	"github.com/dota2classic/matchmaker/pkg/balance"
	"github.com/dota2classic/matchmaker/pkg/constants"
	"github.com/dota2classic/matchmaker/pkg/models"
)

// ModeConfig describes how one mode's pool is searched. Priority orders the
// table when several modes are due in the same pass; it never starves a
// mode, each has its own settings row and cadence.
type ModeConfig struct {
	Mode       models.MatchmakingMode
	Priority   int
	TimeBudget time.Duration

	// SingleGroup modes have no opposing team: the oldest dodge-viable
	// parties are taken as-is, up to GroupLimit players.
	SingleGroup bool
	GroupLimit  int

	// Function overrides the settings row's balance function when set.
	Function models.BalanceFunctionType

	predicates func(settings models.QueueSettings) []balance.PredicateDescriptor
}

// Predicates resolves the descriptor set for one cycle from the mode's
// settings row.
func (c ModeConfig) Predicates(settings models.QueueSettings) []balance.PredicateDescriptor {
	if c.predicates == nil {
		return nil
	}
	return c.predicates(settings)
}

// BalanceFunction picks the configured function, falling back to the
// settings row and finally to the log waiting score.
func (c ModeConfig) BalanceFunction(settings models.QueueSettings) models.BalanceFunctionType {
	if c.Function != "" {
		return c.Function
	}
	if settings.BalanceFunction != "" {
		return settings.BalanceFunction
	}
	return models.BalanceLogWaitingScore
}

func scoreLimit(v float64) float64 {
	if v <= 0 {
		return constants.DefaultScoreDifferenceLimit
	}
	return v
}

func balancedFiveInfraPredicates(settings models.QueueSettings) []balance.PredicateDescriptor {
	return []balance.PredicateDescriptor{
		{Kind: balance.KindFixedTeamSize, Value: 5},
		{Kind: balance.KindDodgeListViable},
		{Kind: balance.KindMaxTeamScoreDifference, Value: scoreLimit(settings.MaxTeamScoreDifference)},
		{Kind: balance.KindMaxPlayerScoreDeviation, Value: scoreLimit(settings.MaxPlayerScoreDifference)},
		{Kind: balance.KindLongQueuePop, Value: float64(constants.LongQueueThreshold.Milliseconds())},
	}
}

// DefaultModeTable is the static priority-ordered mode configuration.
var DefaultModeTable = []ModeConfig{
	{
		Mode:       models.ModeUnranked,
		Priority:   0,
		TimeBudget: constants.DefaultSearchTimeBudget,
		predicates: balancedFiveInfraPredicates,
	},
	{
		Mode:       models.ModeHighroom,
		Priority:   1,
		TimeBudget: constants.DefaultSearchTimeBudget,
		predicates: balancedFiveInfraPredicates,
	},
	{
		Mode:       models.ModeSolomid,
		Priority:   2,
		TimeBudget: constants.SolomidSearchTimeBudget,
		predicates: func(models.QueueSettings) []balance.PredicateDescriptor {
			return []balance.PredicateDescriptor{
				{Kind: balance.KindFixedTeamSize, Value: 1},
				{Kind: balance.KindDodgeListViable},
			}
		},
	},
	{
		Mode:       models.ModeTurbo,
		Priority:   3,
		TimeBudget: constants.DefaultSearchTimeBudget,
		Function:   models.BalanceOptimizePlayerCount,
		predicates: func(models.QueueSettings) []balance.PredicateDescriptor {
			return []balance.PredicateDescriptor{
				{Kind: balance.KindMaxTeamSizeDifference, Value: 1},
				{Kind: balance.KindDodgeListViable},
			}
		},
	},
	{
		Mode:       models.ModeBots2x2,
		Priority:   4,
		TimeBudget: constants.DefaultSearchTimeBudget,
		predicates: func(models.QueueSettings) []balance.PredicateDescriptor {
			return []balance.PredicateDescriptor{
				{Kind: balance.KindFixedTeamSize, Value: 2},
				{Kind: balance.KindDodgeListViable},
			}
		},
	},
	{
		Mode:        models.ModeBots,
		Priority:    5,
		SingleGroup: true,
		GroupLimit:  constants.CanonicalTeamSize * 2,
	},
}

func modeConfigFor(table []ModeConfig, mode models.MatchmakingMode) (ModeConfig, bool) {
	for _, c := range table {
		if c.Mode == mode {
			return c, true
		}
	}
	return ModeConfig{}, false
}
