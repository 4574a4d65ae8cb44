// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package balance

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/dota2classic/matchmaker/pkg/constants"
	"github.com/dota2classic/matchmaker/pkg/mathutil"
	"github.com/dota2classic/matchmaker/pkg/models"
	"github.com/dota2classic/matchmaker/pkg/utils"
)

// pool reusable scratch buffers shared by the predicate hot path
var pool = models.NewPool()

// Predicate is a hard constraint over a candidate split. All predicates
// must pass for the split to be considered.
type Predicate func(left, right []models.Party, score float64) bool

// FixedTeamSize requires both sides to hold exactly teamSize players.
func FixedTeamSize(teamSize int) Predicate {
	return func(left, right []models.Party, _ float64) bool {
		return countPlayers(left) == teamSize && countPlayers(right) == teamSize
	}
}

// MaxTeamSizeDifference caps the headcount skew between the two sides.
func MaxTeamSizeDifference(maxDifference int) Predicate {
	return func(left, right []models.Party, _ float64) bool {
		diff := countPlayers(left) - countPlayers(right)
		if diff < 0 {
			diff = -diff
		}
		return diff <= maxDifference
	}
}

// MaxTeamScoreDifference caps the gap between side score sums.
func MaxTeamScoreDifference(maxDifference float64) Predicate {
	return func(left, right []models.Party, _ float64) bool {
		return mathutil.Abs(totalScore(left)-totalScore(right)) <= maxDifference
	}
}

// MaxPlayerScoreDeviation caps the spread between the best and the worst
// individual player across both teams.
func MaxPlayerScoreDeviation(maxDifference float64) Predicate {
	return func(left, right []models.Party, _ float64) bool {
		scores := make([]float64, 0, 16)
		for _, p := range left {
			for _, plr := range p.Players {
				scores = append(scores, plr.Score)
			}
		}
		for _, p := range right {
			for _, plr := range p.Players {
				scores = append(scores, plr.Score)
			}
		}
		if len(scores) == 0 {
			return true
		}
		return floats.Max(scores)-floats.Min(scores) <= maxDifference
	}
}

// DodgeListViable rejects a split when any party's dodge list names a
// player present anywhere in the match, either side.
func DodgeListViable(left, right []models.Party, _ float64) bool {
	steamIDs := pool.SteamIDs.Get()
	defer pool.SteamIDs.Put(steamIDs[:0])

	for _, p := range left {
		steamIDs = append(steamIDs, p.SteamIDs()...)
	}
	for _, p := range right {
		steamIDs = append(steamIDs, p.SteamIDs()...)
	}

	for _, p := range left {
		for _, dodged := range p.DodgeList {
			if utils.Contains(steamIDs, dodged) {
				return false
			}
		}
	}
	for _, p := range right {
		for _, dodged := range p.DodgeList {
			if utils.Contains(steamIDs, dodged) {
				return false
			}
		}
	}
	return true
}

// IsDodgeViableGroup reports whether a single group of parties contains no
// dodged player. Used by the greedy single-team paths.
func IsDodgeViableGroup(parties []models.Party) bool {
	return DodgeListViable(parties, nil, 0)
}

// LongQueuePop guarantees the oldest parties above maxWait a seat: any split
// that omits one of them is rejected. At most MaxGuaranteedParties are
// pinned so the predicate cannot make every split infeasible forever.
func LongQueuePop(queuePool []models.Party, maxWait time.Duration, now time.Time) Predicate {
	guaranteed := make([]string, 0, constants.MaxGuaranteedParties)
	sorted := make([]models.Party, len(queuePool))
	copy(sorted, queuePool)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].QueueTime(now) > sorted[j].QueueTime(now)
	})
	for _, p := range sorted {
		if p.QueueTime(now) < maxWait {
			break
		}
		guaranteed = append(guaranteed, p.ID)
		if len(guaranteed) == constants.MaxGuaranteedParties {
			break
		}
	}

	return func(left, right []models.Party, _ float64) bool {
		if len(guaranteed) == 0 {
			return true
		}
		included := make(map[string]struct{}, len(left)+len(right))
		for _, p := range left {
			included[p.ID] = struct{}{}
		}
		for _, p := range right {
			included[p.ID] = struct{}{}
		}
		for _, id := range guaranteed {
			if _, ok := included[id]; !ok {
				return false
			}
		}
		return true
	}
}

func countPlayers(parties []models.Party) (count int) {
	for _, p := range parties {
		count += p.Size()
	}
	return count
}

// PredicateKind discriminates predicate descriptors sent to balance workers.
type PredicateKind string

const (
	KindFixedTeamSize           PredicateKind = "fixed_team_size"
	KindMaxTeamSizeDifference   PredicateKind = "max_team_size_difference"
	KindMaxTeamScoreDifference  PredicateKind = "max_team_score_difference"
	KindMaxPlayerScoreDeviation PredicateKind = "max_player_score_deviation"
	KindDodgeListViable         PredicateKind = "dodge_list_viable"
	KindLongQueuePop            PredicateKind = "long_queue_pop"
)

// PredicateDescriptor is the wire form of a predicate: a discriminator plus
// a numeric parameter. Workers resolve the real function from the kind, no
// logic crosses the worker boundary.
type PredicateDescriptor struct {
	Kind  PredicateKind `json:"kind"`
	Value float64       `json:"value"`
}

// Build resolves the descriptor against a pool snapshot taken at now.
func (d PredicateDescriptor) Build(queuePool []models.Party, now time.Time) (Predicate, error) {
	switch d.Kind {
	case KindFixedTeamSize:
		return FixedTeamSize(int(d.Value)), nil
	case KindMaxTeamSizeDifference:
		return MaxTeamSizeDifference(int(d.Value)), nil
	case KindMaxTeamScoreDifference:
		return MaxTeamScoreDifference(d.Value), nil
	case KindMaxPlayerScoreDeviation:
		return MaxPlayerScoreDeviation(d.Value), nil
	case KindDodgeListViable:
		return DodgeListViable, nil
	case KindLongQueuePop:
		return LongQueuePop(queuePool, time.Duration(d.Value)*time.Millisecond, now), nil
	default:
		return nil, fmt.Errorf("unknown predicate kind %q", d.Kind)
	}
}

// RequiredPlayers derives the minimum pool headcount the descriptor set can
// ever match, so the search can short-circuit on undersized pools.
func RequiredPlayers(descriptors []PredicateDescriptor) int {
	for _, d := range descriptors {
		if d.Kind == KindFixedTeamSize {
			return 2 * int(d.Value)
		}
	}
	// both sides must be non-empty
	return 2
}
