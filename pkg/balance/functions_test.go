// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package balance

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/dota2classic/matchmaker/pkg/models"
	"github.com/dota2classic/matchmaker/pkg/testsetup"
)

func TestLogWaitingTime_PerfectBalanceWithoutWaitScoresZero(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	left := []models.Party{soloParty("a", 3000, 0, now)}
	right := []models.Party{soloParty("b", 3000, 0, now)}

	g.Expect(LogWaitingTime(now)(left, right)).To(BeNumerically("~", 0, 1e-9))
}

func TestLogWaitingTime_OlderQueuesScoreLower(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	fresh := LogWaitingTime(now)(
		[]models.Party{soloParty("a", 3000, time.Second, now)},
		[]models.Party{soloParty("b", 3000, time.Second, now)},
	)
	aged := LogWaitingTime(now)(
		[]models.Party{soloParty("a", 3000, 10*time.Minute, now)},
		[]models.Party{soloParty("b", 3000, 10*time.Minute, now)},
	)

	g.Expect(aged).To(BeNumerically("<", fresh))
}

func TestMultWaitingTime_WeighsScoresByHeadcount(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	duo := soloParty("duo", 2000, time.Minute, now)
	duo.Players = append(duo.Players, models.PlayerInParty{
		SteamID: "steam-duo-2", PartyID: "duo", Score: 2000,
	})

	score := MultWaitingTime(now)(
		[]models.Party{duo},
		[]models.Party{soloParty("solo", 4000, time.Minute, now)},
	)

	// 2000*2 vs 4000*1 is even; only the waiting reward remains
	g.Expect(score).To(BeNumerically("<=", 0))
}

func TestTakeMost_PrefersBiggerMatches(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	small := TakeMost(now)(
		[]models.Party{soloParty("a", 3000, time.Minute, now)},
		[]models.Party{soloParty("b", 3000, time.Minute, now)},
	)
	big := TakeMost(now)(
		[]models.Party{soloParty("a", 3000, time.Minute, now), soloParty("c", 9000, time.Minute, now)},
		[]models.Party{soloParty("b", 3000, time.Minute, now), soloParty("d", 1000, time.Minute, now)},
	)

	g.Expect(big).To(BeNumerically("<", small))
}

func TestByType_ResolvesEveryPersistedDiscriminator(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	for _, functionType := range []models.BalanceFunctionType{
		models.BalanceLogWaitingScore,
		models.BalanceMultWaitingScore,
		models.BalanceOptimizePlayerCount,
	} {
		fn, err := ByType(functionType, now)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(fn).ToNot(BeNil())
	}

	_, err := ByType("NO_SUCH_FUNCTION", now)
	g.Expect(err).To(HaveOccurred())
}
