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

func TestFixedTeamSize_CountsPlayersNotParties(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	duo := soloParty("duo", 2000, time.Minute, now)
	duo.Players = append(duo.Players, models.PlayerInParty{
		SteamID: "steam-duo-2", PartyID: "duo", Score: 2000,
	})
	left := []models.Party{duo}
	right := []models.Party{soloParty("a", 2000, time.Minute, now), soloParty("b", 2000, time.Minute, now)}

	g.Expect(FixedTeamSize(2)(left, right, 0)).To(BeTrue())
	g.Expect(FixedTeamSize(5)(left, right, 0)).To(BeFalse())
}

func TestMaxTeamSizeDifference_BoundsSkew(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	left := []models.Party{soloParty("a", 2000, time.Minute, now), soloParty("b", 2000, time.Minute, now)}
	right := []models.Party{soloParty("c", 2000, time.Minute, now)}

	g.Expect(MaxTeamSizeDifference(1)(left, right, 0)).To(BeTrue())
	g.Expect(MaxTeamSizeDifference(0)(left, right, 0)).To(BeFalse())
}

func TestMaxTeamScoreDifference_ComparesAggregates(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	left := []models.Party{soloParty("a", 3000, time.Minute, now)}
	right := []models.Party{soloParty("b", 3600, time.Minute, now)}

	g.Expect(MaxTeamScoreDifference(600)(left, right, 0)).To(BeTrue())
	g.Expect(MaxTeamScoreDifference(599)(left, right, 0)).To(BeFalse())
}

func TestMaxPlayerScoreDeviation_SpansBothTeams(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	left := []models.Party{soloParty("a", 1000, time.Minute, now)}
	right := []models.Party{soloParty("b", 2500, time.Minute, now)}

	g.Expect(MaxPlayerScoreDeviation(1500)(left, right, 0)).To(BeTrue())
	g.Expect(MaxPlayerScoreDeviation(1499)(left, right, 0)).To(BeFalse())
}

func TestDodgeListViable_ChecksWholeMatchNotJustOpponents(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	dodger := soloParty("dodger", 2000, time.Minute, now)
	dodger.DodgeList = models.SteamIDList{"steam-mate"}
	mate := soloParty("mate", 2000, time.Minute, now)

	// dodged player on the dodger's own team still blocks the match
	g.Expect(DodgeListViable([]models.Party{dodger, mate}, []models.Party{soloParty("c", 2000, time.Minute, now)}, 0)).To(BeFalse())
	g.Expect(DodgeListViable([]models.Party{dodger}, []models.Party{mate}, 0)).To(BeFalse())
	g.Expect(DodgeListViable([]models.Party{dodger}, []models.Party{soloParty("c", 2000, time.Minute, now)}, 0)).To(BeTrue())
}

func TestLongQueuePop_PinsOldestParties(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	veteran := soloParty("veteran", 2000, 15*time.Minute, now)
	fresh1 := soloParty("fresh1", 2000, time.Minute, now)
	fresh2 := soloParty("fresh2", 2000, time.Minute, now)
	queuePool := []models.Party{veteran, fresh1, fresh2}

	predicate := LongQueuePop(queuePool, 10*time.Minute, now)

	// a split that leaves the veteran out is rejected
	g.Expect(predicate([]models.Party{fresh1}, []models.Party{fresh2}, 0)).To(BeFalse())
	g.Expect(predicate([]models.Party{veteran}, []models.Party{fresh1}, 0)).To(BeTrue())
}

func TestLongQueuePop_NoGuaranteesBelowThreshold(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	fresh1 := soloParty("fresh1", 2000, time.Minute, now)
	fresh2 := soloParty("fresh2", 2000, time.Minute, now)

	predicate := LongQueuePop([]models.Party{fresh1, fresh2}, 10*time.Minute, now)
	g.Expect(predicate([]models.Party{fresh1}, []models.Party{fresh2}, 0)).To(BeTrue())
}

func TestPredicateDescriptor_BuildRejectsUnknownKind(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	_, err := PredicateDescriptor{Kind: "no_such_predicate"}.Build(nil, time.Now())
	g.Expect(err).To(HaveOccurred())
}

func TestRequiredPlayers_DerivedFromFixedTeamSize(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	g.Expect(RequiredPlayers([]PredicateDescriptor{{Kind: KindFixedTeamSize, Value: 5}})).To(Equal(10))
	g.Expect(RequiredPlayers([]PredicateDescriptor{{Kind: KindDodgeListViable}})).To(Equal(2))
	g.Expect(RequiredPlayers(nil)).To(Equal(2))
}

func TestTakeWhileNotDodged_SkipsInfeasibleAndHonorsLimit(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	now := time.Now()

	dodger := soloParty("dodger", 2000, 3*time.Minute, now)
	dodger.DodgeList = models.SteamIDList{"steam-enemy"}
	enemy := soloParty("enemy", 2000, 2*time.Minute, now)
	neutral := soloParty("neutral", 2000, time.Minute, now)

	group := TakeWhileNotDodged([]models.Party{dodger, enemy, neutral}, 10)
	g.Expect(partyIDs(group)).To(ConsistOf("dodger", "neutral"))

	capped := TakeWhileNotDodged([]models.Party{dodger, neutral}, 1)
	g.Expect(partyIDs(capped)).To(ConsistOf("dodger"))
}
