// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package queue

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/dota2classic/matchmaker/pkg/events"
	"github.com/dota2classic/matchmaker/pkg/models"
	"github.com/dota2classic/matchmaker/pkg/playerinfo"
	"github.com/dota2classic/matchmaker/pkg/storage"
	"github.com/dota2classic/matchmaker/pkg/testsetup"
)

type fixture struct {
	parties  *storage.MemoryPartyStore
	rooms    *storage.MemoryRoomStore
	players  *playerinfo.StaticClient
	recorder *events.Recorder
	queue    *PartyQueue
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		parties:  storage.NewMemoryPartyStore(),
		rooms:    storage.NewMemoryRoomStore(),
		players:  &playerinfo.StaticClient{Summaries: map[string]playerinfo.Summary{}},
		recorder: events.NewRecorder(),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.queue = NewPartyQueue(f.parties, f.rooms, f.players, f.recorder, func() time.Time { return f.now })
	return f
}

func (f *fixture) seedParty(id string, steamIDs ...string) {
	party := &models.Party{ID: id}
	for i, steamID := range steamIDs {
		party.Players = append(party.Players, models.PlayerInParty{
			SteamID:  steamID,
			PartyID:  id,
			IsLeader: i == 0,
			Score:    2000,
		})
	}
	if err := f.parties.Save(context.Background(), party); err != nil {
		panic(err)
	}
}

func TestEnter_StampsEnterQueueTimeOnce(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("party-1", "steam-1")

	entered, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(entered.InQueue).To(BeTrue())
	g.Expect(entered.EnterQueueAt).ToNot(BeNil())
	firstEntry := *entered.EnterQueueAt

	// leave non-permanently and come back later: the stamp survives
	g.Expect(f.queue.Leave(g.TestScope, "party-1", false)).To(Succeed())
	f.now = f.now.Add(5 * time.Minute)
	reentered, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(*reentered.EnterQueueAt).To(Equal(firstEntry))
}

func TestEnter_RejectsBannedPlayer(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("party-1", "steam-1")
	f.players.Summaries["steam-1"] = playerinfo.Summary{SteamID: "steam-1", Banned: true}

	_, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).To(MatchError(playerinfo.ErrBanned))

	party, err := f.parties.ByID(g.TestScope.Ctx, "party-1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(party.InQueue).To(BeFalse())
}

func TestEnter_OneBadMemberKeepsWholePartyOut(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("party-1", "steam-1", "steam-2")
	f.players.Summaries["steam-2"] = playerinfo.Summary{SteamID: "steam-2", InSession: true}

	_, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).To(MatchError(playerinfo.ErrInSession))
}

func TestEnter_HighroomRequiresExperience(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("party-1", "steam-1")
	f.players.Summaries["steam-1"] = playerinfo.Summary{
		SteamID: "steam-1", MMR: 3000, RecentWinrate: 0.5, GamesPlayed: 10,
		AccessLevel: playerinfo.AccessLevelHumanGames,
	}

	_, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeHighroom})
	g.Expect(err).To(MatchError(playerinfo.ErrInsufficientExperience))

	_, err = f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).ToNot(HaveOccurred())
}

func TestEnter_RejectsLockedModeForLowAccessLevel(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("party-1", "steam-1")
	f.players.Summaries["steam-1"] = playerinfo.Summary{
		SteamID: "steam-1", MMR: 2000, RecentWinrate: 0.5, GamesPlayed: 3,
		AccessLevel: playerinfo.AccessLevelEducation,
	}

	_, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).To(MatchError(playerinfo.ErrModeNotAllowed))

	party, err := f.parties.ByID(g.TestScope.Ctx, "party-1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(party.InQueue).To(BeFalse())

	_, err = f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeBots})
	g.Expect(err).ToNot(HaveOccurred())
}

func TestEnter_RejectsPlayerSeatedInRoom(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("party-1", "steam-1")
	g.Expect(f.rooms.Create(g.TestScope.Ctx, &models.Room{
		ID:                  "room-1",
		LobbyType:           models.ModeUnranked,
		ReadyCheckStartedAt: f.now,
		Players: []models.PlayerInRoom{
			{RoomID: "room-1", PartyID: "party-1", SteamID: "steam-1", ReadyState: models.ReadyStatePending, Team: models.TeamRadiant},
		},
	})).To(Succeed())

	_, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).To(MatchError(ErrAlreadyInRoom))
}

func TestEnter_RefreshesScoresAndDodgeLists(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("party-1", "steam-1")
	f.players.Summaries["steam-1"] = playerinfo.Summary{
		SteamID: "steam-1", MMR: 4000, RecentWinrate: 0.5, GamesPlayed: 100,
		AccessLevel: playerinfo.AccessLevelHumanGames,
		DodgeList:   []string{"steam-enemy"},
	}

	entered, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(entered.Score).To(BeNumerically(">", 4000))
	g.Expect(entered.DodgeList).To(ConsistOf("steam-enemy"))
}

func TestRequeueParties_PreservesSeniority(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("party-1", "steam-1")

	entered, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).ToNot(HaveOccurred())
	originalEntry := *entered.EnterQueueAt

	g.Expect(f.queue.RemoveMatched(g.TestScope, []string{"party-1"}, models.ModeUnranked)).To(Succeed())
	f.now = f.now.Add(time.Minute)
	f.queue.RequeueParties(g.TestScope, []string{"party-1"}, models.ModeUnranked)

	party, err := f.parties.ByID(g.TestScope.Ctx, "party-1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(party.InQueue).To(BeTrue())
	g.Expect(*party.EnterQueueAt).To(Equal(originalEntry))
}

func TestReleaseParties_ClearsWaitingCredit(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("party-1", "steam-1")

	_, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).ToNot(HaveOccurred())

	f.queue.ReleaseParties(g.TestScope, []string{"party-1"})

	party, err := f.parties.ByID(g.TestScope.Ctx, "party-1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(party.InQueue).To(BeFalse())
	g.Expect(party.EnterQueueAt).To(BeNil())
}

func TestEnter_PublishesQueueCounts(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("party-1", "steam-1", "steam-2")

	_, err := f.queue.Enter(g.TestScope, "party-1", models.ModeList{models.ModeUnranked})
	g.Expect(err).ToNot(HaveOccurred())

	updates := f.recorder.ByKind(events.KindQueueUpdated)
	g.Expect(updates).ToNot(BeEmpty())
	last := updates[len(updates)-1].(events.QueueUpdated)
	g.Expect(last.Mode).To(Equal(models.ModeUnranked))
	g.Expect(last.PartyCount).To(Equal(1))
	g.Expect(last.PlayerCount).To(Equal(2))
}

func TestResolveParty_CreatesSoloPartyOnFirstSight(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.players.Summaries["steam-new"] = playerinfo.Summary{
		SteamID: "steam-new", MMR: 2500, RecentWinrate: 0.5, GamesPlayed: 50,
	}

	party, err := f.queue.ResolveParty(g.TestScope, "steam-new")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(party.Players).To(HaveLen(1))
	g.Expect(party.Players[0].IsLeader).To(BeTrue())

	again, err := f.queue.ResolveParty(g.TestScope, "steam-new")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(again.ID).To(Equal(party.ID))
}

func TestSweepEmptyParties_RemovesOnlyEmptyOnes(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture()
	f.seedParty("full", "steam-1")
	g.Expect(f.parties.Save(g.TestScope.Ctx, &models.Party{ID: "empty"})).To(Succeed())

	f.queue.SweepEmptyParties(g.TestScope)

	_, err := f.parties.ByID(g.TestScope.Ctx, "empty")
	g.Expect(err).To(MatchError(storage.ErrNotFound))
	_, err = f.parties.ByID(g.TestScope.Ctx, "full")
	g.Expect(err).ToNot(HaveOccurred())
}
