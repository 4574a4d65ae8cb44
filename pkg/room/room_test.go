// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package room

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/dota2classic/matchmaker/pkg/events"
	"github.com/dota2classic/matchmaker/pkg/models"
	"github.com/dota2classic/matchmaker/pkg/storage"
	"github.com/dota2classic/matchmaker/pkg/testsetup"
)

func duoParty(id string) models.Party {
	return models.Party{
		ID: id,
		Players: []models.PlayerInParty{
			{SteamID: "steam-" + id + "-1", PartyID: id, IsLeader: true, Score: 2000},
			{SteamID: "steam-" + id + "-2", PartyID: id, Score: 2000},
		},
	}
}

func TestCreateRoom_SeatsWholePartiesOnOneSide(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	store := storage.NewMemoryRoomStore()
	recorder := events.NewRecorder()
	svc := NewService(store, recorder, time.Now)

	created, err := svc.CreateRoom(g.TestScope, models.GameBalance{
		Mode:  models.ModeUnranked,
		Left:  []models.Party{duoParty("left")},
		Right: []models.Party{duoParty("right")},
	})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(created.Players).To(HaveLen(4))

	teamsByParty := make(map[string]map[models.Team]struct{})
	for _, plr := range created.Players {
		g.Expect(plr.ReadyState).To(Equal(models.ReadyStatePending))
		if teamsByParty[plr.PartyID] == nil {
			teamsByParty[plr.PartyID] = make(map[models.Team]struct{})
		}
		teamsByParty[plr.PartyID][plr.Team] = struct{}{}
	}
	for partyID, teams := range teamsByParty {
		g.Expect(teams).To(HaveLen(1), "party %s split across sides", partyID)
	}

	g.Expect(recorder.ByKind(events.KindRoomCreated)).To(HaveLen(1))
	g.Expect(recorder.ByKind(events.KindReadyCheckStarted)).To(HaveLen(1))
}

func TestCreateRoom_FailsLoudlyOnSeatRace(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)

	store := storage.NewMemoryRoomStore()
	svc := NewService(store, events.NewRecorder(), time.Now)

	balance := models.GameBalance{
		Mode:  models.ModeSolomid,
		Left:  []models.Party{duoParty("shared")},
		Right: []models.Party{duoParty("other")},
	}
	_, err := svc.CreateRoom(g.TestScope, balance)
	g.Expect(err).ToNot(HaveOccurred())

	_, err = svc.CreateRoom(g.TestScope, balance)
	g.Expect(err).To(MatchError(storage.ErrPlayerAlreadySeated))
}
