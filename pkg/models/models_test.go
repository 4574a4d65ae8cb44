// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueSettings_ShouldRun(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	settings := QueueSettings{Mode: ModeUnranked, CheckInterval: 10}

	settings.LastCheckTimestamp = now.Add(-11 * time.Second)
	assert.True(t, settings.ShouldRun(now))

	settings.LastCheckTimestamp = now.Add(-5 * time.Second)
	assert.False(t, settings.ShouldRun(now))

	settings.LastCheckTimestamp = now.Add(-11 * time.Second)
	settings.InProgress = true
	assert.False(t, settings.ShouldRun(now))
}

func TestParty_QueueTime(t *testing.T) {
	t.Parallel()
	now := time.Now()

	assert.Zero(t, Party{}.QueueTime(now))

	enteredAt := now.Add(-3 * time.Minute)
	party := Party{EnterQueueAt: &enteredAt}
	assert.Equal(t, 3*time.Minute, party.QueueTime(now))
	assert.InDelta(t, 180000, party.QueueTimeMillis(now), 1)
}

func TestParty_CopyIsDeep(t *testing.T) {
	t.Parallel()

	enteredAt := time.Now()
	original := Party{
		ID:           "party-1",
		EnterQueueAt: &enteredAt,
		DodgeList:    SteamIDList{"steam-2"},
		Players:      []PlayerInParty{{SteamID: "steam-1", PartyID: "party-1", IsLeader: true}},
	}

	copied := original.Copy()
	copied.Players[0].SteamID = "steam-x"
	copied.DodgeList[0] = "steam-y"

	assert.Equal(t, "steam-1", original.Players[0].SteamID)
	assert.Equal(t, "steam-2", original.DodgeList[0])
}

func TestRoom_PartyIDsDeduplicates(t *testing.T) {
	t.Parallel()

	room := Room{Players: []PlayerInRoom{
		{RoomID: "r", PartyID: "party-a", SteamID: "s1"},
		{RoomID: "r", PartyID: "party-a", SteamID: "s2"},
		{RoomID: "r", PartyID: "party-b", SteamID: "s3"},
	}}
	assert.ElementsMatch(t, []string{"party-a", "party-b"}, room.PartyIDs())
}

func TestParty_Leader(t *testing.T) {
	t.Parallel()

	party := Party{Players: []PlayerInParty{
		{SteamID: "s1"},
		{SteamID: "s2", IsLeader: true},
	}}
	leader, ok := party.Leader()
	assert.True(t, ok)
	assert.Equal(t, "s2", leader.SteamID)

	_, ok = Party{}.Leader()
	assert.False(t, ok)
}
