// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package room turns balanced splits into rooms and drives each room's
// ready check to a terminal outcome.
package room

import (
	"errors"
	"fmt"
	"time"

	"github.com/dota2classic/matchmaker/pkg/common"
	"github.com/dota2classic/matchmaker/pkg/envelope"
	"github.com/dota2classic/matchmaker/pkg/events"
	"github.com/dota2classic/matchmaker/pkg/models"
	"github.com/dota2classic/matchmaker/pkg/storage"
	"github.com/dota2classic/matchmaker/pkg/utils"
)

// Service creates rooms from balanced splits and starts their ready checks.
type Service struct {
	rooms     storage.RoomStore
	publisher events.Publisher
	now       func() time.Time
}

func NewService(rooms storage.RoomStore, publisher events.Publisher, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{rooms: rooms, publisher: publisher, now: now}
}

// CreateRoom commits one balanced split as a room with every player seated
// PENDING. Side assignment is per party: the whole party lands on one side,
// and a coin flip decides which physical side the left bucket gets.
func (s *Service) CreateRoom(scope *envelope.Scope, balance models.GameBalance) (*models.Room, error) {
	scope = scope.NewChildScope("room.CreateRoom")
	defer scope.Finish()

	leftTeam, rightTeam := models.TeamRadiant, models.TeamDire
	if common.CoinFlip() {
		leftTeam, rightTeam = rightTeam, leftTeam
	}

	room := &models.Room{
		ID:                  utils.GenerateUUID(),
		LobbyType:           balance.Mode,
		ReadyCheckStartedAt: s.now(),
	}
	seat := func(parties []models.Party, team models.Team) {
		for _, party := range parties {
			for _, plr := range party.Players {
				room.Players = append(room.Players, models.PlayerInRoom{
					RoomID:     room.ID,
					PartyID:    party.ID,
					SteamID:    plr.SteamID,
					ReadyState: models.ReadyStatePending,
					Team:       team,
				})
			}
		}
	}
	seat(balance.Left, leftTeam)
	seat(balance.Right, rightTeam)

	scope.Log.Debugf("seating balance %s", common.LogJSONFormatter(balance))
	if err := s.rooms.Create(scope.Ctx, room); err != nil {
		if errors.Is(err, storage.ErrPlayerAlreadySeated) {
			return nil, err
		}
		return nil, fmt.Errorf("create room: %w", err)
	}

	scope.SetAttributes(envelope.RoomIDTag, room.ID)
	scope.SetAttributes(envelope.LobbyTypeTag, int(balance.Mode))
	scope.Log.WithField("roomID", room.ID).
		WithField("mode", balance.Mode).
		WithField("players", len(room.Players)).
		Info("room created, ready check started")

	s.publisher.Publish(events.RoomCreated{
		RoomID:  room.ID,
		Mode:    balance.Mode,
		Balance: balance,
	})
	s.publisher.Publish(events.ReadyCheckStarted{
		RoomID:  room.ID,
		Mode:    balance.Mode,
		Entries: readyEntries(room),
	})
	return room, nil
}

func readyEntries(room *models.Room) []events.ReadyCheckEntry {
	entries := make([]events.ReadyCheckEntry, 0, len(room.Players))
	for _, plr := range room.Players {
		entries = append(entries, events.ReadyCheckEntry{
			SteamID:    plr.SteamID,
			ReadyState: plr.ReadyState,
		})
	}
	return entries
}
