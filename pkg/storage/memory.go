// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/dota2classic/matchmaker/pkg/models"
)

// MemoryPartyStore is a mutex-guarded PartyStore for tests and local runs.
type MemoryPartyStore struct {
	mu      sync.Mutex
	parties map[string]models.Party
}

func NewMemoryPartyStore() *MemoryPartyStore {
	return &MemoryPartyStore{parties: make(map[string]models.Party)}
}

func (s *MemoryPartyStore) ByID(_ context.Context, id string) (*models.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	party, ok := s.parties[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := party.Copy()
	return &cp, nil
}

func (s *MemoryPartyStore) BySteamID(_ context.Context, steamID string) (*models.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, party := range s.parties {
		for _, plr := range party.Players {
			if plr.SteamID == steamID {
				cp := party.Copy()
				return &cp, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryPartyStore) Save(_ context.Context, party *models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[party.ID] = party.Copy()
	return nil
}

func (s *MemoryPartyStore) InQueue(_ context.Context) ([]models.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var queued []models.Party
	for _, party := range s.parties {
		if party.InQueue {
			queued = append(queued, party.Copy())
		}
	}
	return queued, nil
}

func (s *MemoryPartyStore) EnterQueue(_ context.Context, partyID string, modes models.ModeList, at time.Time) (*models.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	party, ok := s.parties[partyID]
	if !ok {
		return nil, ErrNotFound
	}
	party.InQueue = true
	party.QueueModes = modes
	if party.EnterQueueAt == nil {
		stamp := at
		party.EnterQueueAt = &stamp
	}
	s.parties[partyID] = party
	cp := party.Copy()
	return &cp, nil
}

func (s *MemoryPartyStore) LeaveQueue(_ context.Context, partyIDs []string, permanent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range partyIDs {
		party, ok := s.parties[id]
		if !ok {
			continue
		}
		party.InQueue = false
		party.QueueModes = models.ModeList{}
		if permanent {
			party.EnterQueueAt = nil
		}
		s.parties[id] = party
	}
	return nil
}

func (s *MemoryPartyStore) DeleteEmpty(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, party := range s.parties {
		if len(party.Players) == 0 {
			delete(s.parties, id)
			removed++
		}
	}
	return removed, nil
}

// MemoryRoomStore is a mutex-guarded RoomStore. It enforces the same
// one-open-room-per-player constraint the postgres unique index does.
type MemoryRoomStore struct {
	mu    sync.Mutex
	rooms map[string]models.Room
}

func NewMemoryRoomStore() *MemoryRoomStore {
	return &MemoryRoomStore{rooms: make(map[string]models.Room)}
}

func (s *MemoryRoomStore) Create(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seated := make(map[string]struct{})
	for _, existing := range s.rooms {
		for _, plr := range existing.Players {
			seated[plr.SteamID] = struct{}{}
		}
	}
	for _, plr := range room.Players {
		if _, ok := seated[plr.SteamID]; ok {
			return ErrPlayerAlreadySeated
		}
	}
	s.rooms[room.ID] = copyRoom(*room)
	return nil
}

func (s *MemoryRoomStore) ByID(_ context.Context, id string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyRoom(room)
	return &cp, nil
}

func (s *MemoryRoomStore) SetPlayerState(_ context.Context, roomID, steamID string, state models.ReadyState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	for i := range room.Players {
		if room.Players[i].SteamID == steamID {
			room.Players[i].ReadyState = state
		}
	}
	s.rooms[roomID] = room
	return nil
}

func (s *MemoryRoomStore) SetAllPlayersState(_ context.Context, roomID string, from, to models.ReadyState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	for i := range room.Players {
		if room.Players[i].ReadyState == from {
			room.Players[i].ReadyState = to
		}
	}
	s.rooms[roomID] = room
	return nil
}

func (s *MemoryRoomStore) Finish(_ context.Context, roomID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return false, ErrNotFound
	}
	if room.ReadyCheckFinishedAt != nil {
		return false, nil
	}
	stamp := at
	room.ReadyCheckFinishedAt = &stamp
	s.rooms[roomID] = room
	return true, nil
}

func (s *MemoryRoomStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

func (s *MemoryRoomStore) Expired(_ context.Context, cutoff time.Time) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []models.Room
	for _, room := range s.rooms {
		if room.ReadyCheckFinishedAt == nil && room.ReadyCheckStartedAt.Before(cutoff) {
			expired = append(expired, copyRoom(room))
		}
	}
	return expired, nil
}

func (s *MemoryRoomStore) SeatedSteamIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, room := range s.rooms {
		for _, plr := range room.Players {
			ids = append(ids, plr.SteamID)
		}
	}
	return ids, nil
}

func copyRoom(room models.Room) models.Room {
	cp := room
	cp.Players = append([]models.PlayerInRoom(nil), room.Players...)
	if room.ReadyCheckFinishedAt != nil {
		stamp := *room.ReadyCheckFinishedAt
		cp.ReadyCheckFinishedAt = &stamp
	}
	return cp
}

// MemoryQueueSettingsStore is a mutex-guarded QueueSettingsStore.
type MemoryQueueSettingsStore struct {
	mu       sync.Mutex
	settings map[models.MatchmakingMode]models.QueueSettings
}

func NewMemoryQueueSettingsStore(rows ...models.QueueSettings) *MemoryQueueSettingsStore {
	s := &MemoryQueueSettingsStore{settings: make(map[models.MatchmakingMode]models.QueueSettings)}
	for _, row := range rows {
		s.settings[row.Mode] = row
	}
	return s
}

func (s *MemoryQueueSettingsStore) All(_ context.Context) ([]models.QueueSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]models.QueueSettings, 0, len(s.settings))
	for _, row := range s.settings {
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *MemoryQueueSettingsStore) SetInProgress(_ context.Context, mode models.MatchmakingMode, inProgress bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.settings[mode]
	if !ok {
		return ErrNotFound
	}
	row.InProgress = inProgress
	s.settings[mode] = row
	return nil
}

func (s *MemoryQueueSettingsStore) FinishCycle(_ context.Context, mode models.MatchmakingMode, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.settings[mode]
	if !ok {
		return ErrNotFound
	}
	row.InProgress = false
	row.LastCheckTimestamp = at
	s.settings[mode] = row
	return nil
}

func (s *MemoryQueueSettingsStore) ResetInProgress(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reset int64
	for mode, row := range s.settings {
		if row.InProgress {
			row.InProgress = false
			s.settings[mode] = row
			reset++
		}
	}
	return reset, nil
}

var (
	_ PartyStore         = (*MemoryPartyStore)(nil)
	_ RoomStore          = (*MemoryRoomStore)(nil)
	_ QueueSettingsStore = (*MemoryQueueSettingsStore)(nil)
)
