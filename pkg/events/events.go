// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package events defines the typed event variants the matchmaker produces
// and the publisher interface used to fan them out to other services.
package events

import (
	"time"

	"github.com/dota2classic/matchmaker/pkg/models"
)

// Kind discriminates event variants. Routing is static per kind.
type Kind string

const (
	KindRoomCreated       Kind = "RoomCreatedEvent"
	KindReadyCheckStarted Kind = "ReadyCheckStartedEvent"
	KindReadyStateUpdated Kind = "ReadyStateUpdatedEvent"
	KindRoomReady         Kind = "RoomReadyEvent"
	KindRoomNotReady      Kind = "RoomNotReadyEvent"
	KindPlayerDeclined    Kind = "PlayerDeclinedGameEvent"
	KindQueueUpdated      Kind = "QueueUpdatedEvent"
	KindPartyUpdated      Kind = "PartyUpdatedEvent"
)

// Event is one produced event variant.
type Event interface {
	Kind() Kind
}

// Publisher fans events out to downstream consumers.
type Publisher interface {
	Publish(event Event)
}

// ReadyCheckEntry is a player's current ready state inside a room.
type ReadyCheckEntry struct {
	SteamID    string            `json:"steam_id"`
	ReadyState models.ReadyState `json:"ready_state"`
}

// MatchPlayer is a committed roster slot with its side assignment.
type MatchPlayer struct {
	SteamID string      `json:"steam_id"`
	PartyID string      `json:"party_id"`
	Team    models.Team `json:"team"`
}

type RoomCreated struct {
	RoomID  string                 `json:"room_id"`
	Mode    models.MatchmakingMode `json:"mode"`
	Balance models.GameBalance     `json:"balance"`
}

func (RoomCreated) Kind() Kind { return KindRoomCreated }

type ReadyCheckStarted struct {
	RoomID  string                 `json:"room_id"`
	Mode    models.MatchmakingMode `json:"mode"`
	Entries []ReadyCheckEntry      `json:"entries"`
}

func (ReadyCheckStarted) Kind() Kind { return KindReadyCheckStarted }

type ReadyStateUpdated struct {
	RoomID   string                 `json:"room_id"`
	Mode     models.MatchmakingMode `json:"mode"`
	Entries  []ReadyCheckEntry      `json:"entries"`
	Total    int                    `json:"total"`
	Accepted int                    `json:"accepted"`
}

func (ReadyStateUpdated) Kind() Kind { return KindReadyStateUpdated }

// RoomReady is the final commit: all players confirmed, the match is handed
// to a game server.
type RoomReady struct {
	RoomID  string                 `json:"room_id"`
	Mode    models.MatchmakingMode `json:"mode"`
	Players []MatchPlayer          `json:"players"`
	Version string                 `json:"version"`
}

func (RoomReady) Kind() Kind { return KindRoomReady }

type RoomNotReady struct {
	RoomID   string                 `json:"room_id"`
	Mode     models.MatchmakingMode `json:"mode"`
	SteamIDs []string               `json:"steam_ids"`
}

func (RoomNotReady) Kind() Kind { return KindRoomNotReady }

type PlayerDeclined struct {
	SteamID string                 `json:"steam_id"`
	Mode    models.MatchmakingMode `json:"mode"`
}

func (PlayerDeclined) Kind() Kind { return KindPlayerDeclined }

// QueueUpdated carries per-mode live counts.
type QueueUpdated struct {
	Mode        models.MatchmakingMode `json:"mode"`
	PartyCount  int                    `json:"party_count"`
	PlayerCount int                    `json:"player_count"`
}

func (QueueUpdated) Kind() Kind { return KindQueueUpdated }

// PartyUpdated is a full party snapshot emitted after any party mutation.
type PartyUpdated struct {
	Party models.Party `json:"party"`
}

func (PartyUpdated) Kind() Kind { return KindPartyUpdated }

// Envelope is the wire frame around a published event.
type Envelope struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Event     `json:"payload"`
}
