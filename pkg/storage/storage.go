// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package storage defines the store interfaces the matchmaker core depends
// on, with a postgres implementation and an in-memory one for tests.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dota2classic/matchmaker/pkg/models"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrPlayerAlreadySeated is the constraint-violation backstop: a
	// player was seated in another open room between balancing and
	// room commit.
	ErrPlayerAlreadySeated = errors.New("player is already seated in a room")
)

// PartyStore persists parties and their queue membership. Queue transitions
// are transactional per party.
type PartyStore interface {
	ByID(ctx context.Context, id string) (*models.Party, error)
	BySteamID(ctx context.Context, steamID string) (*models.Party, error)
	Save(ctx context.Context, party *models.Party) error

	// InQueue returns the full queue snapshot with players attached.
	InQueue(ctx context.Context) ([]models.Party, error)

	// EnterQueue marks the party queued for the given modes. The first
	// entry stamps enter_queue_time; re-entries keep the original stamp
	// so a ready-check failure does not cost the party its seniority.
	EnterQueue(ctx context.Context, partyID string, modes models.ModeList, at time.Time) (*models.Party, error)

	// LeaveQueue clears in_queue and queue_modes. enter_queue_time is
	// cleared only when permanent is true.
	LeaveQueue(ctx context.Context, partyIDs []string, permanent bool) error

	// DeleteEmpty sweeps parties that no longer have any players.
	DeleteEmpty(ctx context.Context) (int64, error)
}

// RoomStore persists rooms and seated players. Create is atomic across the
// room row and all player rows.
type RoomStore interface {
	Create(ctx context.Context, room *models.Room) error
	ByID(ctx context.Context, id string) (*models.Room, error)

	SetPlayerState(ctx context.Context, roomID, steamID string, state models.ReadyState) error
	SetAllPlayersState(ctx context.Context, roomID string, from, to models.ReadyState) error

	// Finish stamps ready_check_finished_at once. The boolean reports
	// whether this call won; losers must treat finalize as a no-op.
	Finish(ctx context.Context, roomID string, at time.Time) (bool, error)
	Delete(ctx context.Context, roomID string) error

	// Expired returns open rooms whose ready check started before cutoff.
	Expired(ctx context.Context, cutoff time.Time) ([]models.Room, error)

	// SeatedSteamIDs lists every player currently seated in an open room.
	SeatedSteamIDs(ctx context.Context) ([]string, error)
}

// QueueSettingsStore owns the per-mode scheduling rows.
type QueueSettingsStore interface {
	All(ctx context.Context) ([]models.QueueSettings, error)
	SetInProgress(ctx context.Context, mode models.MatchmakingMode, inProgress bool) error

	// FinishCycle releases the persisted lock and stamps the check time.
	FinishCycle(ctx context.Context, mode models.MatchmakingMode, at time.Time) error

	// ResetInProgress clears stale locks left by a crash mid-cycle.
	ResetInProgress(ctx context.Context) (int64, error)
}
