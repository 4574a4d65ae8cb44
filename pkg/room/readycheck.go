// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package room

import (
	"errors"
	"fmt"
	"time"

	"github.com/dota2classic/matchmaker/pkg/envelope"
	"github.com/dota2classic/matchmaker/pkg/events"
	"github.com/dota2classic/matchmaker/pkg/metrics"
	"github.com/dota2classic/matchmaker/pkg/models"
	"github.com/dota2classic/matchmaker/pkg/storage"
)

// PartyRegistry is the slice of the queue layer the ready check needs:
// requeue clean parties after a failed check (waiting-time credit kept) and
// release parties for good after a committed match. Satisfied by
// queue.PartyQueue.
type PartyRegistry interface {
	RequeueParties(scope *envelope.Scope, partyIDs []string, mode models.MatchmakingMode)
	ReleaseParties(scope *envelope.Scope, partyIDs []string)
}

// ReadyCheckService collects per-player confirmations and finalizes rooms.
// Finalization is idempotent: the ready_check_finished_at stamp is the gate,
// and only the caller that wins the stamp runs the terminal effects.
type ReadyCheckService struct {
	rooms     storage.RoomStore
	parties   PartyRegistry
	publisher events.Publisher
	metrics   metrics.MatchmakingMetrics
	now       func() time.Time
}

func NewReadyCheckService(
	rooms storage.RoomStore,
	parties PartyRegistry,
	publisher events.Publisher,
	m metrics.MatchmakingMetrics,
	now func() time.Time,
) *ReadyCheckService {
	if m == nil {
		m = metrics.NewNoop()
	}
	if now == nil {
		now = time.Now
	}
	return &ReadyCheckService{
		rooms:     rooms,
		parties:   parties,
		publisher: publisher,
		metrics:   m,
		now:       now,
	}
}

// SubmitReadyCheck records one player's answer. READY on an already-answered
// or finished room is a harmless no-op. DECLINE fast-fails the room: every
// player still PENDING is flipped to READY so their parties count as clean
// for the requeue, and the room finalizes immediately instead of waiting out
// the timer.
func (s *ReadyCheckService) SubmitReadyCheck(scope *envelope.Scope, roomID, steamID string, state models.ReadyState) error {
	scope = scope.NewChildScope("room.SubmitReadyCheck")
	defer scope.Finish()

	if state != models.ReadyStateReady && state != models.ReadyStateDecline {
		return fmt.Errorf("unexpected ready state submission %q", state)
	}

	room, err := s.rooms.ByID(scope.Ctx, roomID)
	if errors.Is(err, storage.ErrNotFound) {
		// duplicate submission after finalize, harmless
		scope.Log.WithField("roomID", roomID).Debug("ready check submission for a finalized room, ignoring")
		return nil
	}
	if err != nil {
		return err
	}
	if room.IsFinished() {
		scope.Log.WithField("roomID", roomID).Debug("ready check already finalized, ignoring submission")
		return nil
	}

	if err := s.rooms.SetPlayerState(scope.Ctx, roomID, steamID, state); err != nil {
		return err
	}

	room, err = s.rooms.ByID(scope.Ctx, roomID)
	if err != nil {
		return err
	}
	pending, accepted := 0, 0
	for _, plr := range room.Players {
		switch plr.ReadyState {
		case models.ReadyStatePending:
			pending++
		case models.ReadyStateReady:
			accepted++
		}
	}
	s.publisher.Publish(events.ReadyStateUpdated{
		RoomID:   roomID,
		Mode:     room.LobbyType,
		Entries:  readyEntries(room),
		Total:    len(room.Players),
		Accepted: accepted,
	})

	if state == models.ReadyStateDecline {
		if err := s.rooms.SetAllPlayersState(scope.Ctx, roomID, models.ReadyStatePending, models.ReadyStateReady); err != nil {
			return err
		}
		return s.finalize(scope, roomID)
	}
	if pending == 0 {
		return s.finalize(scope, roomID)
	}
	return nil
}

// ExpireReadyChecks times out every open room older than the given duration.
// Stragglers go PENDING -> TIMEOUT before finalize.
func (s *ReadyCheckService) ExpireReadyChecks(scope *envelope.Scope, duration time.Duration) {
	scope = scope.NewChildScope("room.ExpireReadyChecks")
	defer scope.Finish()

	cutoff := s.now().Add(-duration)
	rooms, err := s.rooms.Expired(scope.Ctx, cutoff)
	if err != nil {
		scope.Log.WithError(err).Warn("failed to list expired ready checks")
		return
	}
	for _, room := range rooms {
		if err := s.rooms.SetAllPlayersState(scope.Ctx, room.ID, models.ReadyStatePending, models.ReadyStateTimeout); err != nil {
			scope.Log.WithField("roomID", room.ID).WithError(err).Warn("failed to time out room")
			continue
		}
		if err := s.finalize(scope, room.ID); err != nil {
			scope.Log.WithField("roomID", room.ID).WithError(err).Warn("failed to finalize timed-out room")
		}
	}
}

// finalize drives a room to its terminal outcome exactly once. A room with
// no declined or timed-out players commits the match; anything else fails
// the room and requeues the parties with zero declined players.
func (s *ReadyCheckService) finalize(scope *envelope.Scope, roomID string) error {
	won, err := s.rooms.Finish(scope.Ctx, roomID, s.now())
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	room, err := s.rooms.ByID(scope.Ctx, roomID)
	if err != nil {
		return err
	}

	var roster []events.MatchPlayer
	declinedByParty := make(map[string]int, len(room.Players))
	var declined []models.PlayerInRoom
	for _, plr := range room.Players {
		switch plr.ReadyState {
		case models.ReadyStatePending:
			// every transition path clears PENDING before finalize
			panic(fmt.Sprintf("finalizing room %s with player %s still PENDING", roomID, plr.SteamID))
		case models.ReadyStateDecline, models.ReadyStateTimeout:
			declinedByParty[plr.PartyID]++
			declined = append(declined, plr)
		}
		roster = append(roster, events.MatchPlayer{
			SteamID: plr.SteamID,
			PartyID: plr.PartyID,
			Team:    plr.Team,
		})
	}

	if err := s.rooms.Delete(scope.Ctx, roomID); err != nil {
		return err
	}

	if len(declined) == 0 {
		scope.Log.WithField("roomID", roomID).
			WithField("mode", room.LobbyType).
			Info("ready check passed, committing match")
		s.metrics.AddReadyCheckOutcome(room.LobbyType.String(), "ready")
		s.parties.ReleaseParties(scope, room.PartyIDs())
		s.publisher.Publish(events.RoomReady{
			RoomID:  roomID,
			Mode:    room.LobbyType,
			Players: roster,
			Version: models.MatchVersion,
		})
		return nil
	}

	scope.Log.WithField("roomID", roomID).
		WithField("declined", len(declined)).
		Info("ready check failed")
	s.metrics.AddReadyCheckOutcome(room.LobbyType.String(), "not_ready")
	for _, plr := range declined {
		s.publisher.Publish(events.PlayerDeclined{
			SteamID: plr.SteamID,
			Mode:    room.LobbyType,
		})
	}

	var cleanParties []string
	for _, partyID := range room.PartyIDs() {
		if declinedByParty[partyID] == 0 {
			cleanParties = append(cleanParties, partyID)
		}
	}
	if len(cleanParties) > 0 {
		s.parties.RequeueParties(scope, cleanParties, room.LobbyType)
	}

	steamIDs := make([]string, 0, len(room.Players))
	for _, plr := range room.Players {
		steamIDs = append(steamIDs, plr.SteamID)
	}
	s.publisher.Publish(events.RoomNotReady{
		RoomID:   roomID,
		Mode:     room.LobbyType,
		SteamIDs: steamIDs,
	})
	return nil
}
