// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package queue is the admission layer in front of the party store: it
// decides who may enter a mode queue and keeps the queue events flowing.
package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/dota2classic/matchmaker/pkg/envelope"
	"github.com/dota2classic/matchmaker/pkg/events"
	"github.com/dota2classic/matchmaker/pkg/models"
	"github.com/dota2classic/matchmaker/pkg/playerinfo"
	"github.com/dota2classic/matchmaker/pkg/storage"
	"github.com/dota2classic/matchmaker/pkg/utils"
)

// ErrAlreadyInRoom rejects queue entry while any party member sits in an
// open room.
var ErrAlreadyInRoom = errors.New("party member is in an active room")

// PartyQueue guards queue entry and exit. All collaborator state lives in
// the injected stores; the queue itself holds none.
type PartyQueue struct {
	parties   storage.PartyStore
	rooms     storage.RoomStore
	players   playerinfo.Client
	publisher events.Publisher
	now       func() time.Time
}

func NewPartyQueue(
	parties storage.PartyStore,
	rooms storage.RoomStore,
	players playerinfo.Client,
	publisher events.Publisher,
	now func() time.Time,
) *PartyQueue {
	if now == nil {
		now = time.Now
	}
	return &PartyQueue{
		parties:   parties,
		rooms:     rooms,
		players:   players,
		publisher: publisher,
		now:       now,
	}
}

// ResolveParty returns the player's party, creating a fresh solo party when
// the player has none yet.
func (q *PartyQueue) ResolveParty(scope *envelope.Scope, steamID string) (*models.Party, error) {
	party, err := q.parties.BySteamID(scope.Ctx, steamID)
	if err == nil {
		return party, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	summary, err := q.players.Summary(scope.Ctx, steamID)
	if err != nil {
		return nil, fmt.Errorf("resolve player summary: %w", err)
	}

	party = &models.Party{
		ID:    utils.GenerateUUID(),
		Score: playerinfo.PlayerScore(summary),
		Players: []models.PlayerInParty{{
			SteamID:  steamID,
			IsLeader: true,
			Score:    playerinfo.PlayerScore(summary),
		}},
		DodgeList: summary.DodgeList,
	}
	party.Players[0].PartyID = party.ID
	if err := q.parties.Save(scope.Ctx, party); err != nil {
		return nil, err
	}
	q.publisher.Publish(events.PartyUpdated{Party: *party})
	return party, nil
}

// Enter admits the party into the given mode queues. Every member must pass
// the admission checks for every requested mode; a single rejection keeps
// the whole party out. Scores and dodge lists are refreshed on the way in.
func (q *PartyQueue) Enter(scope *envelope.Scope, partyID string, modes models.ModeList) (*models.Party, error) {
	scope = scope.NewChildScope("queue.Enter")
	defer scope.Finish()

	party, err := q.parties.ByID(scope.Ctx, partyID)
	if err != nil {
		return nil, err
	}

	seated, err := q.rooms.SeatedSteamIDs(scope.Ctx)
	if err != nil {
		return nil, err
	}
	for _, plr := range party.Players {
		if utils.Contains(seated, plr.SteamID) {
			return nil, ErrAlreadyInRoom
		}
	}

	var (
		partyScore float64
		dodge      models.SteamIDList
	)
	for i, plr := range party.Players {
		summary, err := q.players.Summary(scope.Ctx, plr.SteamID)
		if err != nil {
			return nil, fmt.Errorf("resolve player summary: %w", err)
		}
		for _, mode := range modes {
			if err := playerinfo.CanQueueMode(summary, mode); err != nil {
				scope.Log.WithField("steamID", plr.SteamID).
					WithField("mode", mode).
					WithError(err).Info("queue admission rejected")
				return nil, err
			}
		}
		score := playerinfo.PlayerScore(summary)
		party.Players[i].Score = score
		partyScore += score
		for _, dodged := range summary.DodgeList {
			if !utils.Contains(dodge, dodged) {
				dodge = append(dodge, dodged)
			}
		}
	}
	party.Score = partyScore
	party.DodgeList = dodge
	if err := q.parties.Save(scope.Ctx, party); err != nil {
		return nil, err
	}

	updated, err := q.parties.EnterQueue(scope.Ctx, party.ID, modes, q.now())
	if err != nil {
		return nil, err
	}

	q.publisher.Publish(events.PartyUpdated{Party: *updated})
	q.publishQueueCounts(scope, modes...)
	return updated, nil
}

// Leave removes the party from all queues. The permanent flag clears the
// waiting-time credit; ready-check requeues keep it.
func (q *PartyQueue) Leave(scope *envelope.Scope, partyID string, permanent bool) error {
	scope = scope.NewChildScope("queue.Leave")
	defer scope.Finish()

	party, err := q.parties.ByID(scope.Ctx, partyID)
	if err != nil {
		return err
	}
	modes := party.QueueModes
	if err := q.parties.LeaveQueue(scope.Ctx, []string{partyID}, permanent); err != nil {
		return err
	}
	if refreshed, err := q.parties.ByID(scope.Ctx, partyID); err == nil {
		q.publisher.Publish(events.PartyUpdated{Party: *refreshed})
	}
	q.publishQueueCounts(scope, modes...)
	return nil
}

// RemoveMatched takes the given parties out of every queue after a split has
// been committed to a room. enter_queue_time survives: if the ready check
// fails, the requeued parties keep their seniority.
func (q *PartyQueue) RemoveMatched(scope *envelope.Scope, partyIDs []string, modes ...models.MatchmakingMode) error {
	if err := q.parties.LeaveQueue(scope.Ctx, partyIDs, false); err != nil {
		return err
	}
	q.publishQueueCounts(scope, modes...)
	return nil
}

// ReleaseParties is the permanent exit taken when a match commits: the
// parties are done waiting and their waiting-time credit is cleared.
func (q *PartyQueue) ReleaseParties(scope *envelope.Scope, partyIDs []string) {
	if err := q.parties.LeaveQueue(scope.Ctx, partyIDs, true); err != nil {
		scope.Log.WithError(err).Warn("failed to release matched parties")
	}
}

// RequeueParties puts parties back into the given mode after a failed ready
// check or an external match-failed report. enter_queue_time survives so the
// parties keep their seniority.
func (q *PartyQueue) RequeueParties(scope *envelope.Scope, partyIDs []string, mode models.MatchmakingMode) {
	scope = scope.NewChildScope("queue.RequeueParties")
	defer scope.Finish()

	for _, partyID := range partyIDs {
		party, err := q.parties.EnterQueue(scope.Ctx, partyID, models.ModeList{mode}, q.now())
		if err != nil {
			scope.Log.WithField("partyID", partyID).WithError(err).Warn("failed to requeue party")
			continue
		}
		q.publisher.Publish(events.PartyUpdated{Party: *party})
	}
	q.publishQueueCounts(scope, mode)
}

// SweepEmptyParties deletes parties that lost all their members.
func (q *PartyQueue) SweepEmptyParties(scope *envelope.Scope) {
	removed, err := q.parties.DeleteEmpty(scope.Ctx)
	if err != nil {
		scope.Log.WithError(err).Warn("failed to sweep empty parties")
		return
	}
	if removed > 0 {
		scope.Log.WithField("removed", removed).Info("swept empty parties")
	}
}

func (q *PartyQueue) publishQueueCounts(scope *envelope.Scope, modes ...models.MatchmakingMode) {
	if len(modes) == 0 {
		return
	}
	queued, err := q.parties.InQueue(scope.Ctx)
	if err != nil {
		scope.Log.WithError(err).Warn("failed to read queue snapshot for counts")
		return
	}
	for _, mode := range modes {
		parties, players := 0, 0
		for _, party := range queued {
			if party.QueueModes.Contains(mode) {
				parties++
				players += party.Size()
			}
		}
		q.publisher.Publish(events.QueueUpdated{
			Mode:        mode,
			PartyCount:  parties,
			PlayerCount: players,
		})
	}
}
