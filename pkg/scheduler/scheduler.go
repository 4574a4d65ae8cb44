// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package scheduler owns the matching cycle: pick a due mode, drain its
// queue through the balancer and commit the resulting rooms.
package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dota2classic/matchmaker/pkg/balance"
	"github.com/dota2classic/matchmaker/pkg/constants"
	"github.com/dota2classic/matchmaker/pkg/envelope"
	"github.com/dota2classic/matchmaker/pkg/metrics"
	"github.com/dota2classic/matchmaker/pkg/models"
	"github.com/dota2classic/matchmaker/pkg/queue"
	"github.com/dota2classic/matchmaker/pkg/room"
	"github.com/dota2classic/matchmaker/pkg/storage"
)

// MatchScheduler runs at most one cycle at a time per process. The atomic
// flag short-circuits in-process overlap; the persisted in_progress column
// on queue_settings keeps a second instance (or a restart) from
// double-processing a mode.
type MatchScheduler struct {
	settings storage.QueueSettingsStore
	parties  storage.PartyStore
	queue    *queue.PartyQueue
	rooms    *room.Service
	runner   balance.Runner
	metrics  metrics.MatchmakingMetrics
	table    []ModeConfig
	now      func() time.Time

	running atomic.Bool
}

func NewMatchScheduler(
	settings storage.QueueSettingsStore,
	parties storage.PartyStore,
	partyQueue *queue.PartyQueue,
	rooms *room.Service,
	runner balance.Runner,
	m metrics.MatchmakingMetrics,
	table []ModeConfig,
	now func() time.Time,
) *MatchScheduler {
	if runner == nil {
		runner = balance.InlineRunner{}
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	if len(table) == 0 {
		table = DefaultModeTable
	}
	if now == nil {
		now = time.Now
	}
	return &MatchScheduler{
		settings: settings,
		parties:  parties,
		queue:    partyQueue,
		rooms:    rooms,
		runner:   runner,
		metrics:  m,
		table:    table,
		now:      now,
	}
}

// OnStart recovers from a crash mid-cycle: stale in_progress rows are reset
// before the loop runs its first cycle.
func (s *MatchScheduler) OnStart(scope *envelope.Scope) error {
	reset, err := s.settings.ResetInProgress(scope.Ctx)
	if err != nil {
		return fmt.Errorf("reset stale queue locks: %w", err)
	}
	if reset > 0 {
		scope.Log.WithField("reset", reset).Warn("cleared stale in_progress queue locks from a previous run")
	}
	return nil
}

// Cycle runs one matching pass for the first due mode. A zero modeHint
// considers every mode. Errors inside the pass are logged, never
// propagated; the locks are always released.
func (s *MatchScheduler) Cycle(scope *envelope.Scope, modeHint models.MatchmakingMode) {
	if !s.running.CompareAndSwap(false, true) {
		scope.Log.Debug("matching cycle already running, skipping")
		return
	}
	defer s.running.Store(false)

	settings, config, ok := s.pickDueMode(scope, modeHint)
	if !ok {
		return
	}

	scope = scope.NewChildScope("scheduler.Cycle")
	defer scope.Finish()
	scope.SetAttributes(envelope.LobbyTypeTag, int(settings.Mode))

	if err := s.settings.SetInProgress(scope.Ctx, settings.Mode, true); err != nil {
		scope.Log.WithError(err).Error("failed to take queue lock")
		return
	}
	started := s.now()
	defer func() {
		if err := s.settings.FinishCycle(scope.Ctx, settings.Mode, s.now()); err != nil {
			scope.Log.WithError(err).Error("failed to release queue lock")
		}
		s.metrics.AddCycleElapsedTimeMs(settings.Mode.String(), s.now().Sub(started))
	}()

	if err := s.runCycle(scope, settings, config); err != nil {
		scope.Log.WithField("mode", settings.Mode).WithError(err).Error("matching cycle failed")
	}
}

func (s *MatchScheduler) pickDueMode(scope *envelope.Scope, modeHint models.MatchmakingMode) (models.QueueSettings, ModeConfig, bool) {
	rows, err := s.settings.All(scope.Ctx)
	if err != nil {
		scope.Log.WithError(err).Error("failed to load queue settings")
		return models.QueueSettings{}, ModeConfig{}, false
	}

	now := s.now()
	sort.SliceStable(rows, func(i, j int) bool {
		ci, iOK := modeConfigFor(s.table, rows[i].Mode)
		cj, jOK := modeConfigFor(s.table, rows[j].Mode)
		if iOK != jOK {
			return iOK
		}
		return ci.Priority < cj.Priority
	})
	for _, row := range rows {
		if modeHint != 0 && row.Mode != modeHint {
			continue
		}
		if !row.ShouldRun(now) {
			continue
		}
		config, ok := modeConfigFor(s.table, row.Mode)
		if !ok {
			scope.Log.WithField("mode", row.Mode).Warn("queue settings row has no mode configuration")
			continue
		}
		return row, config, true
	}
	return models.QueueSettings{}, ModeConfig{}, false
}

func (s *MatchScheduler) runCycle(scope *envelope.Scope, settings models.QueueSettings, config ModeConfig) error {
	queued, err := s.parties.InQueue(scope.Ctx)
	if err != nil {
		return fmt.Errorf("load queue snapshot: %w", err)
	}

	pool := make([]models.Party, 0, len(queued))
	for _, party := range queued {
		if party.QueueModes.Contains(settings.Mode) {
			pool = append(pool, party)
		}
	}
	now := s.now()
	sort.SliceStable(pool, func(i, j int) bool {
		ti, tj := pool[i].EnterQueueAt, pool[j].EnterQueueAt
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.Before(*tj)
	})
	s.metrics.PartiesInQueue(settings.Mode.String(), len(pool), countPlayers(pool))
	scope.SetAttributes(envelope.PartyCountTag, len(pool))

	if len(pool) == 0 {
		return nil
	}

	var (
		results []models.GameBalance
		expired bool
	)
	if config.SingleGroup {
		results = s.drainSingleGroup(pool, settings.Mode, config)
	} else if countPlayers(pool) < balance.RequiredPlayers(config.Predicates(settings)) {
		s.metrics.AddUnmatchedReason(settings.Mode.String(), constants.ReasonNotEnoughPlayers)
		return nil
	} else {
		results, expired, err = s.drainPool(scope, pool, settings, config, now)
		if err != nil {
			return err
		}
	}
	if len(results) == 0 {
		reason := constants.ReasonNoViableSplit
		if expired {
			reason = constants.ReasonSearchTimeout
		}
		s.metrics.AddUnmatchedReason(settings.Mode.String(), reason)
		return nil
	}

	for _, result := range results {
		if err := s.commitResult(scope, result); err != nil {
			return err
		}
	}
	return nil
}

// drainPool repeatedly searches the shrinking pool, removing every matched
// party before the next invocation, until the search comes back empty.
// expired reports whether the final, fruitless search ran out of budget.
func (s *MatchScheduler) drainPool(
	scope *envelope.Scope,
	pool []models.Party,
	settings models.QueueSettings,
	config ModeConfig,
	now time.Time,
) (results []models.GameBalance, expired bool, err error) {
	for len(pool) > 0 {
		task := balance.Task{
			Pool:       pool,
			Function:   config.BalanceFunction(settings),
			Predicates: config.Predicates(settings),
			TimeBudget: config.TimeBudget,
			Now:        now,
		}
		searchStart := s.now()
		result, err := s.runner.Run(scope, task)
		s.metrics.AddSearchElapsedTimeMs(settings.Mode.String(), s.now().Sub(searchStart))
		if err != nil {
			return nil, false, fmt.Errorf("balance search: %w", err)
		}
		if !result.Found {
			expired = result.Expired
			break
		}

		results = append(results, models.GameBalance{
			Mode:  settings.Mode,
			Left:  result.Split.Left,
			Right: result.Split.Right,
		})

		matched := make(map[string]struct{})
		for _, p := range result.Split.Left {
			matched[p.ID] = struct{}{}
		}
		for _, p := range result.Split.Right {
			matched[p.ID] = struct{}{}
		}
		remaining := pool[:0]
		for _, p := range pool {
			if _, ok := matched[p.ID]; !ok {
				remaining = append(remaining, p)
			}
		}
		pool = remaining
	}
	return results, expired, nil
}

// drainSingleGroup serves the one-sided modes: the oldest dodge-viable
// parties play together without an opposing team.
func (s *MatchScheduler) drainSingleGroup(pool []models.Party, mode models.MatchmakingMode, config ModeConfig) []models.GameBalance {
	group := balance.TakeWhileNotDodged(pool, config.GroupLimit)
	if len(group) == 0 {
		return nil
	}
	return []models.GameBalance{{Mode: mode, Left: group}}
}

// commitResult creates the room and takes the matched parties out of the
// queue. Any room-creation failure discards just this result so the
// remaining pending results still get committed.
func (s *MatchScheduler) commitResult(scope *envelope.Scope, result models.GameBalance) error {
	created, err := s.rooms.CreateRoom(scope, result)
	if err != nil {
		if errors.Is(err, storage.ErrPlayerAlreadySeated) {
			scope.Log.WithField("mode", result.Mode).WithError(err).
				Warn("discarding balance result, player already seated elsewhere")
			return nil
		}
		scope.Log.WithField("mode", result.Mode).WithError(err).
			Warn("failed to create room, discarding balance result")
		return nil
	}
	s.metrics.AddRoomCreated(result.Mode.String())
	scope.Log.WithField("roomID", created.ID).
		WithField("parties", len(result.PartyIDs())).
		Info("balance result committed")
	return s.queue.RemoveMatched(scope, result.PartyIDs(), result.Mode)
}

func countPlayers(parties []models.Party) (count int) {
	for _, p := range parties {
		count += p.Size()
	}
	return count
}
