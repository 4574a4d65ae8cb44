// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"fmt"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/mitchellh/copystructure"
	"github.com/sirupsen/logrus"
)

// MatchmakingMode identifies a game mode queue. The numeric values are
// persisted in queue_modes and queue_settings and must stay stable.
type MatchmakingMode int

const (
	ModeUnranked MatchmakingMode = 1
	ModeSolomid  MatchmakingMode = 2
	ModeBots     MatchmakingMode = 7
	ModeHighroom MatchmakingMode = 8
	ModeBots2x2  MatchmakingMode = 12
	ModeTurbo    MatchmakingMode = 13
)

func (m MatchmakingMode) String() string {
	switch m {
	case ModeUnranked:
		return "UNRANKED"
	case ModeSolomid:
		return "SOLOMID"
	case ModeBots:
		return "BOTS"
	case ModeHighroom:
		return "HIGHROOM"
	case ModeBots2x2:
		return "BOTS_2X2"
	case ModeTurbo:
		return "TURBO"
	default:
		return fmt.Sprintf("MODE_%d", int(m))
	}
}

// ReadyState is the per-player state of a ready check.
type ReadyState string

const (
	ReadyStatePending ReadyState = "PENDING"
	ReadyStateReady   ReadyState = "READY"
	ReadyStateDecline ReadyState = "DECLINE"
	ReadyStateTimeout ReadyState = "TIMEOUT"
)

// Team is the physical side assignment inside a room.
type Team int

const (
	TeamRadiant Team = 2
	TeamDire    Team = 3
)

// BalanceFunctionType selects the scoring function a mode balances with.
// Stored in queue_settings.balance_function.
type BalanceFunctionType string

const (
	BalanceLogWaitingScore     BalanceFunctionType = "LOG_WAITING_SCORE"
	BalanceMultWaitingScore    BalanceFunctionType = "MULT_WAITING_SCORE"
	BalanceOptimizePlayerCount BalanceFunctionType = "OPTIMIZE_PLAYER_COUNT"
)

// MatchVersion is carried on the room-ready commit event so downstream
// services can route the match to a compatible game server.
const MatchVersion = "Dota_684"

// Party is a group of players waiting together in one or more mode queues.
type Party struct {
	ID           string          `gorm:"column:id;primaryKey"          json:"id"`
	Players      []PlayerInParty `gorm:"foreignKey:PartyID"            json:"players"`
	Score        float64         `gorm:"column:score"                  json:"score"`
	QueueModes   ModeList        `gorm:"column:queue_modes;type:jsonb;serializer:json" json:"queue_modes"`
	InQueue      bool            `gorm:"column:in_queue"               json:"in_queue"`
	EnterQueueAt *time.Time      `gorm:"column:enter_queue_time"       json:"enter_queue_time"`
	DodgeList    SteamIDList     `gorm:"column:dodge_list;type:jsonb;serializer:json"  json:"dodge_list"`
}

func (Party) TableName() string { return "party" }

type (
	ModeList    []MatchmakingMode
	SteamIDList []string
)

func (m ModeList) Contains(mode MatchmakingMode) bool {
	for _, v := range m {
		if v == mode {
			return true
		}
	}
	return false
}

// Size counts players in the party.
func (p Party) Size() int {
	return len(p.Players)
}

// Leader returns the party leader. Exactly one player is flagged leader.
func (p Party) Leader() (PlayerInParty, bool) {
	for _, plr := range p.Players {
		if plr.IsLeader {
			return plr, true
		}
	}
	return PlayerInParty{}, false
}

// QueueTime reports how long the party has been waiting. Zero when the party
// never entered a queue.
func (p Party) QueueTime(now time.Time) time.Duration {
	if p.EnterQueueAt == nil {
		return 0
	}
	return now.Sub(*p.EnterQueueAt)
}

func (p Party) QueueTimeMillis(now time.Time) float64 {
	return float64(p.QueueTime(now).Milliseconds())
}

func (p Party) SteamIDs() []string {
	return pie.Map(p.Players, func(plr PlayerInParty) string { return plr.SteamID })
}

func (p Party) Copy() Party {
	copied, err := copystructure.Copy(p)
	if err != nil {
		logrus.Warn("failed to copy party:", err)
		return p
	}
	cp, _ := copied.(Party)
	return cp
}

// PlayerInParty is a single player's membership row. A steam ID belongs to
// at most one party.
type PlayerInParty struct {
	SteamID  string  `gorm:"column:steam_id;primaryKey" json:"steam_id"`
	PartyID  string  `gorm:"column:party_id"            json:"party_id"`
	IsLeader bool    `gorm:"column:leader"              json:"leader"`
	Score    float64 `gorm:"column:score"               json:"score"`
}

func (PlayerInParty) TableName() string { return "player_in_party" }

// Room is a tentative match going through its ready check. The room's
// existence is "ready check in progress"; it is deleted on finalize.
type Room struct {
	ID                   string          `gorm:"column:id;primaryKey"            json:"id"`
	LobbyType            MatchmakingMode `gorm:"column:lobby_type"               json:"lobby_type"`
	Players              []PlayerInRoom  `gorm:"foreignKey:RoomID"               json:"players"`
	ReadyCheckStartedAt  time.Time       `gorm:"column:ready_check_started_at"   json:"ready_check_started_at"`
	ReadyCheckFinishedAt *time.Time      `gorm:"column:ready_check_finished_at"  json:"ready_check_finished_at"`
}

func (Room) TableName() string { return "room" }

// IsFinished reports whether the ready check already finalized. Further
// transitions on a finished room are no-ops.
func (r Room) IsFinished() bool {
	return r.ReadyCheckFinishedAt != nil
}

func (r Room) PartyIDs() []string {
	seen := make(map[string]struct{}, len(r.Players))
	ids := make([]string, 0, len(r.Players))
	for _, plr := range r.Players {
		if _, ok := seen[plr.PartyID]; ok {
			continue
		}
		seen[plr.PartyID] = struct{}{}
		ids = append(ids, plr.PartyID)
	}
	return ids
}

// PlayerInRoom tracks one seated player and their ready state. steam_id is
// unique across open rooms.
type PlayerInRoom struct {
	RoomID     string     `gorm:"column:room_id;primaryKey"  json:"room_id"`
	PartyID    string     `gorm:"column:party_id;primaryKey" json:"party_id"`
	SteamID    string     `gorm:"column:steam_id;primaryKey;uniqueIndex:max_one_room_for_player" json:"steam_id"`
	ReadyState ReadyState `gorm:"column:ready_state"         json:"ready_state"`
	Team       Team       `gorm:"column:team"                json:"team"`
}

func (PlayerInRoom) TableName() string { return "player_in_room" }

// QueueSettings is the per-mode scheduling row. Mutated only by the
// scheduler; in_progress doubles as a crash-safe cycle lock.
type QueueSettings struct {
	Mode                     MatchmakingMode     `gorm:"column:mode;primaryKey"              json:"mode"`
	CheckInterval            int                 `gorm:"column:check_interval"               json:"check_interval"`
	LastCheckTimestamp       time.Time           `gorm:"column:last_check_timestamp"         json:"last_check_timestamp"`
	InProgress               bool                `gorm:"column:in_progress"                  json:"in_progress"`
	MaxTeamScoreDifference   float64             `gorm:"column:max_team_score_difference"    json:"max_team_score_difference"`
	MaxPlayerScoreDifference float64             `gorm:"column:max_player_score_difference"  json:"max_player_score_difference"`
	BalanceFunction          BalanceFunctionType `gorm:"column:balance_function"             json:"balance_function"`
}

func (QueueSettings) TableName() string { return "queue_settings" }

// ShouldRun gates a scheduling attempt for this mode.
func (q QueueSettings) ShouldRun(now time.Time) bool {
	return !q.InProgress &&
		q.LastCheckTimestamp.Add(time.Duration(q.CheckInterval)*time.Second).Before(now)
}

// GameBalance is one produced team split for a mode.
type GameBalance struct {
	Mode  MatchmakingMode
	Left  []Party
	Right []Party
}

func (b GameBalance) Parties() []Party {
	parties := make([]Party, 0, len(b.Left)+len(b.Right))
	parties = append(parties, b.Left...)
	parties = append(parties, b.Right...)
	return parties
}

func (b GameBalance) PartyIDs() []string {
	return pie.Map(b.Parties(), func(p Party) string { return p.ID })
}

func (b GameBalance) PlayerCount() (count int) {
	for _, p := range b.Parties() {
		count += p.Size()
	}
	return count
}
