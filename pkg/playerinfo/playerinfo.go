// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package playerinfo carries the contract with the external player-info
// service and the score math derived from its answers.
package playerinfo

import (
	"context"
	"errors"
	"math"

	"github.com/dota2classic/matchmaker/pkg/models"
)

// Admission rejections. Surfaced synchronously to the enqueue caller; the
// party is not enqueued and there is no retry.
var (
	ErrBanned                 = errors.New("player is banned from queueing")
	ErrInSession              = errors.New("player is already in an active session")
	ErrInsufficientExperience = errors.New("player lacks the games required for this mode")
	ErrModeNotAllowed         = errors.New("player's access level does not permit this mode")
)

// Summary is what the player-info service reports for one steam ID.
type Summary struct {
	SteamID       string
	Banned        bool
	InSession     bool
	AccessLevel   int
	MMR           float64
	RecentWinrate float64
	GamesPlayed   int
	DodgeList     []string
}

// Client resolves player summaries. Implemented outside this repo; tests use
// a static stub.
type Client interface {
	Summary(ctx context.Context, steamID string) (Summary, error)
}

// Access levels the player-info service hands out, in unlock order. The
// numeric values are part of the collaborator contract.
const (
	AccessLevelNone = iota
	AccessLevelEducation
	AccessLevelSimpleModes
	AccessLevelHumanGames
)

// Highroom is additionally gated on experience.
const highroomMinGames = 30

func requiredAccessLevel(mode models.MatchmakingMode) int {
	switch mode {
	case models.ModeBots, models.ModeBots2x2:
		return AccessLevelEducation
	case models.ModeSolomid, models.ModeTurbo:
		return AccessLevelSimpleModes
	default:
		return AccessLevelHumanGames
	}
}

// CanQueueMode checks one player's eligibility for one mode.
func CanQueueMode(s Summary, mode models.MatchmakingMode) error {
	if s.Banned {
		return ErrBanned
	}
	if s.InSession {
		return ErrInSession
	}
	if s.AccessLevel < requiredAccessLevel(mode) {
		return ErrModeNotAllowed
	}
	if mode == models.ModeHighroom && s.GamesPlayed < highroomMinGames {
		return ErrInsufficientExperience
	}
	return nil
}

// PlayerScore derives the balance score used by the matchmaking predicates:
// mmr scaled by recent winrate and dampened experience.
func PlayerScore(s Summary) float64 {
	experience := 1 + sigmoid(float64(s.GamesPlayed)/10)/5
	return s.MMR * (s.RecentWinrate + 0.5) * experience
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// StaticClient serves summaries from a fixed map. Test double and local-run
// fallback.
type StaticClient struct {
	Summaries map[string]Summary
}

func (c *StaticClient) Summary(_ context.Context, steamID string) (Summary, error) {
	s, ok := c.Summaries[steamID]
	if !ok {
		return Summary{SteamID: steamID, RecentWinrate: 0.5, AccessLevel: AccessLevelHumanGames}, nil
	}
	return s, nil
}

var _ Client = (*StaticClient)(nil)
