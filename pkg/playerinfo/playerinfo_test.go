// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package playerinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dota2classic/matchmaker/pkg/models"
)

func TestPlayerScore(t *testing.T) {
	t.Parallel()

	base := Summary{MMR: 3000, RecentWinrate: 0.5, GamesPlayed: 0}
	veteran := Summary{MMR: 3000, RecentWinrate: 0.5, GamesPlayed: 500}
	winner := Summary{MMR: 3000, RecentWinrate: 0.9, GamesPlayed: 500}

	// fresh account, winrate neutral: mmr * 1.0 * (1 + 0.5/5)
	assert.InDelta(t, 3300, PlayerScore(base), 1)

	// experience dampening saturates around +20%
	assert.InDelta(t, 3600, PlayerScore(veteran), 1)

	assert.Greater(t, PlayerScore(winner), PlayerScore(veteran))
	assert.Less(t, PlayerScore(Summary{MMR: 3000, RecentWinrate: 0.1, GamesPlayed: 500}), PlayerScore(veteran))
}

func TestCanQueueMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary Summary
		mode    models.MatchmakingMode
		wantErr error
	}{
		{"clean player unranked", Summary{GamesPlayed: 5, AccessLevel: AccessLevelHumanGames}, models.ModeUnranked, nil},
		{"banned", Summary{Banned: true}, models.ModeUnranked, ErrBanned},
		{"in session", Summary{InSession: true}, models.ModeUnranked, ErrInSession},
		{"fresh account cannot queue humans", Summary{AccessLevel: AccessLevelEducation}, models.ModeUnranked, ErrModeNotAllowed},
		{"fresh account can queue bots", Summary{AccessLevel: AccessLevelEducation}, models.ModeBots, nil},
		{"no access level at all", Summary{AccessLevel: AccessLevelNone}, models.ModeBots, ErrModeNotAllowed},
		{"simple modes unlock solomid", Summary{AccessLevel: AccessLevelSimpleModes}, models.ModeSolomid, nil},
		{"simple modes stop at unranked", Summary{AccessLevel: AccessLevelSimpleModes}, models.ModeUnranked, ErrModeNotAllowed},
		{"highroom under 30 games", Summary{GamesPlayed: 29, AccessLevel: AccessLevelHumanGames}, models.ModeHighroom, ErrInsufficientExperience},
		{"highroom at 30 games", Summary{GamesPlayed: 30, AccessLevel: AccessLevelHumanGames}, models.ModeHighroom, nil},
		{"ban beats experience", Summary{Banned: true, GamesPlayed: 100}, models.ModeHighroom, ErrBanned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanQueueMode(tt.summary, tt.mode)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
