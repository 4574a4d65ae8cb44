// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package balance

import (
	"github.com/dota2classic/matchmaker/pkg/models"
)

// TakeWhileNotDodged greedily grows a single group from the front of an
// already-sorted pool, skipping parties that would make the group
// dodge-infeasible and stopping before the headcount limit is exceeded.
// Used by the single-party and co-op paths where no opposing team exists.
func TakeWhileNotDodged(parties []models.Party, limit int) []models.Party {
	var target []models.Party

	for _, p := range parties {
		group := append(append([]models.Party{}, target...), p)

		var groupSize int
		for _, g := range group {
			groupSize += g.Size()
		}
		if groupSize > limit {
			break
		}

		if !IsDodgeViableGroup(group) {
			continue
		}

		target = group
	}

	return target
}
