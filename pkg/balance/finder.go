// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package balance

import (
	"math"
	"sort"
	"time"

	"github.com/dota2classic/matchmaker/pkg/models"
)

// Split is the best two-sided partition the search produced.
type Split struct {
	Left  []models.Party `json:"left"`
	Right []models.Party `json:"right"`
}

// FindBestSplit enumerates every assignment of pool parties into
// left/right/unused, keeps the lowest-scoring split that passes all
// predicates, and stops as soon as the wall-clock budget runs out,
// returning the best found so far. Parties waiting longest are visited
// first so early cutoffs still favor them. expired reports whether the
// budget cut the enumeration short.
func FindBestSplit(
	pool []models.Party,
	scoreFn Function,
	timeBudget time.Duration,
	predicates []Predicate,
) (split Split, found, expired bool) {
	sorted := make([]models.Party, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].EnterQueueAt, sorted[j].EnterQueueAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(*b)
	})

	s := &search{
		scoreFn:    scoreFn,
		predicates: predicates,
		deadline:   time.Now().Add(timeBudget),
		bestScore:  math.MaxFloat64,
	}
	s.enumerate(sorted, 0, nil, nil)

	if !s.found {
		return Split{}, false, s.expired
	}
	return Split{Left: s.bestLeft, Right: s.bestRight}, true, s.expired
}

type search struct {
	scoreFn    Function
	predicates []Predicate
	deadline   time.Time

	bestScore float64
	bestLeft  []models.Party
	bestRight []models.Party
	found     bool
	expired   bool

	visited int
}

// deadline polling granularity; a time.Now() per node is measurable overhead
const deadlineCheckMask = 0x3ff

func (s *search) overBudget() bool {
	if s.expired {
		return true
	}
	s.visited++
	if s.visited&deadlineCheckMask != 0 {
		return false
	}
	if time.Now().After(s.deadline) {
		s.expired = true
	}
	return s.expired
}

func (s *search) enumerate(pool []models.Party, i int, left, right []models.Party) {
	if s.overBudget() {
		return
	}
	if i == len(pool) {
		s.evaluate(left, right)
		return
	}

	party := pool[i]

	s.enumerate(pool, i+1, append(left, party), right)
	if s.expired {
		return
	}
	s.enumerate(pool, i+1, left, append(right, party))
	if s.expired {
		return
	}
	s.enumerate(pool, i+1, left, right) // unused bucket
}

func (s *search) evaluate(left, right []models.Party) {
	if len(left) == 0 || len(right) == 0 {
		return
	}

	score := s.scoreFn(left, right)
	for _, predicate := range s.predicates {
		if !predicate(left, right, score) {
			return
		}
	}

	if score < s.bestScore {
		s.bestScore = score
		s.bestLeft = append(s.bestLeft[:0:0], left...)
		s.bestRight = append(s.bestRight[:0:0], right...)
		s.found = true
	}
}
