// Package discovery builds a user's deck: candidates ranked by shared
// interests, previously passed profiles sunk to the bottom, liked and
// blocked profiles never shown.
package discovery

import (
	"sort"

	"github.com/oggyb/buddyup/internal/db"
)

// CategorySet is a set of active category ids.
type CategorySet map[uint]struct{}

func NewCategorySet(ids []uint) CategorySet {
	s := make(CategorySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Overlap returns |s ∩ o|.
func (s CategorySet) Overlap(o CategorySet) int {
	small, large := s, o
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for id := range small {
		if _, ok := large[id]; ok {
			n++
		}
	}
	return n
}

// Candidate is one ranked deck entry.
type Candidate struct {
	Profile    db.Profile
	Overlap    int
	Score      int
	Disliked   bool
	DistanceKM *float64
}

// Score is the overlap of the two sets, minus penalty when the viewer
// previously passed on the candidate.
func Score(mine, theirs CategorySet, disliked bool, penalty int) int {
	score := mine.Overlap(theirs)
	if disliked {
		score -= penalty
	}
	return score
}

// Rank orders pool by score descending. Equal scores keep their pool order.
// pool is sorted in place and returned.
func Rank(pool []Candidate) []Candidate {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Score > pool[j].Score
	})
	return pool
}
