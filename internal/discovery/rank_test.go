package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/buddyup/internal/db"
)

func TestScore(t *testing.T) {
	mine := NewCategorySet([]uint{1, 2, 3})

	tests := []struct {
		name     string
		theirs   []uint
		disliked bool
		want     int
	}{
		{"partial overlap", []uint{2, 3, 4}, false, 2},
		{"no categories", nil, false, 0},
		{"full overlap", []uint{3, 2, 1}, false, 3},
		{"disliked keeps overlap minus penalty", []uint{2, 3, 4}, true, 2 - 1000},
		{"disliked without overlap", nil, true, -1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(mine, NewCategorySet(tt.theirs), tt.disliked, 1000))
		})
	}
}

func TestScoreDislikedBelowEveryNonNegative(t *testing.T) {
	mine := NewCategorySet([]uint{1, 2, 3, 4, 5})
	best := Score(mine, mine, true, 1000)
	worst := Score(mine, CategorySet{}, false, 1000)
	assert.Less(t, best, worst)
}

func TestRankIsStable(t *testing.T) {
	pool := []Candidate{
		{Profile: db.Profile{ID: "a"}, Score: 1},
		{Profile: db.Profile{ID: "b"}, Score: 2},
		{Profile: db.Profile{ID: "c"}, Score: 1},
		{Profile: db.Profile{ID: "d"}, Score: -1000},
		{Profile: db.Profile{ID: "e"}, Score: 2},
	}

	ranked := Rank(pool)

	var ids []string
	for _, c := range ranked {
		ids = append(ids, c.Profile.ID)
	}
	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, ids)
}
