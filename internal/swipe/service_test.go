package swipe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/buddyup/internal/auth"
	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/domain"
	"github.com/oggyb/buddyup/internal/logger"
	"github.com/oggyb/buddyup/internal/store"
)

// memStore is a mutex-guarded store with the same uniqueness rules as the
// database: one swipe per (swiper, target), one match per (user_a, user_b).
type memStore struct {
	mu      sync.Mutex
	swipes  map[[2]string]domain.Direction
	matches []db.Match

	insertErr error
	findErr   error
	createErr error
	// preempt makes Create lose to a concurrent writer once
	preempt bool
	creates int
	finds   int
}

func newMemStore() *memStore {
	return &memStore{swipes: map[[2]string]domain.Direction{}}
}

func (m *memStore) Insert(_ context.Context, swiperID, targetID string, dir domain.Direction, at time.Time) (db.Swipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return db.Swipe{}, m.insertErr
	}
	key := [2]string{swiperID, targetID}
	if _, ok := m.swipes[key]; ok {
		return db.Swipe{}, store.ErrDuplicate
	}
	m.swipes[key] = dir
	return db.Swipe{SwiperID: swiperID, TargetID: targetID, Direction: dir, CreatedAt: at}, nil
}

func (m *memStore) Find(_ context.Context, swiperID, targetID string) (db.Swipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.findErr != nil {
		return db.Swipe{}, m.findErr
	}
	dir, ok := m.swipes[[2]string{swiperID, targetID}]
	if !ok {
		return db.Swipe{}, domain.ErrNotFound
	}
	return db.Swipe{SwiperID: swiperID, TargetID: targetID, Direction: dir}, nil
}

func (m *memStore) HasLiked(_ context.Context, swiperID, targetID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir, ok := m.swipes[[2]string{swiperID, targetID}]
	return ok && dir.IsLike(), nil
}

func (m *memStore) FindByPair(_ context.Context, x, y string) (db.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.matches {
		if (row.UserA == x && row.UserB == y) || (row.UserA == y && row.UserB == x) {
			return row, nil
		}
	}
	return db.Match{}, domain.ErrNotFound
}

func (m *memStore) Create(_ context.Context, match *db.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if m.preempt {
		m.preempt = false
		m.matches = append(m.matches, db.Match{ID: "winner", UserA: match.UserA, UserB: match.UserB})
	}
	for _, row := range m.matches {
		if row.UserA == match.UserA && row.UserB == match.UserB {
			return store.ErrDuplicate
		}
	}
	m.matches = append(m.matches, *match)
	return nil
}

func (m *memStore) matchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matches)
}

type countInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (c *countInvalidator) InvalidateLikeCount(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
	return nil
}

func newTestService(st *memStore) *Service {
	return NewService(st, st, logger.Discard())
}

func TestRecordSwipeMutualLikeEitherOrder(t *testing.T) {
	ctx := context.Background()

	for _, order := range [][2]string{{"a", "b"}, {"b", "a"}} {
		t.Run(order[0]+" first", func(t *testing.T) {
			st := newMemStore()
			svc := newTestService(st)

			first, err := svc.RecordSwipe(ctx, order[0], order[1], domain.DirectionRight)
			require.NoError(t, err)
			assert.False(t, first.Matched)

			second, err := svc.RecordSwipe(ctx, order[1], order[0], domain.DirectionSuper)
			require.NoError(t, err)
			assert.True(t, second.Matched)
			assert.Equal(t, order[0], second.OtherID)
			assert.NotEmpty(t, second.MatchID)

			// replay by the first user reuses the row
			again, err := svc.RecordSwipe(ctx, order[0], order[1], domain.DirectionRight)
			require.NoError(t, err)
			assert.True(t, again.Matched)
			assert.Equal(t, second.MatchID, again.MatchID)

			require.Equal(t, 1, st.matchCount())
			assert.Equal(t, "a", st.matches[0].UserA)
			assert.Equal(t, "b", st.matches[0].UserB)
		})
	}
}

func TestRecordSwipeConcurrentMutualLikes(t *testing.T) {
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		st := newMemStore()
		svc := newTestService(st)

		var wg sync.WaitGroup
		results := make([]Result, 4)
		errs := make([]error, 4)
		calls := [][2]string{{"a", "b"}, {"b", "a"}, {"a", "b"}, {"b", "a"}}
		for i, c := range calls {
			i, c := i, c
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = svc.RecordSwipe(ctx, c[0], c[1], domain.DirectionRight)
			}()
		}
		wg.Wait()

		require.Equal(t, 1, st.matchCount(), "round %d", round)
		matchID := st.matches[0].ID
		matched := 0
		for i := range calls {
			require.NoError(t, errs[i])
			if results[i].Matched {
				matched++
				assert.Equal(t, matchID, results[i].MatchID)
			}
		}
		assert.Positive(t, matched)
	}
}

func TestRecordSwipeLostRaceReturnsWinner(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := newTestService(st)

	_, err := svc.RecordSwipe(ctx, "a", "b", domain.DirectionRight)
	require.NoError(t, err)

	st.preempt = true
	res, err := svc.RecordSwipe(ctx, "b", "a", domain.DirectionRight)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "winner", res.MatchID)
	assert.Equal(t, 1, st.matchCount())
}

func TestRecordSwipeDuplicateLeftIsNoop(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := newTestService(st)

	for i := 0; i < 2; i++ {
		res, err := svc.RecordSwipe(ctx, "a", "b", domain.DirectionLeft)
		require.NoError(t, err)
		assert.False(t, res.Matched)
		assert.Empty(t, res.Warnings)
	}
	assert.Len(t, st.swipes, 1)
	assert.Equal(t, 1, st.finds, "the duplicate re-reads the kept swipe")
}

func TestRecordSwipeLeftNeverMatches(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := newTestService(st)

	_, err := svc.RecordSwipe(ctx, "a", "b", domain.DirectionLeft)
	require.NoError(t, err)

	res, err := svc.RecordSwipe(ctx, "b", "a", domain.DirectionRight)
	require.NoError(t, err)
	assert.False(t, res.Matched)

	// a later right swipe by a does not rewrite the left one
	res, err = svc.RecordSwipe(ctx, "a", "b", domain.DirectionRight)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Zero(t, st.matchCount())
}

func TestRecordSwipeInsertFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := newTestService(st)

	_, err := svc.RecordSwipe(ctx, "b", "a", domain.DirectionRight)
	require.NoError(t, err)

	st.insertErr = errors.New("disk full")
	res, err := svc.RecordSwipe(ctx, "a", "b", domain.DirectionRight)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "disk full")
	// the match check still ran
	assert.True(t, res.Matched)
}

func TestRecordSwipeDuplicateUnreadableIsWarning(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := newTestService(st)

	_, err := svc.RecordSwipe(ctx, "a", "b", domain.DirectionRight)
	require.NoError(t, err)

	st.findErr = errors.New("replica lag")
	res, err := svc.RecordSwipe(ctx, "a", "b", domain.DirectionRight)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "replica lag")
}

func TestRecordSwipeMatchFailurePropagates(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := newTestService(st)

	_, err := svc.RecordSwipe(ctx, "b", "a", domain.DirectionRight)
	require.NoError(t, err)

	st.createErr = errors.New("connection reset")
	res, err := svc.RecordSwipe(ctx, "a", "b", domain.DirectionRight)
	assert.ErrorIs(t, err, st.createErr)
	assert.False(t, res.Matched)
}

func TestRecordSwipeValidation(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	tests := []struct {
		swiper, target string
		dir            domain.Direction
	}{
		{"a", "a", domain.DirectionRight},
		{"", "b", domain.DirectionRight},
		{"a", "", domain.DirectionLeft},
		{"a", "b", domain.Direction("sideways")},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%s-%s", tt.swiper, tt.target, tt.dir), func(t *testing.T) {
			_, err := svc.RecordSwipe(ctx, tt.swiper, tt.target, tt.dir)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestRecordSwipeForSessionRequiresSession(t *testing.T) {
	st := newMemStore()
	svc := newTestService(st)

	_, err := svc.RecordSwipeForSession(context.Background(), "b", domain.DirectionRight)
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, err = svc.AcceptLikeForSession(context.Background(), "b")
	assert.ErrorIs(t, err, domain.ErrNoSession)

	ctx := auth.WithUserID(context.Background(), "a")
	_, err = svc.RecordSwipeForSession(ctx, "b", domain.DirectionRight)
	require.NoError(t, err)
	assert.Contains(t, st.swipes, [2]string{"a", "b"})
}

func TestAcceptLike(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	svc := newTestService(st)

	_, err := svc.AcceptLike(ctx, "a", "b")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.RecordSwipe(ctx, "b", "a", domain.DirectionSuper)
	require.NoError(t, err)
	// a passed on b earlier and changes their mind from the inbox
	_, err = svc.RecordSwipe(ctx, "a", "b", domain.DirectionLeft)
	require.NoError(t, err)

	res, err := svc.AcceptLike(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "b", res.OtherID)

	// a regular mutual swipe later reuses the same match
	again, err := svc.AcceptLike(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, res.MatchID, again.MatchID)
	assert.Equal(t, 1, st.matchCount())
}

func TestRecordSwipeInvalidatesLikeCounts(t *testing.T) {
	st := newMemStore()
	svc := newTestService(st)
	inv := &countInvalidator{}
	svc.AttachLikeCounts(inv)

	_, err := svc.RecordSwipe(context.Background(), "a", "b", domain.DirectionLeft)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, inv.users)
}
