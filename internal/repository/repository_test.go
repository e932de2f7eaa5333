package repository_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/domain"
	"github.com/oggyb/buddyup/internal/repository"
	"github.com/oggyb/buddyup/internal/store"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// setup in-memory DB, one per test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	database, err := db.NewSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return database
}

func seedProfiles(t *testing.T, gdb *gorm.DB, ids ...string) {
	t.Helper()
	for i, id := range ids {
		p := db.Profile{
			ID:           id,
			DisplayName:  id,
			Age:          25,
			LastActiveAt: t0.Add(-time.Duration(i) * time.Minute),
		}
		require.NoError(t, gdb.Create(&p).Error)
	}
}

func TestSwipeInsertRejectsSecondJudgment(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSwipeRepository(setupTestDB(t))

	_, err := repo.Insert(ctx, "a", "b", domain.DirectionLeft, t0)
	require.NoError(t, err)

	_, err = repo.Insert(ctx, "a", "b", domain.DirectionRight, t0)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	liked, err := repo.HasLiked(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, liked, "direction is never rewritten")

	kept, err := repo.Find(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionLeft, kept.Direction)

	_, err = repo.Find(ctx, "b", "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSwipeJudged(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSwipeRepository(setupTestDB(t))

	_, _ = repo.Insert(ctx, "a", "b", domain.DirectionRight, t0)
	_, _ = repo.Insert(ctx, "a", "c", domain.DirectionSuper, t0)
	_, _ = repo.Insert(ctx, "a", "d", domain.DirectionLeft, t0)
	_, _ = repo.Insert(ctx, "x", "a", domain.DirectionRight, t0)

	liked, disliked, err := repo.Judged(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, liked)
	assert.Equal(t, []string{"d"}, disliked)
}

func TestListLikersAndPagination(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewSwipeRepository(gdb)
	blocks := repository.NewBlockRepository(gdb)

	// l1..l4 liked me, newest last
	for i, id := range []string{"l1", "l2", "l3", "l4"} {
		_, err := repo.Insert(ctx, id, "me", domain.DirectionRight, t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}
	_, _ = repo.Insert(ctx, "p1", "me", domain.DirectionLeft, t0)
	// already judged by me → excluded
	_, _ = repo.Insert(ctx, "me", "l2", domain.DirectionLeft, t0)
	// blocked → excluded
	require.NoError(t, blocks.Create(ctx, "l3", "me", t0))

	page1, next, err := repo.ListLikers(ctx, "me", "", 1)
	require.NoError(t, err)
	require.Len(t, page1, 1)
	assert.Equal(t, "l4", page1[0].SwiperID)
	require.NotEmpty(t, next)

	page2, next, err := repo.ListLikers(ctx, "me", next, 1)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "l1", page2[0].SwiperID)
	assert.Empty(t, next)

	count, err := repo.CountLikers(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMatchFindByPairEitherOrder(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(setupTestDB(t))

	// stored unnormalized on purpose
	require.NoError(t, repo.Create(ctx, &db.Match{ID: "m1", UserA: "z", UserB: "a", CreatedAt: t0}))

	m, err := repo.FindByPair(ctx, "a", "z")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)

	_, err = repo.FindByPair(ctx, "a", "q")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMatchCreateDuplicatePair(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(setupTestDB(t))

	require.NoError(t, repo.Create(ctx, &db.Match{ID: "m1", UserA: "a", UserB: "b", CreatedAt: t0}))
	err := repo.Create(ctx, &db.Match{ID: "m2", UserA: "a", UserB: "b", CreatedAt: t0})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	list, err := repo.ListForUser(ctx, "b")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Other("b"))
}

func TestMessagesListAndUnread(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMessageRepository(setupTestDB(t))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &db.Message{
			ID:        fmt.Sprintf("msg%d", i),
			MatchID:   "m1",
			SenderID:  "b",
			Body:      "hi",
			CreatedAt: t0.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.Create(ctx, &db.Message{ID: "mine", MatchID: "m1", SenderID: "a", Body: "yo", CreatedAt: t0.Add(time.Minute)}))

	page, next, err := repo.List(ctx, "m1", "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "msg0", page[0].ID)

	page, next, err = repo.List(ctx, "m1", next, 5)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "msg2", page[0].ID)
	assert.Equal(t, "mine", page[1].ID)
	assert.Empty(t, next)

	n, err := repo.CountUnread(ctx, "m1", "a", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.CountUnread(ctx, "m1", "a", t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	latest, err := repo.LatestAt(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, latest.Equal(t0.Add(time.Minute)))

	latest, err = repo.LatestAt(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, latest.IsZero())
}

func TestReadMarkerUpsert(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewReadMarkerRepository(setupTestDB(t))

	at, err := repo.LastRead(ctx, "a", "m1")
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	require.NoError(t, repo.Upsert(ctx, "a", "m1", t0))
	require.NoError(t, repo.Upsert(ctx, "a", "m1", t0.Add(time.Hour)))

	at, err = repo.LastRead(ctx, "a", "m1")
	require.NoError(t, err)
	assert.True(t, t0.Add(time.Hour).Equal(at))
}

func TestBlocksTwoWay(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewBlockRepository(setupTestDB(t))

	require.NoError(t, repo.Create(ctx, "a", "b", t0))
	require.NoError(t, repo.Create(ctx, "a", "b", t0))
	require.NoError(t, repo.Create(ctx, "c", "a", t0))

	related, err := repo.Related(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, related, 2)
	assert.Contains(t, related, "b")
	assert.Contains(t, related, "c")

	blocked, err := repo.Between(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, blocked)

	require.NoError(t, repo.Delete(ctx, "a", "b"))
	blocked, err = repo.Between(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestProfilePoolOrderAndExclusion(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewProfileRepository(gdb)
	seedProfiles(t, gdb, "p1", "p2", "p3", "p4")

	pool, err := repo.Pool(ctx, []string{"p2"}, 2)
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, "p1", pool[0].ID)
	assert.Equal(t, "p3", pool[1].ID)

	require.NoError(t, repo.Touch(ctx, "p4", t0.Add(time.Hour)))
	pool, err = repo.Pool(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "p4", pool[0].ID)
}

func TestProfileUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	require.NoError(t, repo.Upsert(ctx, &db.Profile{ID: "p1", DisplayName: "Ann", Age: 30, LastActiveAt: t0}))
	require.NoError(t, repo.Upsert(ctx, &db.Profile{ID: "p1", DisplayName: "Anna", Age: 31, LastActiveAt: t0}))

	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Anna", p.DisplayName)
	assert.Equal(t, 31, p.Age)

	_, err = repo.Get(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategoryReplace(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewCategoryRepository(gdb)
	require.NoError(t, gdb.Create(&[]db.Category{
		{Slug: "hiking", Name: "Hiking"},
		{Slug: "chess", Name: "Chess"},
		{Slug: "jazz", Name: "Jazz"},
	}).Error)

	require.NoError(t, repo.Replace(ctx, "u1", []db.UserCategory{
		{CategoryID: 1, Intensity: 3, Active: true},
		{CategoryID: 2, Intensity: 5, Active: true},
	}))
	require.NoError(t, repo.Replace(ctx, "u1", []db.UserCategory{
		{CategoryID: 2, Intensity: 1, Active: true},
		{CategoryID: 3, Intensity: 2, Active: false},
	}))

	ids, err := repo.ActiveIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, ids)

	n, err := repo.CountExisting(ctx, []uint{1, 3, 99})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestAccountDeleteCascade(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	seedProfiles(t, gdb, "a", "b", "c")

	swipes := repository.NewSwipeRepository(gdb)
	matches := repository.NewMatchRepository(gdb)
	messages := repository.NewMessageRepository(gdb)
	markers := repository.NewReadMarkerRepository(gdb)
	blocks := repository.NewBlockRepository(gdb)

	_, _ = swipes.Insert(ctx, "a", "b", domain.DirectionRight, t0)
	_, _ = swipes.Insert(ctx, "b", "a", domain.DirectionRight, t0)
	_, _ = swipes.Insert(ctx, "b", "c", domain.DirectionRight, t0)
	require.NoError(t, matches.Create(ctx, &db.Match{ID: "m1", UserA: "a", UserB: "b", CreatedAt: t0}))
	require.NoError(t, messages.Create(ctx, &db.Message{ID: "x1", MatchID: "m1", SenderID: "b", Body: "hi", CreatedAt: t0}))
	require.NoError(t, markers.Upsert(ctx, "b", "m1", t0))
	require.NoError(t, blocks.Create(ctx, "c", "a", t0))
	require.NoError(t, gdb.Create(&db.UserCategory{UserID: "a", CategoryID: 1, Intensity: 3, Active: true}).Error)

	require.NoError(t, repository.NewAccountRepository(gdb).Delete(ctx, "a"))

	for _, model := range []interface{}{&db.Match{}, &db.Message{}, &db.ReadMarker{}, &db.Block{}, &db.UserCategory{}} {
		var n int64
		require.NoError(t, gdb.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T should be empty", model)
	}

	var left int64
	require.NoError(t, gdb.Model(&db.Swipe{}).Count(&left).Error)
	assert.Equal(t, int64(1), left, "only b -> c survives")

	_, err := repository.NewProfileRepository(gdb).Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
