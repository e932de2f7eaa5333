package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/buddyup/internal/domain"
)

var seedCategories = []Category{
	{Slug: "hiking", Name: "Hiking"},
	{Slug: "board-games", Name: "Board games"},
	{Slug: "climbing", Name: "Climbing"},
	{Slug: "cooking", Name: "Cooking"},
	{Slug: "photography", Name: "Photography"},
	{Slug: "running", Name: "Running"},
	{Slug: "live-music", Name: "Live music"},
	{Slug: "languages", Name: "Languages"},
}

// SeedTestData resets the database and populates it with demo profiles.
//
// Behavior:
//  1. Clears every table, children first.
//  2. Creates the category reference data and 20 profiles around London.
//  3. Gives each profile up to 3 interests.
//  4. Generates ~200 swipes with ~70% likes; every 3rd pair is made mutual.
//  5. Creates one match (with an opening message) per mutual pair.
//
// Returns the seeded profile ids so callers can issue dev tokens for them.
func SeedTestData(db *gorm.DB) ([]string, error) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC().Truncate(time.Millisecond)

	// --- Fresh start ---
	models := All()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(models[i]).Error; err != nil {
			return nil, fmt.Errorf("failed to clear %T: %w", models[i], err)
		}
	}
	slog.Info("cleared existing data")

	// --- Categories ---
	categories := make([]Category, len(seedCategories))
	copy(categories, seedCategories)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}
	var categoryIDs []uint
	if err := db.Model(&Category{}).Order("id ASC").Pluck("id", &categoryIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	// --- Profiles ---
	ids := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		lat := 51.5074 + (r.Float64()-0.5)*0.4
		lon := -0.1278 + (r.Float64()-0.5)*0.6
		p := Profile{
			ID:           uuid.NewString(),
			DisplayName:  fmt.Sprintf("user%d", i),
			Age:          20 + r.Intn(20),
			Bio:          "Looking for people to do things with.",
			LastActiveAt: now.Add(-time.Duration(r.Intn(500)) * time.Hour),
			Latitude:     &lat,
			Longitude:    &lon,
		}
		if err := db.Create(&p).Error; err != nil {
			return nil, fmt.Errorf("failed to seed profile: %w", err)
		}
		ids = append(ids, p.ID)

		// --- Interests ---
		for _, k := range r.Perm(len(categoryIDs))[:1+r.Intn(3)] {
			uc := UserCategory{UserID: p.ID, CategoryID: categoryIDs[k], Intensity: 1 + r.Intn(5), Active: true}
			if err := db.Create(&uc).Error; err != nil {
				return nil, fmt.Errorf("failed to seed interest: %w", err)
			}
		}
	}
	slog.Info("seeded profiles", "count", len(ids))

	// --- Swipes ---
	counter := 0
	for _, swiper := range ids {
		for j := 0; j < 10; j++ { // each user judges ~10 others
			target := ids[r.Intn(len(ids))]
			if swiper == target {
				continue
			}

			dir := domain.DirectionLeft
			if r.Intn(100) < 70 {
				dir = domain.DirectionRight
			}

			// make every 3rd like mutual
			if counter%3 == 0 {
				dir = domain.DirectionRight
				insertSwipe(db, target, swiper, domain.DirectionRight, now)
			}
			insertSwipe(db, swiper, target, dir, now)
			counter++
		}
	}
	slog.Info("seeded swipes", "count", counter)

	// --- Matches ---
	type pair struct{ A, B string }
	var pairs []pair
	err := db.Table("swipes s1").
		Select("s1.swiper_id AS a, s1.target_id AS b").
		Joins("JOIN swipes s2 ON s2.swiper_id = s1.target_id AND s2.target_id = s1.swiper_id").
		Where("s1.swiper_id < s1.target_id AND s1.direction IN ? AND s2.direction IN ?", domain.LikeDirections, domain.LikeDirections).
		Scan(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find mutual likes: %w", err)
	}
	for _, p := range pairs {
		m := Match{ID: ulid.Make().String(), UserA: p.A, UserB: p.B, CreatedAt: now}
		if err := db.Create(&m).Error; err != nil {
			return nil, fmt.Errorf("failed to seed match: %w", err)
		}
		msg := Message{ID: ulid.Make().String(), MatchID: m.ID, SenderID: p.A, Body: "Hey! Fancy a hike this weekend?", CreatedAt: now}
		if err := db.Create(&msg).Error; err != nil {
			return nil, fmt.Errorf("failed to seed message: %w", err)
		}
	}
	slog.Info("seeded matches", "count", len(pairs))

	return ids, nil
}

// insertSwipe ignores duplicates; the first judgment of a pair wins.
func insertSwipe(db *gorm.DB, swiper, target string, dir domain.Direction, at time.Time) {
	db.Clauses(clause.OnConflict{DoNothing: true}).Create(&Swipe{
		SwiperID:  swiper,
		TargetID:  target,
		Direction: dir,
		CreatedAt: at,
	})
}
