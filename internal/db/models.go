package db

import (
	"time"

	"github.com/oggyb/buddyup/internal/domain"
)

// Profile is the root entity; every other table references it by ID.
// IDs are issued by the auth collaborator.
//
// Indexes:
//   - idx_profiles_last_active(last_active_at DESC)
//     Orders the discovery candidate pool by recency.
type Profile struct {
	ID           string    `gorm:"primaryKey;size:64"`
	DisplayName  string    `gorm:"size:64;not null"`
	Age          int       `gorm:"not null"`
	Bio          string    `gorm:"size:500"`
	PhotoRef     string    `gorm:"size:255"`
	LastActiveAt time.Time `gorm:"index:idx_profiles_last_active,sort:desc"`
	Latitude     *float64
	Longitude    *float64
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Category is immutable interest reference data.
type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Slug string `gorm:"uniqueIndex;size:64;not null"`
	Name string `gorm:"size:64;not null"`
}

// UserCategory is interest membership. Rows are replaced wholesale per user.
type UserCategory struct {
	UserID     string    `gorm:"primaryKey;size:64"`
	CategoryID uint      `gorm:"primaryKey"`
	Intensity  int       `gorm:"not null;default:3"`
	Active     bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Swipe is an append-only judgment swiper → target.
//
// Unique (swiper_id, target_id): a repeated judgment is rejected by the store
// and ignored by the caller; direction is never rewritten.
//
// Indexes:
//   - idx_swipes_target_direction(target_id, direction)
//     Serves "who liked me" and the reciprocal-like lookup.
type Swipe struct {
	ID        uint64           `gorm:"primaryKey;autoIncrement"`
	SwiperID  string           `gorm:"size:64;not null;uniqueIndex:ux_swipes_pair,priority:1"`
	TargetID  string           `gorm:"size:64;not null;uniqueIndex:ux_swipes_pair,priority:2;index:idx_swipes_target_direction,priority:1"`
	Direction domain.Direction `gorm:"size:8;not null;index:idx_swipes_target_direction,priority:2"`
	CreatedAt time.Time        `gorm:"not null"`
}

// Match is an unordered pair stored with UserA < UserB.
// Unique (user_a, user_b) guarantees at most one row per pair.
type Match struct {
	ID        string    `gorm:"primaryKey;size:26"`
	UserA     string    `gorm:"size:64;not null;uniqueIndex:ux_matches_pair,priority:1"`
	UserB     string    `gorm:"size:64;not null;uniqueIndex:ux_matches_pair,priority:2;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// Other returns the participant that is not userID.
func (m Match) Other(userID string) string {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}

// Has reports whether userID is one of the two participants.
func (m Match) Has(userID string) bool {
	return userID != "" && (m.UserA == userID || m.UserB == userID)
}

// Message is append-only and scoped to one match.
type Message struct {
	ID        string    `gorm:"primaryKey;size:26"`
	MatchID   string    `gorm:"size:26;not null;index:idx_messages_thread,priority:1"`
	SenderID  string    `gorm:"size:64;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_messages_thread,priority:2"`
}

// ReadMarker is the per-user, per-thread high-water mark.
type ReadMarker struct {
	UserID     string    `gorm:"primaryKey;size:64"`
	MatchID    string    `gorm:"primaryKey;size:26"`
	LastReadAt time.Time `gorm:"not null"`
}

// Block is directed; either direction hides both users from each other.
type Block struct {
	BlockerID string    `gorm:"primaryKey;size:64"`
	BlockedID string    `gorm:"primaryKey;size:64;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// All lists every model in dependency order, for migrations.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Category{},
		&UserCategory{},
		&Swipe{},
		&Match{},
		&Message{},
		&ReadMarker{},
		&Block{},
	}
}

// NormalizePair orders two user ids so that a < b.
func NormalizePair(x, y string) (a, b string) {
	if x > y {
		return y, x
	}
	return x, y
}
