package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/domain"
	"github.com/oggyb/buddyup/internal/store"
	"github.com/oggyb/buddyup/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the Swipe model.
// It encapsulates all queries related to likes/passes between users.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Insert appends a judgment swiper -> target.
//
// Behavior:
//   - Rows are never updated: a second judgment for the same pair fails with
//     store.ErrDuplicate and the stored direction is kept.
//
// Example:
//
//	repo.Insert(ctx, "a", "b", domain.DirectionRight, now) // a liked b
func (r *SwipeRepository) Insert(
	ctx context.Context,
	swiperID, targetID string,
	dir domain.Direction,
	at time.Time,
) (db.Swipe, error) {
	swipe := db.Swipe{
		SwiperID:  swiperID,
		TargetID:  targetID,
		Direction: dir,
		CreatedAt: at,
	}
	if err := r.db.WithContext(ctx).Create(&swipe).Error; err != nil {
		return db.Swipe{}, store.Translate(err)
	}
	return swipe, nil
}

// Find returns the stored judgment swiper -> target, or domain.ErrNotFound.
func (r *SwipeRepository) Find(ctx context.Context, swiperID, targetID string) (db.Swipe, error) {
	var swipe db.Swipe
	err := r.db.WithContext(ctx).
		Where("swiper_id = ? AND target_id = ?", swiperID, targetID).
		Take(&swipe).Error
	return swipe, notFound(err)
}

// HasLiked checks whether swiper right- or super-swiped target.
//
// Example:
//
//	repo.HasLiked(ctx, "b", "a") // -> true if b liked a
func (r *SwipeRepository) HasLiked(ctx context.Context, swiperID, targetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiper_id = ? AND target_id = ? AND direction IN ?", swiperID, targetID, domain.LikeDirections).
		Count(&count).Error
	return count > 0, err
}

// Judged returns the targets swiper has liked (right/super) and disliked (left).
func (r *SwipeRepository) Judged(ctx context.Context, swiperID string) (liked, disliked []string, err error) {
	var rows []db.Swipe
	err = r.db.WithContext(ctx).
		Select("target_id", "direction").
		Where("swiper_id = ?", swiperID).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	for _, s := range rows {
		if s.Direction.IsLike() {
			liked = append(liked, s.TargetID)
		} else {
			disliked = append(disliked, s.TargetID)
		}
	}
	return liked, disliked, nil
}

// likersQuery selects inbound likes of recipient that are still pending:
// the recipient has not judged the liker, and no block exists either way.
func (r *SwipeRepository) likersQuery(ctx context.Context, recipientID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.target_id = ? AND s.direction IN ?", recipientID, domain.LikeDirections).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.swiper_id = ?
				  AND s2.target_id = s.swiper_id
			)`, recipientID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = ? AND b.blocked_id = s.swiper_id)
				   OR (b.blocker_id = s.swiper_id AND b.blocked_id = ?)
			)`, recipientID, recipientID)
}

// ListLikers returns users who liked the recipient and are waiting for an answer.
//
// Behavior:
//   - Only right/super swipes targeting the recipient are returned.
//   - Excludes likers the recipient already judged, and blocked users.
//   - Ordered by created_at DESC, swiper_id DESC.
//   - Supports cursor-based pagination via token; "" means no further page.
//
// Example:
//
//	repo.ListLikers(ctx, "u42", "", 20) // first 20 pending likes for u42
func (r *SwipeRepository) ListLikers(
	ctx context.Context,
	recipientID string,
	token string,
	limit int,
) ([]db.Swipe, string, error) {
	cursor, err := pagination.Decode(token)
	if err != nil {
		return nil, "", err
	}

	query := r.likersQuery(ctx, recipientID).
		Select("s.*").
		Order("s.created_at DESC, s.swiper_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := cursor.At()
		query = query.Where(
			"(s.created_at < ? OR (s.created_at = ? AND s.swiper_id < ?))",
			ts, ts, cursor.ID,
		)
	}

	var swipes []db.Swipe
	if err := query.Find(&swipes).Error; err != nil {
		return nil, "", err
	}

	// pagination: build next cursor if needed
	var next string
	if len(swipes) > limit {
		last := swipes[limit-1]
		next, _ = pagination.Encode(pagination.After(last.SwiperID, last.CreatedAt))
		swipes = swipes[:limit]
	}
	return swipes, next, nil
}

// CountLikers returns how many pending likes the recipient has.
// Used in conjunction with Redis cache (DB is fallback).
func (r *SwipeRepository) CountLikers(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	if err := r.likersQuery(ctx, recipientID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
