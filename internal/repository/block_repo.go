package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/buddyup/internal/db"
)

// BlockRepository stores directed blocks and answers two-way questions about them.
type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Create records blocker -> blocked. Blocking twice is a no-op.
func (r *BlockRepository) Create(ctx context.Context, blockerID, blockedID string, at time.Time) error {
	block := db.Block{BlockerID: blockerID, BlockedID: blockedID, CreatedAt: at}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&block).Error
}

// Delete removes blocker -> blocked only; a block in the other direction stays.
func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID string) error {
	return r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&db.Block{}).Error
}

// Related returns every user in a block relation with userID, in either direction.
func (r *BlockRepository) Related(ctx context.Context, userID string) (map[string]struct{}, error) {
	var rows []db.Block
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(rows))
	for _, b := range rows {
		if b.BlockerID == userID {
			set[b.BlockedID] = struct{}{}
		} else {
			set[b.BlockerID] = struct{}{}
		}
	}
	return set, nil
}

// Between reports whether a block exists between x and y in either direction.
func (r *BlockRepository) Between(ctx context.Context, x, y string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", x, y, y, x).
		Count(&count).Error
	return count > 0, err
}
