package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/buddyup/internal/db"
)

// CategoryRepository serves interest reference data and user selections.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(database *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: database}
}

func (r *CategoryRepository) List(ctx context.Context) ([]db.Category, error) {
	var categories []db.Category
	err := r.db.WithContext(ctx).Order("id ASC").Find(&categories).Error
	return categories, err
}

// CountExisting returns how many of ids are known categories.
func (r *CategoryRepository) CountExisting(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Category{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// ActiveIDs returns the user's active category ids.
func (r *CategoryRepository) ActiveIDs(ctx context.Context, userID string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&db.UserCategory{}).
		Where("user_id = ? AND active = ?", userID, true).
		Order("category_id ASC").
		Pluck("category_id", &ids).Error
	return ids, err
}

// Replace swaps the user's whole selection for rows in one transaction.
//
// Behavior:
//   - Deletes every existing row of the user, then inserts rows.
//   - A failure rolls back, leaving the previous selection intact.
func (r *CategoryRepository) Replace(ctx context.Context, userID string, rows []db.UserCategory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&db.UserCategory{}).Error; err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].UserID = userID
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert categories: %w", err)
		}
		return nil
	})
}
