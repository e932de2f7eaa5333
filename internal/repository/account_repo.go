package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/buddyup/internal/db"
)

// AccountRepository removes everything a profile owns.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(database *gorm.DB) *AccountRepository {
	return &AccountRepository{db: database}
}

// Delete runs the account cascade in one transaction, children before parents:
// read markers, messages, matches, swipes, blocks, categories, profile.
// Deleting an unknown account is a no-op.
func (r *AccountRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		matchIDs := tx.Model(&db.Match{}).Select("id").Where("user_a = ? OR user_b = ?", userID, userID)

		steps := []struct {
			name  string
			model interface{}
			where string
			args  []interface{}
		}{
			{"read markers", &db.ReadMarker{}, "user_id = ? OR match_id IN (?)", []interface{}{userID, matchIDs}},
			{"messages", &db.Message{}, "match_id IN (?)", []interface{}{matchIDs}},
			{"matches", &db.Match{}, "user_a = ? OR user_b = ?", []interface{}{userID, userID}},
			{"swipes", &db.Swipe{}, "swiper_id = ? OR target_id = ?", []interface{}{userID, userID}},
			{"blocks", &db.Block{}, "blocker_id = ? OR blocked_id = ?", []interface{}{userID, userID}},
			{"categories", &db.UserCategory{}, "user_id = ?", []interface{}{userID}},
			{"profile", &db.Profile{}, "id = ?", []interface{}{userID}},
		}
		for _, s := range steps {
			if err := tx.Where(s.where, s.args...).Delete(s.model).Error; err != nil {
				return fmt.Errorf("delete %s: %w", s.name, err)
			}
		}
		return nil
	})
}
