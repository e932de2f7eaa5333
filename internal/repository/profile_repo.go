package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/buddyup/internal/db"
)

// ProfileRepository reads and writes profiles.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Upsert inserts the profile or overwrites its editable columns.
func (r *ProfileRepository) Upsert(ctx context.Context, p *db.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "age", "bio", "photo_ref",
				"latitude", "longitude", "last_active_at", "updated_at",
			}),
		}).
		Create(p).Error
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	return p, notFound(err)
}

// Touch bumps last_active_at.
func (r *ProfileRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", id).
		Update("last_active_at", at).Error
}

// Pool returns up to limit profiles not in exclude, most recently active first.
// Ties are broken by id so the order is stable across calls.
func (r *ProfileRepository) Pool(ctx context.Context, exclude []string, limit int) ([]db.Profile, error) {
	query := r.db.WithContext(ctx).
		Order("last_active_at DESC, id ASC").
		Limit(limit)
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}

	var profiles []db.Profile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}
