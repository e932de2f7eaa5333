package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/buddyup/internal/db"
)

// ReadMarkerRepository keeps one high-water mark per (user, thread).
type ReadMarkerRepository struct {
	db *gorm.DB
}

func NewReadMarkerRepository(database *gorm.DB) *ReadMarkerRepository {
	return &ReadMarkerRepository{db: database}
}

// LastRead returns the user's mark for the thread, or the zero time when the
// thread was never read.
func (r *ReadMarkerRepository) LastRead(ctx context.Context, userID, matchID string) (time.Time, error) {
	var m db.ReadMarker
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND match_id = ?", userID, matchID).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return m.LastReadAt, nil
}

// Upsert sets last_read_at for (user, thread). Repeating the call is harmless.
func (r *ReadMarkerRepository) Upsert(ctx context.Context, userID, matchID string, at time.Time) error {
	marker := db.ReadMarker{
		UserID:     userID,
		MatchID:    matchID,
		LastReadAt: at,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "match_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_read_at"}),
		}).
		Create(&marker).Error
}
