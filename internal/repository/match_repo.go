package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/domain"
	"github.com/oggyb/buddyup/internal/store"
)

// MatchRepository stores mutual likes. A pair has at most one row.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create inserts m. A row for the same pair already present yields store.ErrDuplicate.
func (r *MatchRepository) Create(ctx context.Context, m *db.Match) error {
	return store.Translate(r.db.WithContext(ctx).Create(m).Error)
}

// FindByPair looks the pair up in both orderings, so rows written before
// normalization was applied are still found.
func (r *MatchRepository) FindByPair(ctx context.Context, x, y string) (db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).
		Where("(user_a = ? AND user_b = ?) OR (user_a = ? AND user_b = ?)", x, y, y, x).
		Order("created_at ASC").
		Take(&m).Error
	return m, notFound(err)
}

func (r *MatchRepository) Get(ctx context.Context, id string) (db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	return m, notFound(err)
}

// ListForUser returns the user's matches, newest first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID string) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// notFound rewrites gorm.ErrRecordNotFound into domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return err
}
