package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/utils/pagination"
)

// MessageRepository reads and appends chat messages.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// List returns a thread page ordered by created_at ASC, id ASC.
// The returned token is "" on the last page.
func (r *MessageRepository) List(
	ctx context.Context,
	matchID string,
	token string,
	limit int,
) ([]db.Message, string, error) {
	cursor, err := pagination.Decode(token)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC, id ASC").
		Limit(limit + 1)

	if !cursor.IsZero() {
		ts := cursor.At()
		query = query.Where(
			"(created_at > ? OR (created_at = ? AND id > ?))",
			ts, ts, cursor.ID,
		)
	}

	var messages []db.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, "", err
	}

	var next string
	if len(messages) > limit {
		last := messages[limit-1]
		next, _ = pagination.Encode(pagination.After(last.ID, last.CreatedAt))
		messages = messages[:limit]
	}
	return messages, next, nil
}

// CountUnread counts messages in the thread not sent by userID and created
// strictly after since.
func (r *MessageRepository) CountUnread(ctx context.Context, matchID, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id = ? AND sender_id <> ? AND created_at > ?", matchID, userID, since).
		Count(&count).Error
	return count, err
}

// LatestAt returns created_at of the newest message in the thread, or the
// zero time when the thread is empty.
func (r *MessageRepository) LatestAt(ctx context.Context, matchID string) (time.Time, error) {
	var m db.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at DESC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return m.CreatedAt, nil
}
