// Package unread derives per-thread unread counts from messages and read
// markers. Counts are recomputed on every call; nothing is cached.
package unread

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oggyb/buddyup/internal/auth"
	"github.com/oggyb/buddyup/internal/domain"
	"github.com/oggyb/buddyup/internal/metrics"
)

type MarkerStore interface {
	LastRead(ctx context.Context, userID, matchID string) (time.Time, error)
	Upsert(ctx context.Context, userID, matchID string, at time.Time) error
}

type MessageCounter interface {
	CountUnread(ctx context.Context, matchID, userID string, since time.Time) (int64, error)
	// LatestAt is the created_at of the newest message in the thread, zero when it is empty.
	LatestAt(ctx context.Context, matchID string) (time.Time, error)
}

type Service struct {
	markers  MarkerStore
	messages MessageCounter
	log      *slog.Logger
}

func NewService(markers MarkerStore, messages MessageCounter, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		markers:  markers,
		messages: messages,
		log:      log,
	}
}

// Counts returns, per thread, the number of messages from the other
// participant created after userID's read marker. A thread whose lookup fails
// counts as 0. Without a user the result is empty.
func (s *Service) Counts(ctx context.Context, userID string, matchIDs []string) map[string]int {
	counts := make(map[string]int, len(matchIDs))
	if userID == "" {
		return counts
	}

	for _, matchID := range matchIDs {
		n, err := s.count(ctx, userID, matchID)
		if err != nil {
			metrics.DegradedLookups.WithLabelValues("unread").Inc()
			s.log.Warn("unread count failed, reporting 0", "user", userID, "match", matchID, "err", err)
		}
		counts[matchID] = n
	}
	return counts
}

// CountsForSession is Counts for the session user.
func (s *Service) CountsForSession(ctx context.Context, matchIDs []string) map[string]int {
	return s.Counts(ctx, auth.UserID(ctx), matchIDs)
}

func (s *Service) count(ctx context.Context, userID, matchID string) (int, error) {
	since, err := s.markers.LastRead(ctx, userID, matchID)
	if err != nil {
		return 0, fmt.Errorf("load read marker: %w", err)
	}
	n, err := s.messages.CountUnread(ctx, matchID, userID, since)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return int(n), nil
}

// MarkRead moves userID's marker for the thread to the created_at of its
// newest message. An empty thread keeps no marker. Safe to repeat.
func (s *Service) MarkRead(ctx context.Context, userID, matchID string) error {
	if userID == "" {
		return domain.ErrNoSession
	}
	if matchID == "" {
		return fmt.Errorf("match id is required: %w", domain.ErrInvalidArgument)
	}
	at, err := s.messages.LatestAt(ctx, matchID)
	if err != nil {
		return fmt.Errorf("find newest message: %w", err)
	}
	if at.IsZero() {
		return nil
	}
	if err := s.markers.Upsert(ctx, userID, matchID, at); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}
