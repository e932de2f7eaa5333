// Package chat sends and lists messages inside a match.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/oggyb/buddyup/internal/auth"
	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/domain"
	"github.com/oggyb/buddyup/internal/ratelimit"
)

const (
	MaxBodyRunes     = 2000
	defaultPageLimit = 50
	maxPageLimit     = 100
)

type MatchStore interface {
	Get(ctx context.Context, id string) (db.Match, error)
}

type BlockChecker interface {
	Between(ctx context.Context, x, y string) (bool, error)
}

type MessageStore interface {
	Create(ctx context.Context, m *db.Message) error
	List(ctx context.Context, matchID, token string, limit int) ([]db.Message, string, error)
}

type ReadMarker interface {
	MarkRead(ctx context.Context, userID, matchID string) error
}

type Limiter interface {
	Allow(ctx context.Context, userID string, actions ...ratelimit.Action) error
}

type Service struct {
	matches  MatchStore
	blocks   BlockChecker
	messages MessageStore
	reads    ReadMarker
	limiter  Limiter
	log      *slog.Logger
	now      func() time.Time
}

func NewService(
	matches MatchStore,
	blocks BlockChecker,
	messages MessageStore,
	reads ReadMarker,
	limiter Limiter,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		matches:  matches,
		blocks:   blocks,
		messages: messages,
		reads:    reads,
		limiter:  limiter,
		log:      log,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Send stores a message from the session user and marks the thread read for them.
//
// Behavior:
//   - The body is trimmed and must hold 1..MaxBodyRunes characters.
//   - Only the two participants may send; a block either way disables the thread.
//   - Burst and per-minute limits apply after validation, so rejected input
//     does not use up the budget.
func (s *Service) Send(ctx context.Context, matchID, body string) (db.Message, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return db.Message{}, domain.ErrNoSession
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return db.Message{}, fmt.Errorf("message body is empty: %w", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(body) > MaxBodyRunes {
		return db.Message{}, fmt.Errorf("message body exceeds %d characters: %w", MaxBodyRunes, domain.ErrInvalidArgument)
	}

	m, err := s.participantMatch(ctx, userID, matchID)
	if err != nil {
		return db.Message{}, err
	}

	blocked, err := s.blocks.Between(ctx, userID, m.Other(userID))
	if err != nil {
		return db.Message{}, fmt.Errorf("check blocks: %w", err)
	}
	if blocked {
		return db.Message{}, domain.ErrBlocked
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, userID, ratelimit.ActionMessageBurst, ratelimit.ActionMessageMinute); err != nil {
			return db.Message{}, err
		}
	}

	msg := db.Message{
		ID:        ulid.Make().String(),
		MatchID:   m.ID,
		SenderID:  userID,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.messages.Create(ctx, &msg); err != nil {
		return db.Message{}, fmt.Errorf("store message: %w", err)
	}

	// sending implies the sender has read the thread
	if err := s.reads.MarkRead(ctx, userID, m.ID); err != nil {
		s.log.Warn("mark read after send failed", "user", userID, "match", m.ID, "err", err)
	}
	return msg, nil
}

// List returns a page of the thread, oldest first. The next token is "" on the last page.
func (s *Service) List(ctx context.Context, matchID, token string, limit int) ([]db.Message, string, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, "", domain.ErrNoSession
	}
	if _, err := s.participantMatch(ctx, userID, matchID); err != nil {
		return nil, "", err
	}

	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	msgs, next, err := s.messages.List(ctx, matchID, token, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list messages: %w", err)
	}
	return msgs, next, nil
}

func (s *Service) participantMatch(ctx context.Context, userID, matchID string) (db.Match, error) {
	if matchID == "" {
		return db.Match{}, fmt.Errorf("match id is required: %w", domain.ErrInvalidArgument)
	}
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return db.Match{}, err
	}
	if !m.Has(userID) {
		return db.Match{}, domain.ErrNotParticipant
	}
	return m, nil
}
